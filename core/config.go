package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		SecretKey    string
		RollbarToken string
		WorkDir      string

		Server struct {
			Address            string
			Host               string
			DebugHost          string
			ShutdownTimeout    time.Duration
			JWTExpirationDelta time.Duration
			AdminUsername      string
			AdminPasswordHash  string // bcrypt; see `admin hashpassword`
		}

		Database struct {
			Engine               string
			Host                 string
			Port                 string
			Name                 string
			User                 string
			Password             string
			AdminUser            string
			AdminPassword        string
			DisableTLS           bool
			MinReconnectInterval time.Duration
			MaxReconnectInterval time.Duration
		}

		Registry struct {
			ReloadTimeout time.Duration
		}

		Mail struct {
			SendgridAPIKey   string
			DefaultFromEmail string
			AlertEmail       string // receives error notifications; disabled when empty
		}
	}
)

// DatabaseAddress returns the database "host:port".
func (c Config) DatabaseAddress() string {
	return net.JoinHostPort(c.Database.Host, c.Database.Port)
}

func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Bursar")
	v.SetDefault("secretKey", "hs9(-w3k#mz4u0=+x!d8r7q2^b@ycv$l1e5f&n6g)j_p*t")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 12*time.Hour)
	v.SetDefault("server.adminUsername", "bursar")
	v.SetDefault("server.adminPasswordHash", "")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "bursar")
	v.SetDefault("database.user", "bursar")
	v.SetDefault("database.password", "bursar")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", env == "DEV" || env == "TEST")
	v.SetDefault("database.minReconnectInterval", 10*time.Second)
	v.SetDefault("database.maxReconnectInterval", time.Minute)

	v.SetDefault("registry.reloadTimeout", 15*time.Second)

	v.SetDefault("mail.sendgridAPIKey", "")
	v.SetDefault("mail.defaultFromEmail", "noreply@localhost")
	v.SetDefault("mail.alertEmail", "")

	// e.g. PROD_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := &Config{
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		WorkDir:      wd,
	}

	conf.Server.Address = v.GetString("server.address")
	conf.Server.Host = v.GetString("server.host")
	conf.Server.DebugHost = v.GetString("server.debugHost")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Server.JWTExpirationDelta = v.GetDuration("server.jwtExpirationDelta")
	conf.Server.AdminUsername = CleanString(v.GetString("server.adminUsername"), true /* lower */)
	conf.Server.AdminPasswordHash = v.GetString("server.adminPasswordHash")

	conf.Database.Engine = v.GetString("database.engine")
	conf.Database.Host = v.GetString("database.host")
	conf.Database.Port = v.GetString("database.port")
	conf.Database.Name = v.GetString("database.name")
	conf.Database.User = v.GetString("database.user")
	conf.Database.Password = v.GetString("database.password")
	conf.Database.AdminUser = v.GetString("database.adminUser")
	conf.Database.AdminPassword = v.GetString("database.adminPassword")
	conf.Database.DisableTLS = v.GetBool("database.disableTLS")
	conf.Database.MinReconnectInterval = v.GetDuration("database.minReconnectInterval")
	conf.Database.MaxReconnectInterval = v.GetDuration("database.maxReconnectInterval")

	conf.Registry.ReloadTimeout = v.GetDuration("registry.reloadTimeout")

	conf.Mail.SendgridAPIKey = v.GetString("mail.sendgridAPIKey")
	conf.Mail.DefaultFromEmail = v.GetString("mail.defaultFromEmail")
	conf.Mail.AlertEmail = v.GetString("mail.alertEmail")

	return conf
}
