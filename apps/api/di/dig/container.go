package dig_container

import (
	"fmt"
	"log"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/bursar/apps/api/echo"
	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/registry"
	"github.com/trezcool/bursar/core/student"
	"github.com/trezcool/bursar/services/changefeed"
	logsvc "github.com/trezcool/bursar/services/logger"
	metricsvc "github.com/trezcool/bursar/services/metrics"
	notifysvc "github.com/trezcool/bursar/services/notify"
	"github.com/trezcool/bursar/storage/database"
	sqlxrepos "github.com/trezcool/bursar/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Shutdown receives OS signals, and the server's own shutdown requests.
type Shutdown chan os.Signal

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DBExecutor) {
	db, err := database.SetUp(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

func newChangeFeed(conf *core.Config, loggerParam DBLoggerParam) (*changefeed.Feed, registry.Subscriber) {
	feed, err := changefeed.New(conf, loggerParam.Logger)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("listening to database changes: %v", err), err)
	}
	return feed, feed
}

func newNotifications() *notifysvc.Feed {
	return notifysvc.NewFeed(0)
}

func newNotifier(conf *core.Config, logger core.Logger, notifications *notifysvc.Feed) core.Notifier {
	return notifysvc.Multi(
		notifysvc.NewConsoleNotifier(logger),
		notifications,
		notifysvc.NewSendgridAlerter(conf, logger),
	)
}

func newMetrics() (registry.Metrics, prometheus.Gatherer, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(prometheus.NewGoCollector()); err != nil {
		return nil, nil, err
	}
	if err := reg.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{})); err != nil {
		return nil, nil, err
	}
	m, err := metricsvc.New(reg)
	if err != nil {
		return nil, nil, err
	}
	return m, reg, nil
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

type registryParams struct {
	dig.In
	Conf     *core.Config
	Students student.Repository
	Fees     fee.Repository
	Feed     registry.Subscriber
	Logger   core.Logger
	Notifier core.Notifier
	Validate *validator.Validate
	Metrics  registry.Metrics
}

func newRegistry(p registryParams) *registry.Registry {
	return registry.New(registry.Options{
		Students:      p.Students,
		Fees:          p.Fees,
		Feed:          p.Feed,
		Logger:        p.Logger,
		Notifier:      p.Notifier,
		Validate:      p.Validate,
		Metrics:       p.Metrics,
		ReloadTimeout: p.Conf.Registry.ReloadTimeout,
	})
}

type serverParams struct {
	dig.In
	Conf          *core.Config
	Registry      *registry.Registry
	Notifications *notifysvc.Feed
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	Gatherer      prometheus.Gatherer
	Shutdown      Shutdown
}

func newServer(p serverParams) echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Address:        p.Conf.Server.Address,
		DisableReqLogs: !p.Conf.Debug,
		Conf:           p.Conf,
		Registry:       p.Registry,
		Notifications:  p.Notifications,
		Logger:         p.Logger,
		Validate:       p.Validate,
		Translator:     p.Translator,
		Gatherer:       p.Gatherer,
		SignalShutdown: func() {
			select {
			case p.Shutdown <- syscall.SIGTERM:
			default:
			}
		},
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(sqlxrepos.NewStudentRepository))
	must(c.Provide(sqlxrepos.NewFeeRepository))
	must(c.Provide(newChangeFeed))
	must(c.Provide(newNotifications))
	must(c.Provide(newNotifier))
	must(c.Provide(newMetrics))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newRegistry))
	must(c.Provide(func() Shutdown { return make(Shutdown, 1) }))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
