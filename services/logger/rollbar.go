package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/bursar/core"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
	levelFatal
)

var levels = [...]struct {
	name   string
	report func(...interface{})
}{
	levelDebug: {"DEBUG", rollbar.Debug},
	levelInfo:  {"INFO", rollbar.Info},
	levelWarn:  {"WARN", rollbar.Warning},
	levelError: {"ERROR", rollbar.Error},
	levelFatal: {"FATAL", rollbar.Critical},
}

// RollbarLogger reports to Rollbar and mirrors every entry to a std logger, as
// "[LEVEL] msg key=value ..." followed by one line per error.
type RollbarLogger struct {
	std *log.Logger
	min level
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	l := &RollbarLogger{std: std, min: levelInfo}
	if conf.Debug {
		l.min = levelDebug
	}
	return l
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// entry splits args into the Rollbar arguments, the extras & errors to print, and the operator.
// expected args: error, map[string]interface{}, core.Person (only the first one is kept)
type entry struct {
	report []interface{}
	extras map[string]interface{}
	errs   []error
	person *core.Person
}

func newEntry(msg string, args []interface{}) entry {
	e := entry{report: []interface{}{msg}, extras: map[string]interface{}{}}
	for _, arg := range args {
		switch a := arg.(type) {
		case core.Person:
			if e.person == nil {
				p := a
				e.person = &p
			}
			continue
		case error:
			e.errs = append(e.errs, a)
		case map[string]interface{}:
			for k, v := range a {
				e.extras[k] = v
			}
		default:
			e.extras[fmt.Sprintf("arg%d", len(e.extras))] = a
		}
		e.report = append(e.report, arg)
	}
	return e
}

func (e entry) line(lvl level, msg string) string {
	var b strings.Builder
	b.WriteString("[" + levels[lvl].name + "] " + msg)

	keys := make([]string, 0, len(e.extras))
	for k := range e.extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.extras[k])
	}
	if e.person != nil && e.person.Username != "" {
		b.WriteString(" operator=" + e.person.Username)
	}
	return b.String()
}

func (l RollbarLogger) log(lvl level, msg string, args []interface{}) {
	if lvl < l.min {
		return
	}
	e := newEntry(msg, args)

	if e.person != nil {
		rollbar.SetPerson(e.person.ID, e.person.Username, e.person.Email)
	} else {
		rollbar.ClearPerson()
	}
	levels[lvl].report(e.report...)

	l.std.Println(e.line(lvl, msg))
	for _, err := range e.errs {
		l.std.Printf("%+v\n", err)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(levelDebug, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(levelInfo, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(levelWarn, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(levelError, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(levelFatal, msg, args)
	l.std.Fatal(msg)
}
