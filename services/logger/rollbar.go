package logsvc

import (
	"log"
	"strconv"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/eleve/core"
	"github.com/trezcool/eleve/core/user"
)

// RollbarLogger writes every entry to a standard logger.
// Entries are also reported to Rollbar when a token is configured, outside of DEBUG and TEST modes.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetServerRoot("github.com/trezcool/eleve")
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.Debug && !conf.TestMode)
	return &RollbarLogger{std: std}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l *RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l *RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

// Fatal reports msg, waits for Rollbar to send it, then exits.
func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}

// Close blocks until the queued Rollbar items are sent.
func (l *RollbarLogger) Close() {
	rollbar.Close()
}

// log accepts msg followed by any of: error, map[string]interface{} (extras), user.User (the person).
func (l *RollbarLogger) log(level, msg string, args []interface{}) {
	items := make([]interface{}, 0, len(args)+1)
	items = append(items, msg)
	l.std.Printf("[%s] %s", level, msg)

	var person *user.User
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok {
			if person == nil {
				person = &usr
			}
			continue
		}
		items = append(items, arg)
		l.std.Printf("  %+v", arg)
	}

	if person != nil {
		rollbar.SetPerson(strconv.Itoa(person.ID), person.Username, person.Email)
		l.std.Printf("  user: %d %s", person.ID, person.Username)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, items...)
}
