package logsvc

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/user"
)

// NewStdLogger builds the structured logger every RollbarLogger writes through:
// JSON into a rotating file when Log.FilePath is set, text on stdout otherwise.
func NewStdLogger(name string, conf *core.Config) *slog.Logger {
	var w io.Writer = os.Stdout
	if conf.Log.FilePath != "" {
		w = &lumberjack.Logger{
			Filename:   conf.Log.FilePath,
			MaxSize:    conf.Log.MaxSize,
			MaxBackups: conf.Log.MaxBackups,
			MaxAge:     conf.Log.MaxAge,
			Compress:   conf.Log.Compress,
		}
	}
	return newStdLogger(w, name, conf)
}

func newStdLogger(w io.Writer, name string, conf *core.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(conf.Log.Level)}
	if conf.Debug {
		opts.Level = slog.LevelDebug
	}
	var h slog.Handler
	if conf.Log.FilePath != "" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("logger", name)
}

func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type RollbarLogger struct {
	std *slog.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *slog.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.Debug && !conf.TestMode)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var usrSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		// set logged in User
		if usr, ok := arg.(user.User); ok {
			if !usrSet { // only set one User
				rollbar.SetPerson(usr.ID, usr.Username, usr.Email)
				usrSet = true
			}
		} else {
			newArgs = append(newArgs, arg)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

// attrs turns free-form args into slog attributes.
func (l RollbarLogger) attrs(args []interface{}) []interface{} {
	attrs := make([]interface{}, 0, len(args))
	for i, arg := range args {
		switch a := arg.(type) {
		case error:
			attrs = append(attrs, slog.String("error", fmt.Sprintf("%+v", a)))
		case map[string]interface{}:
			for k, v := range a {
				attrs = append(attrs, slog.Any(k, v))
			}
		case user.User:
			attrs = append(attrs, slog.String("user_id", a.ID))
		default:
			attrs = append(attrs, slog.Any(fmt.Sprintf("arg%d", i), a))
		}
	}
	return attrs
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.std.Debug(msg, l.attrs(args)...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.std.Info(msg, l.attrs(args)...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.std.Warn(msg, l.attrs(args)...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.std.Error(msg, l.attrs(args)...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.std.Error(msg, l.attrs(args)...)
	rollbar.Wait()
	os.Exit(1)
}
