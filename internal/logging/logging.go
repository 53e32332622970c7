// Package logging configures the shared logrus logger and hands out
// component-scoped entries.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var base = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// Options controls the logger output
type Options struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// Configure applies the options to the shared logger. An empty level keeps
// the current one.
func Configure(opts Options) error {
	if opts.Level != "" {
		lvl, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return err
		}
		base.SetLevel(lvl)
	}
	if opts.JSON {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	if opts.Output != nil {
		base.SetOutput(opts.Output)
	}
	return nil
}

// For returns an entry tagged with the component name
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}

// Logger exposes the shared logger, mainly for tests that need a hook
func Logger() *logrus.Logger {
	return base
}
