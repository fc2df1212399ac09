// Package logging implements the Logger collaborator: three hooks the core
// calls at message boundaries and lifecycle events, with payload and
// formatting left entirely to this package.
package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the collaborator interface the core depends on. Nothing in
// internal/ircd constructs a *logrus.Logger directly; it only ever sees
// this interface, so a test can substitute a no-op implementation.
type Logger interface {
	LogIncoming(host string, port int, line string)
	LogOutgoing(host string, port int, line string)
	LogMsg(text string)
}

// New returns a Logger backed by logrus, with structured fields
// (remote_addr, remote_port, direction) attached to every line instead of
// a bare formatted string.
func New(out *logrus.Logger) Logger {
	if out == nil {
		out = logrus.StandardLogger()
	}
	return &logrusLogger{log: out}
}

type logrusLogger struct {
	log *logrus.Logger
}

func (l *logrusLogger) LogIncoming(host string, port int, line string) {
	l.log.WithFields(logrus.Fields{
		"remote_addr": host,
		"remote_port": port,
		"direction":   "in",
	}).Debug(strings.TrimRight(line, "\r\n"))
}

func (l *logrusLogger) LogOutgoing(host string, port int, line string) {
	l.log.WithFields(logrus.Fields{
		"remote_addr": host,
		"remote_port": port,
		"direction":   "out",
	}).Debug(strings.TrimRight(line, "\r\n"))
}

func (l *logrusLogger) LogMsg(text string) {
	l.log.Info(text)
}

// Discard is a Logger that drops everything. Useful in tests that exercise
// the dispatcher without caring about log output.
var Discard Logger = discard{}

type discard struct{}

func (discard) LogIncoming(string, int, string) {}
func (discard) LogOutgoing(string, int, string) {}
func (discard) LogMsg(string)                   {}
