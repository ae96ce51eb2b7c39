// Package diag wires up the structured logger shared across the backend:
// one *logrus.Logger, configured once, passed down to module.Builder and the
// CLI rather than each package constructing its own.
package diag

import "github.com/sirupsen/logrus"

// NewLogger returns a text-formatted logrus logger. debug widens the level
// to Debug (opcode-dispatch-level tracing); otherwise it logs at Info.
func NewLogger(debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
