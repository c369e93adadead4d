// Package logging configures the structured logger shared by every
// component of the server and replica client.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger with a plain text formatter, matching the
// terse, timestamp-prefixed lines the rest of the pack's redis-family
// servers emit. level follows logrus's names (debug, info, warn, error);
// an unrecognized value falls back to info.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log
}
