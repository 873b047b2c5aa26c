package log

import (
	"io"
	"os"

	"github.com/hubtools/space-restart/logging"
	"github.com/sirupsen/logrus"
)

var (
	redactor   = logging.NewRedactor()
	rootLogger = &logrus.Logger{
		Out:       os.Stderr,
		Level:     logrus.InfoLevel,
		Hooks:     make(logrus.LevelHooks),
		Formatter: &logging.Formatter{Redactor: redactor},
	}
)

func SetOutput(output io.Writer) {
	rootLogger.SetOutput(output)
}

// SetLevel accepts logrus level names. "trace" is accepted as well and
// enables the most verbose output.
func SetLevel(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	rootLogger.SetLevel(lvl)
	return nil
}

// AddSecret masks secret in every line written by any logger.
func AddSecret(secret string) {
	redactor.Add(secret)
}

func NewLogger(name string) *logrus.Entry {
	return logrus.NewEntry(rootLogger).WithField("name", name)
}
