package logging

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

type Formatter struct {
	// Redactor masks credentials in the rendered message. May be nil.
	Redactor *Redactor
}

func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	name, _ := entry.Data["name"].(string)

	msg := entry.Message
	if err, ok := entry.Data[logrus.ErrorKey].(error); ok && err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err)
	}
	if f.Redactor != nil {
		msg = f.Redactor.Redact(msg)
	}

	b.WriteString(fmt.Sprintf("%s [%-5s] %-24s: %s\n",
		entry.Time.Format("2006-01-02 15:04:05.000"),
		strings.ToUpper(entry.Level.String()),
		name,
		msg,
	))

	return b.Bytes(), nil
}
