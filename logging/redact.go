package logging

import (
	"regexp"
	"strings"
	"sync"
)

const redactedValue = "***REDACTED***"

// Hub user access tokens look like hf_ followed by an opaque alphanumeric tail.
var hubTokenPattern = regexp.MustCompile(`hf_[A-Za-z0-9]{8,}`)

// Redactor replaces hub tokens and explicitly registered secrets.
type Redactor struct {
	mu      sync.RWMutex
	secrets []string
}

func NewRedactor() *Redactor {
	return &Redactor{}
}

// Add registers an exact value to be masked. Empty values are ignored.
func (r *Redactor) Add(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.secrets {
		if s == secret {
			return
		}
	}
	r.secrets = append(r.secrets, secret)
}

func (r *Redactor) Redact(s string) string {
	r.mu.RLock()
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, redactedValue)
	}
	r.mu.RUnlock()
	return hubTokenPattern.ReplaceAllStringFunc(s, func(tok string) string {
		return "hf_" + redactedValue
	})
}
