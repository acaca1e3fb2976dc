// Package redact replaces configured secrets with placeholders before text
// leaves the process through logs or notifications.
package redact

import (
	"html"
	"sort"
	"strings"
)

// Secret is a sensitive value and the placeholder that replaces it.
type Secret struct {
	Value       string
	Placeholder string
}

// Redactor substitutes every configured secret. The zero value and nil
// redactor are no-ops.
type Redactor struct {
	replacer *strings.Replacer
	html     *strings.Replacer
}

// New builds a Redactor. Empty values are ignored; longer values are
// replaced first so a secret containing another secret is fully hidden.
func New(secrets ...Secret) *Redactor {
	active := make([]Secret, 0, len(secrets))
	for _, s := range secrets {
		if strings.TrimSpace(s.Value) == "" {
			continue
		}
		if s.Placeholder == "" {
			s.Placeholder = "[REDACTED]"
		}
		active = append(active, s)
	}
	if len(active) == 0 {
		return &Redactor{}
	}

	markup := make([]Secret, 0, 2*len(active))
	for _, s := range active {
		escaped := Secret{Value: s.Value, Placeholder: html.EscapeString(s.Placeholder)}
		markup = append(markup, escaped)
		if v := html.EscapeString(s.Value); v != s.Value {
			markup = append(markup, Secret{Value: v, Placeholder: escaped.Placeholder})
		}
	}
	return &Redactor{replacer: replacer(active), html: replacer(markup)}
}

func replacer(secrets []Secret) *strings.Replacer {
	sort.SliceStable(secrets, func(i, j int) bool {
		return len(secrets[i].Value) > len(secrets[j].Value)
	})
	oldnew := make([]string, 0, 2*len(secrets))
	for _, s := range secrets {
		oldnew = append(oldnew, s.Value, s.Placeholder)
	}
	return strings.NewReplacer(oldnew...)
}

// String redacts s.
func (r *Redactor) String(s string) string {
	if r == nil || r.replacer == nil {
		return s
	}
	return r.replacer.Replace(s)
}

// HTML redacts s that is already HTML markup. Secrets are matched both raw
// and in their escaped form, and placeholders are escaped.
func (r *Redactor) HTML(s string) string {
	if r == nil || r.html == nil {
		return s
	}
	return r.html.Replace(s)
}

// Error redacts err's message. A nil error gives an empty string.
func (r *Redactor) Error(err error) string {
	if err == nil {
		return ""
	}
	return r.String(err.Error())
}
