package logger

import (
	"maps"
	"net/url"
	"slices"
	"strings"
)

// DefaultMaskValue replaces sensitive values in log output.
const DefaultMaskValue = "***"

// RedactConfig lists the field and query parameter names treated as secrets.
type RedactConfig struct {
	// SensitiveKeys are matched case-insensitively as substrings of field
	// names and query parameter names.
	SensitiveKeys []string
	// MaskValue replaces the secret (default "***").
	MaskValue string
}

// DefaultRedactConfig returns the common secret names seen in request URLs and log fields.
func DefaultRedactConfig() *RedactConfig {
	return &RedactConfig{
		SensitiveKeys: []string{
			"password", "passwd", "pwd",
			"secret", "api_key", "apikey",
			"token", "access_token", "refresh_token",
			"auth", "authorization",
			"credential", "signature",
		},
		MaskValue: DefaultMaskValue,
	}
}

// Redactor masks secrets in log fields and URLs.
type Redactor struct {
	config *RedactConfig
}

// NewRedactor creates a Redactor; a nil config selects DefaultRedactConfig.
func NewRedactor(config *RedactConfig) *Redactor {
	if config == nil {
		config = DefaultRedactConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &Redactor{config: config}
}

var defaultRedactor = NewRedactor(nil)

// RedactURL masks the userinfo password and sensitive query parameters of
// rawURL using the default configuration. Unparseable input is returned as
// the mask value so nothing leaks.
func RedactURL(rawURL string) string {
	return defaultRedactor.URL(rawURL)
}

// String masks value when key is sensitive; otherwise URLs are still scrubbed.
func (r *Redactor) String(key, value string) string {
	if value == "" {
		return value
	}
	if r.isSensitive(key) {
		return r.config.MaskValue
	}
	if looksLikeURL(value) {
		return r.URL(value)
	}
	return value
}

// Value masks v when key is sensitive and scrubs nested string maps.
func (r *Redactor) Value(key string, v any) any {
	if r.isSensitive(key) {
		return r.config.MaskValue
	}
	switch val := v.(type) {
	case string:
		return r.String(key, val)
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, s := range val {
			out[k] = r.String(k, s)
		}
		return out
	case map[string]any:
		return r.Fields(val)
	default:
		return v
	}
}

// Fields returns a copy of fields with secrets masked.
func (r *Redactor) Fields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = r.Value(k, v)
	}
	return out
}

// URL masks the password in userinfo and the values of sensitive query parameters.
func (r *Redactor) URL(rawURL string) string {
	if rawURL == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return r.config.MaskValue
	}

	changed := false
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			changed = true
		}
	}

	query := u.Query()
	for name := range query {
		if r.isSensitive(name) {
			query[name] = []string{r.config.MaskValue}
			changed = true
		}
	}
	if !changed {
		return rawURL
	}

	return r.buildURL(u, query)
}

// buildURL writes the URL by hand so the mask is not percent-encoded.
func (r *Redactor) buildURL(u *url.URL, query url.Values) string {
	var b strings.Builder
	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteString("://")
	}
	if u.User != nil {
		b.WriteString(u.User.Username())
		if _, hasPassword := u.User.Password(); hasPassword {
			b.WriteByte(':')
			b.WriteString(r.config.MaskValue)
		}
		b.WriteByte('@')
	}
	b.WriteString(u.Host)
	b.WriteString(u.EscapedPath())

	if len(query) > 0 {
		b.WriteByte('?')
		first := true
		for _, name := range slices.Sorted(maps.Keys(query)) {
			for _, v := range query[name] {
				if !first {
					b.WriteByte('&')
				}
				first = false
				b.WriteString(url.QueryEscape(name))
				b.WriteByte('=')
				if v == r.config.MaskValue {
					b.WriteString(v)
				} else {
					b.WriteString(url.QueryEscape(v))
				}
			}
		}
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.EscapedFragment())
	}
	return b.String()
}

func (r *Redactor) isSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, key := range r.config.SensitiveKeys {
		if strings.Contains(lower, strings.ToLower(key)) {
			return true
		}
	}
	return false
}

func looksLikeURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}
