package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
)

const redacted = "[REDACTED]"

type action int

const (
	keep action = iota
	drop
	digest
)

// keyRules are matched as substrings of the lowercased key, first match wins.
var keyRules = []struct {
	fragment string
	act      action
}{
	{"authorization", drop},
	{"xi-api-key", drop},
	{"api_key", drop},
	{"apikey", drop},
	{"secret", drop},
	{"token", drop},
	{"email", digest},
	{"user_id", digest},
	{"subscriber", digest},
}

type redactor struct {
	once    sync.Once
	enabled bool
	salt    string
}

var defaultRedactor = &redactor{}

// LOG_REDACTION_ENABLED=false turns redaction off; LOG_HASH_SALT salts digests.
func (r *redactor) load() {
	r.once.Do(func() {
		switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
		case "0", "false", "no", "off":
		default:
			r.enabled = true
		}
		r.salt = strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))
	})
}

func (r *redactor) kvs(kv []any) []any {
	r.load()
	if len(kv) == 0 || !r.enabled {
		return kv
	}
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		out[i+1] = r.value(stringify(out[i]), out[i+1])
	}
	return out
}

func (r *redactor) value(key string, val any) any {
	switch ruleFor(key) {
	case drop:
		return redacted
	case digest:
		return r.digest(val)
	}
	switch v := val.(type) {
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, inner := range v {
			m[k] = r.value(k, inner)
		}
		return m
	case []any:
		s := make([]any, len(v))
		for i, inner := range v {
			s[i] = r.value("", inner)
		}
		return s
	case string:
		if looksLikeJWT(v) {
			return redacted
		}
	}
	return val
}

func (r *redactor) digest(val any) string {
	raw := strings.ToLower(stringify(val))
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func ruleFor(key string) action {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return keep
	}
	for _, rule := range keyRules {
		if strings.Contains(key, rule.fragment) {
			return rule.act
		}
	}
	return keep
}

func sanitizeValue(key string, val any) any {
	defaultRedactor.load()
	return defaultRedactor.value(key, val)
}

func hashValue(val any) string {
	defaultRedactor.load()
	return defaultRedactor.digest(val)
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
