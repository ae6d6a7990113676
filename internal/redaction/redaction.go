// Package redaction strips or masks sensitive fields from free-form event
// metadata before it is allowed to reach storage. Redact is a total function:
// it never fails, only transforms.
package redaction

import (
	"regexp"
	"strings"
)

// Sentinel replaces free-text values that match the sensitive-term pattern.
// All-or-nothing replacement: partial redaction of free text is unreliable.
const Sentinel = "[REDACTED]"

// FreeTextField is the one named free-text field subject to pattern matching
// (a captured window/application title). Top-level denylisted keys are dropped
// for every field; only this field gets content inspection.
//
// Known limitation: nested structures and array values are not inspected.
// Extending the filter to recurse must preserve idempotence and totality.
const FreeTextField = "window_title"

// deniedKeys is the fixed key denylist, matched case-insensitively.
var deniedKeys = map[string]struct{}{
	"password":    {},
	"token":       {},
	"secret":      {},
	"api_key":     {},
	"credit_card": {},
	"ssn":         {},
	"key":         {},
}

// sensitiveTerms flags free text that likely embeds a credential or identifier.
var sensitiveTerms = regexp.MustCompile(`(?i)(password|secret|token|key|credit|ssn)`)

// Redact returns a copy of metadata with denylisted keys dropped and the
// free-text field replaced wholesale when it looks sensitive. The input map is
// never modified; the raw input must never be persisted or logged by callers.
func Redact(metadata map[string]any) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(metadata))
	for key, value := range metadata {
		if _, denied := deniedKeys[strings.ToLower(key)]; denied {
			continue
		}
		out[key] = value
	}

	if raw, ok := out[FreeTextField]; ok {
		if text, ok := raw.(string); ok && sensitiveTerms.MatchString(text) {
			out[FreeTextField] = Sentinel
		}
	}

	return out
}
