package redaction

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type RedactionSuite struct {
	suite.Suite
}

func TestRedactionSuite(t *testing.T) {
	suite.Run(t, new(RedactionSuite))
}

func (s *RedactionSuite) TestDropsDenylistedKeys() {
	out := Redact(map[string]any{
		"password":    "hunter2",
		"api_key":     "sk-123",
		"credit_card": "4111111111111111",
		"duration":    42,
	})

	s.NotContains(out, "password")
	s.NotContains(out, "api_key")
	s.NotContains(out, "credit_card")
	s.Equal(42, out["duration"])
}

func (s *RedactionSuite) TestDenylistIsCaseInsensitive() {
	for _, key := range []string{"PASSWORD", "Token", "SSN", "Api_Key", "KEY", "Secret"} {
		out := Redact(map[string]any{key: "value"})
		s.NotContains(out, key, "key %q should be dropped", key)
	}
}

func (s *RedactionSuite) TestFreeTextReplacedWholesale() {
	out := Redact(map[string]any{
		FreeTextField: "my password is x",
	})
	s.Equal(Sentinel, out[FreeTextField])
}

func (s *RedactionSuite) TestFreeTextPatternIsCaseInsensitive() {
	for _, title := range []string{"SECRET plans.docx", "Credit Report", "ssn lookup", "API Token manager"} {
		out := Redact(map[string]any{FreeTextField: title})
		s.Equal(Sentinel, out[FreeTextField], "title %q should be replaced", title)
	}
}

func (s *RedactionSuite) TestBenignFreeTextUntouched() {
	out := Redact(map[string]any{FreeTextField: "Quarterly Report - Q3"})
	s.Equal("Quarterly Report - Q3", out[FreeTextField])
}

func (s *RedactionSuite) TestNonStringFreeTextUntouched() {
	out := Redact(map[string]any{FreeTextField: 1234})
	s.Equal(1234, out[FreeTextField])
}

func (s *RedactionSuite) TestTotalOnNilAndEmpty() {
	s.NotNil(Redact(nil))
	s.Empty(Redact(nil))
	s.Empty(Redact(map[string]any{}))
}

func (s *RedactionSuite) TestInputNotMutated() {
	in := map[string]any{
		"password":    "hunter2",
		FreeTextField: "my password is x",
	}
	_ = Redact(in)
	s.Equal("hunter2", in["password"])
	s.Equal("my password is x", in[FreeTextField])
}

func (s *RedactionSuite) TestIdempotent() {
	inputs := []map[string]any{
		nil,
		{},
		{"password": "x", "duration": 1},
		{FreeTextField: "my password is x"},
		{FreeTextField: "plain title", "SSN": "000-00-0000"},
		{FreeTextField: Sentinel},
	}
	for _, in := range inputs {
		once := Redact(in)
		twice := Redact(once)
		s.Equal(once, twice)
	}
}

func (s *RedactionSuite) TestNestedValuesAreNotInspected() {
	// Documented limitation: only top-level keys and the named free-text field.
	out := Redact(map[string]any{
		"extra": map[string]any{"password": "nested"},
	})
	nested := out["extra"].(map[string]any)
	s.Equal("nested", nested["password"])
}
