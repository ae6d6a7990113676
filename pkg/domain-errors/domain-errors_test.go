package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// Justification: These are core error primitives used at every trust boundary.
// Unit tests ensure invariants like "wrapped domain errors preserve original code"
// and "errors.Is matches by code" are maintained.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "toggle not found"}
		s.Equal("toggle not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeElevationRequired}
		s.Equal("elevation_required", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	s.Run("returns wrapped error", func() {
		inner := errors.New("database connection failed")
		err := &Error{Code: CodeStorage, Message: "store error", Err: inner}
		s.Equal(inner, err.Unwrap())
	})

	s.Run("returns nil when no wrapped error", func() {
		err := &Error{Code: CodeNotFound, Message: "not found"}
		s.Nil(err.Unwrap())
	})
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeElevationRequired, Message: "session expired"}
		err2 := &Error{Code: CodeElevationRequired, Message: "session missing"}
		s.True(err1.Is(err2))
	})

	s.Run("does not match different codes", func() {
		err1 := &Error{Code: CodeNotFound}
		err2 := &Error{Code: CodeAuditUnavailable}
		s.False(err1.Is(err2))
	})
}

func (s *DomainErrorsSuite) TestWrapPreservesCode() {
	inner := New(CodeElevationRequired, "elevated session expired")
	wrapped := Wrap(inner, CodeInternal, "mutation rejected")
	s.True(HasCode(wrapped, CodeElevationRequired))
	s.False(HasCode(wrapped, CodeInternal))
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.Run("matches direct domain error", func() {
		err := New(CodeValidation, "sampling_rate must be between 0 and 1")
		s.True(HasCode(err, CodeValidation))
	})

	s.Run("matches through fmt wrapping", func() {
		err := Wrap(errors.New("pq: connection reset"), CodeStorage, "save toggle")
		s.True(HasCode(err, CodeStorage))
	})

	s.Run("false for plain errors", func() {
		s.False(HasCode(errors.New("boom"), CodeInternal))
	})
}
