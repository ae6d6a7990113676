package elevation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	domain "sentra/pkg/domain"
	dErrors "sentra/pkg/domain-errors"
)

type GateSuite struct {
	suite.Suite

	ctx    context.Context
	store  *InMemoryStore
	gate   *Gate
	issuer *Issuer
	userID domain.UserID
	now    time.Time
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.now = time.Now()
	s.userID = domain.UserID(uuid.New())
	s.gate = NewGate(s.store, WithGateClock(func() time.Time { return s.now }))
	s.issuer = NewIssuer(s.store,
		SecondFactorFunc(func(context.Context, domain.UserID, string) (bool, error) {
			return true, nil
		}),
		WithIssuerClock(func() time.Time { return s.now }),
	)
}

func (s *GateSuite) TestValidSessionPasses() {
	session, err := s.issuer.Elevate(s.ctx, s.userID, "123456")
	s.Require().NoError(err)
	s.NoError(s.gate.Check(s.ctx, s.userID, session.Token))
}

func (s *GateSuite) TestMissingTokenRejected() {
	err := s.gate.Check(s.ctx, s.userID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeElevationRequired))
}

func (s *GateSuite) TestUnknownTokenRejected() {
	err := s.gate.Check(s.ctx, s.userID, domain.SessionToken(uuid.NewString()))
	s.True(dErrors.HasCode(err, dErrors.CodeElevationRequired))
}

func (s *GateSuite) TestForeignSessionRejected() {
	session, err := s.issuer.Elevate(s.ctx, s.userID, "123456")
	s.Require().NoError(err)

	other := domain.UserID(uuid.New())
	err = s.gate.Check(s.ctx, other, session.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeElevationRequired))
}

func (s *GateSuite) TestExpiredSessionRejectedEvenWithValidToken() {
	session, err := s.issuer.Elevate(s.ctx, s.userID, "123456")
	s.Require().NoError(err)

	s.now = s.now.Add(DefaultTTL + time.Second)
	err = s.gate.Check(s.ctx, s.userID, session.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeElevationRequired))
}

func (s *GateSuite) TestSessionValidAtExactExpiry() {
	session, err := s.issuer.Elevate(s.ctx, s.userID, "123456")
	s.Require().NoError(err)

	s.now = session.ExpiresAt
	s.NoError(s.gate.Check(s.ctx, s.userID, session.Token))
}

func (s *GateSuite) TestRejectedSecondFactorIssuesNothing() {
	issuer := NewIssuer(s.store,
		SecondFactorFunc(func(context.Context, domain.UserID, string) (bool, error) {
			return false, nil
		}),
	)
	_, err := issuer.Elevate(s.ctx, s.userID, "000000")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *GateSuite) TestDeleteExpiredSweep() {
	session, err := s.issuer.Elevate(s.ctx, s.userID, "123456")
	s.Require().NoError(err)

	deleted, err := s.store.DeleteExpired(s.ctx, s.now.Add(DefaultTTL+time.Minute))
	s.Require().NoError(err)
	s.Equal(1, deleted)

	err = s.gate.Check(s.ctx, s.userID, session.Token)
	s.True(dErrors.HasCode(err, dErrors.CodeElevationRequired))
}
