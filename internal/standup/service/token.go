package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/standup/internal/standup/store"
	"github.com/aussiebroadwan/standup/pkg/jwtx"
	"github.com/aussiebroadwan/standup/pkg/slogx"
)

// TokenService mints and validates the magic tokens that stand in for a
// login session during response submission.
type TokenService struct {
	Store  store.Store
	Signer *jwtx.HS256

	// TTL bounds the token's own cryptographic lifetime. The effective
	// cut-off is always the instance's response window, re-derived at
	// validation time.
	TTL time.Duration

	// BaseURL is the public origin the submission links point at.
	BaseURL string

	// Issuer is embedded in and required of every token.
	Issuer string

	// Now is swappable for tests.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue mints a signed submission token for one member of one instance and
// returns it together with the canonical submission link.
func (s *TokenService) Issue(
	ctx context.Context,
	instanceID, memberID, platformUserID, orgID string,
) (token, link string, err error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultMagicTokenTTL
	}

	claims := jwtx.NewSubmissionClaims(
		instanceID, memberID, platformUserID, orgID,
		ttl, s.Issuer, s.now(),
	)

	token, err = s.Signer.Sign(claims)
	if err != nil {
		return "", "", err
	}

	return token, s.BaseURL + "/v1/submissions?token=" + token, nil
}

// Validate checks a raw token and returns its claims only when every check
// passes. All failure modes collapse into the single ErrInvalidToken so an
// unauthenticated caller cannot learn which check failed; the specific
// reason is logged at debug level for operators.
//
// Checks, in order: signature and expiry; instance fetched scoped to the
// claimed org; member still an active participant; instance still
// collecting; now within the response window derived from the instance's
// own snapshot.
func (s *TokenService) Validate(ctx context.Context, raw string) (jwtx.Claims, error) {
	log := slogx.FromContext(ctx)

	claims, err := s.Signer.Verify(raw)
	if err != nil {
		log.Debug("magic token rejected", slog.String("reason", "signature"), slog.Any("error", err))
		return jwtx.Claims{}, ErrInvalidToken
	}

	inst, err := s.Store.Instances().GetInstance(ctx, claims.InstanceID, claims.OrgID)
	if err != nil {
		log.Debug("magic token rejected", slog.String("reason", "instance"), slog.Any("error", err))
		return jwtx.Claims{}, ErrInvalidToken
	}

	active, err := s.Store.Members().IsActiveParticipant(ctx, inst.ConfigID, claims.MemberID)
	if err != nil || !active {
		log.Debug("magic token rejected", slog.String("reason", "membership"))
		return jwtx.Claims{}, ErrInvalidToken
	}

	if inst.State.Terminal() {
		log.Debug("magic token rejected", slog.String("reason", "state"))
		return jwtx.Claims{}, ErrInvalidToken
	}

	if !inst.InResponseWindow(s.now()) {
		log.Debug("magic token rejected", slog.String("reason", "window"))
		return jwtx.Claims{}, ErrInvalidToken
	}

	return claims, nil
}

// HasExistingResponses reports whether the member already has answers for
// the instance, letting callers short-circuit repeated submissions before
// touching answer collection.
func (s *TokenService) HasExistingResponses(ctx context.Context, instanceID, memberID string) (bool, error) {
	return s.Store.Answers().HasAnswers(ctx, instanceID, memberID)
}
