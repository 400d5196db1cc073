package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/standup/internal/standup/domain"
	"github.com/aussiebroadwan/standup/internal/standup/store"
	"github.com/aussiebroadwan/standup/pkg/idx"
	"github.com/aussiebroadwan/standup/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTokenService(st store.Store, now time.Time) *TokenService {
	return &TokenService{
		Store:   st,
		Signer:  jwtx.NewHS256([]byte("test-secret"), "standup-test"),
		TTL:     48 * time.Hour,
		BaseURL: "https://standup.example.com",
		Issuer:  "standup-test",
		Now:     fixedClock(now),
	}
}

func TestTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	cfg, members := seedTeam(t, st, 1)
	inst := seedInstance(t, st, cfg, mondayNineNY)
	member := members[0]

	svc := newTokenService(st, mondayNineNY.Add(time.Hour))

	token, link, err := svc.Issue(ctx, inst.ID, member.ID, member.PlatformUserID, cfg.OrgID)
	require.NoError(t, err)
	require.Equal(t, "https://standup.example.com/v1/submissions?token="+token, link)

	claims, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, inst.ID, claims.InstanceID)
	require.Equal(t, member.ID, claims.MemberID)
	require.Equal(t, member.PlatformUserID, claims.PlatformUserID)
	require.Equal(t, cfg.OrgID, claims.OrgID)
}

func TestTokenValidationIsOpaque(t *testing.T) {
	// Every rejection, whatever its internal reason, surfaces as the same
	// ErrInvalidToken so callers can't probe which check failed.
	ctx := context.Background()

	t.Run("tampered signature", func(t *testing.T) {
		st := newTestStore(t)
		cfg, members := seedTeam(t, st, 1)
		inst := seedInstance(t, st, cfg, mondayNineNY)

		svc := newTokenService(st, mondayNineNY.Add(time.Hour))
		other := jwtx.NewHS256([]byte("other-secret"), "standup-test")
		forged, err := other.Sign(jwtx.NewSubmissionClaims(
			inst.ID, members[0].ID, members[0].PlatformUserID, cfg.OrgID,
			time.Hour, "standup-test", mondayNineNY,
		))
		require.NoError(t, err)

		_, err = svc.Validate(ctx, forged)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong org scope", func(t *testing.T) {
		st := newTestStore(t)
		cfg, members := seedTeam(t, st, 1)
		inst := seedInstance(t, st, cfg, mondayNineNY)

		svc := newTokenService(st, mondayNineNY.Add(time.Hour))
		token, _, err := svc.Issue(ctx, inst.ID, members[0].ID, members[0].PlatformUserID, "org-other")
		require.NoError(t, err)

		_, err = svc.Validate(ctx, token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("non-participant member", func(t *testing.T) {
		st := newTestStore(t)
		cfg, _ := seedTeam(t, st, 1)
		inst := seedInstance(t, st, cfg, mondayNineNY)

		outsider := domain.TeamMember{
			ID:             idx.New().String(),
			OrgID:          cfg.OrgID,
			PlatformUserID: "UZZZ",
			DisplayName:    "Outsider",
			Active:         true,
		}
		require.NoError(t, st.Members().CreateMember(ctx, outsider))

		svc := newTokenService(st, mondayNineNY.Add(time.Hour))
		token, _, err := svc.Issue(ctx, inst.ID, outsider.ID, outsider.PlatformUserID, cfg.OrgID)
		require.NoError(t, err)

		_, err = svc.Validate(ctx, token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("terminal instance", func(t *testing.T) {
		st := newTestStore(t)
		cfg, members := seedTeam(t, st, 1)
		inst := seedInstance(t, st, cfg, mondayNineNY)

		svc := newTokenService(st, mondayNineNY.Add(time.Hour))
		token, _, err := svc.Issue(ctx, inst.ID, members[0].ID, members[0].PlatformUserID, cfg.OrgID)
		require.NoError(t, err)

		require.NoError(t, st.Instances().TransitionState(ctx, inst.ID, domain.StateCollecting, domain.StateCancelled))

		_, err = svc.Validate(ctx, token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("window closed before token expiry", func(t *testing.T) {
		st := newTestStore(t)
		cfg, members := seedTeam(t, st, 1)
		inst := seedInstance(t, st, cfg, mondayNineNY)

		issue := newTokenService(st, mondayNineNY)
		token, _, err := issue.Issue(ctx, inst.ID, members[0].ID, members[0].PlatformUserID, cfg.OrgID)
		require.NoError(t, err)

		// 25h later the 48h token is still cryptographically live, but the
		// 24h response window has closed.
		late := newTokenService(st, mondayNineNY.Add(25*time.Hour))
		_, err = late.Validate(ctx, token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		st := newTestStore(t)
		svc := newTokenService(st, mondayNineNY)

		_, err := svc.Validate(ctx, "not-a-token")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenValidAtWindowEdge(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	cfg, members := seedTeam(t, st, 1)
	inst := seedInstance(t, st, cfg, mondayNineNY)

	issue := newTokenService(st, mondayNineNY)
	token, _, err := issue.Issue(ctx, inst.ID, members[0].ID, members[0].PlatformUserID, cfg.OrgID)
	require.NoError(t, err)

	justBefore := newTokenService(st, mondayNineNY.Add(24*time.Hour-time.Second))
	_, err = justBefore.Validate(ctx, token)
	require.NoError(t, err)

	atDeadline := newTokenService(st, mondayNineNY.Add(24*time.Hour))
	_, err = atDeadline.Validate(ctx, token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
