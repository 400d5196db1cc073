package http

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/standup/internal/standup/dedup"
	"github.com/aussiebroadwan/standup/internal/standup/domain"
	"github.com/aussiebroadwan/standup/internal/standup/service"
	"github.com/aussiebroadwan/standup/internal/standup/store"
	"github.com/aussiebroadwan/standup/internal/standup/store/drivers/sqlite"
	"github.com/aussiebroadwan/standup/pkg/idx"
	"github.com/aussiebroadwan/standup/pkg/jwtx"
	"github.com/aussiebroadwan/standup/pkg/signx"
)

const testSigningSecret = "test-signing-secret"

// mondayNineNY is Monday 2025-03-10 09:00 in America/New_York (EDT, UTC-4).
var mondayNineNY = time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)

type testEnv struct {
	Router   *Router
	Server   *httptest.Server
	Store    store.Store
	Verifier *signx.Verifier
	Tokens   *service.TokenService
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	dd := dedup.New(rdb, 0)

	verifier := signx.NewVerifier(testSigningSecret, 0)
	logger := slog.New(slog.DiscardHandler)

	tokens := &service.TokenService{
		Store:   st,
		Signer:  jwtx.NewHS256([]byte("test-token-secret"), "standup-test"),
		TTL:     24 * time.Hour,
		BaseURL: "https://standup.example.com",
		Issuer:  "standup-test",
		Now:     func() time.Time { return now },
	}

	router := NewRouter(verifier, "test", st, dd, logger)
	router.IngestService = &service.IngestService{
		Dedup: dd,
		Links: &service.LinkService{Store: st},
	}
	router.TokenService = tokens
	router.AnswerService = &service.AnswerService{
		Store: st,
		Now:   func() time.Time { return now },
	}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{
		Router:   router,
		Server:   srv,
		Store:    st,
		Verifier: verifier,
		Tokens:   tokens,
	}
}

// signHeaders returns the signature headers a genuine sender would attach.
func (e *testEnv) signHeaders(body []byte) (signature, timestamp string) {
	timestamp = strconv.FormatInt(time.Now().Unix(), 10)
	return e.Verifier.Sign(timestamp, body), timestamp
}

func (e *testEnv) seedStandup(t *testing.T, t0 time.Time) (domain.StandupConfig, domain.TeamMember, domain.StandupInstance) {
	t.Helper()
	ctx := context.Background()

	cfg := domain.StandupConfig{
		ID:        idx.New().String(),
		OrgID:     "org-1",
		TeamID:    "team-1",
		Name:      "daily",
		Questions: []string{"Yesterday?", "Today?", "Blockers?"},
		Weekdays:  []time.Weekday{time.Monday},
		TimeLocal: "09:00",
		Timezone:  "America/New_York",

		ReminderMinutes:     60,
		ResponseWindowHours: 24,

		ChannelID: "C123",
		Active:    true,
	}
	require.NoError(t, e.Store.Configs().CreateConfig(ctx, cfg))

	member := domain.TeamMember{
		ID:             idx.New().String(),
		OrgID:          cfg.OrgID,
		PlatformUserID: "UA00",
		DisplayName:    "Member A",
		Active:         true,
	}
	require.NoError(t, e.Store.Members().CreateMember(ctx, member))
	require.NoError(t, e.Store.Configs().AddParticipant(ctx, cfg.ID, member.ID))

	inst := domain.StandupInstance{
		ID:         idx.New().String(),
		ConfigID:   cfg.ID,
		OrgID:      cfg.OrgID,
		TargetDate: t0.Format(time.DateOnly),
		Snapshot:   cfg.Snapshot(),
		State:      domain.StateCollecting,
		CreatedAt:  t0,
	}
	require.NoError(t, e.Store.Instances().CreateInstance(ctx, inst))

	return cfg, member, inst
}
