package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/standup/internal/standup/domain"
	"github.com/aussiebroadwan/standup/internal/standup/store"
	"github.com/aussiebroadwan/standup/internal/standup/store/drivers/sqlite"
	"github.com/aussiebroadwan/standup/pkg/idx"
	"github.com/stretchr/testify/require"
)

// mondayNineNY is Monday 2025-03-10 09:00 in America/New_York (EDT, UTC-4).
var mondayNineNY = time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeMessenger records deliveries and can be told to fail.
type fakeMessenger struct {
	mu sync.Mutex

	channelPosts []recordedPost
	directPosts  []recordedPost

	failChannel bool
	failDirect  bool
}

type recordedPost struct {
	Target string
	Text   string
}

func (m *fakeMessenger) PostToChannel(_ context.Context, channelID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failChannel {
		return errTestDelivery
	}
	m.channelPosts = append(m.channelPosts, recordedPost{channelID, text})
	return nil
}

func (m *fakeMessenger) PostDirect(_ context.Context, platformUserID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDirect {
		return errTestDelivery
	}
	m.directPosts = append(m.directPosts, recordedPost{platformUserID, text})
	return nil
}

var errTestDelivery = &deliveryError{}

type deliveryError struct{}

func (*deliveryError) Error() string { return "delivery failed" }

// seedTeam creates a config with three questions and the given number of
// active members, all included in the config's standups.
func seedTeam(t *testing.T, st store.Store, memberCount int) (domain.StandupConfig, []domain.TeamMember) {
	t.Helper()
	ctx := context.Background()

	cfg := domain.StandupConfig{
		ID:        idx.New().String(),
		OrgID:     "org-1",
		TeamID:    "team-1",
		Name:      "daily",
		Questions: []string{"What did you do yesterday?", "What will you do today?", "Any blockers?"},
		Weekdays:  []time.Weekday{time.Monday, time.Wednesday, time.Friday},
		TimeLocal: "09:00",
		Timezone:  "America/New_York",

		ReminderMinutes:     60,
		ResponseWindowHours: 24,

		ChannelID: "C123",
		Active:    true,
	}
	require.NoError(t, st.Configs().CreateConfig(ctx, cfg))

	members := make([]domain.TeamMember, 0, memberCount)
	for i := 0; i < memberCount; i++ {
		m := domain.TeamMember{
			ID:             idx.New().String(),
			OrgID:          cfg.OrgID,
			PlatformUserID: "U" + string(rune('A'+i)) + "00",
			DisplayName:    "Member " + string(rune('A'+i)),
			Active:         true,
		}
		require.NoError(t, st.Members().CreateMember(ctx, m))
		require.NoError(t, st.Configs().AddParticipant(ctx, cfg.ID, m.ID))
		members = append(members, m)
	}

	return cfg, members
}

// seedInstance inserts a collecting instance for the config created at t0.
func seedInstance(t *testing.T, st store.Store, cfg domain.StandupConfig, t0 time.Time) domain.StandupInstance {
	t.Helper()

	inst := domain.StandupInstance{
		ID:         idx.New().String(),
		ConfigID:   cfg.ID,
		OrgID:      cfg.OrgID,
		TargetDate: t0.Format(time.DateOnly),
		Snapshot:   cfg.Snapshot(),
		State:      domain.StateCollecting,
		CreatedAt:  t0,
	}
	require.NoError(t, st.Instances().CreateInstance(context.Background(), inst))
	return inst
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
