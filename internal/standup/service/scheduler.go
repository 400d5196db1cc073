package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/standup/internal/standup/domain"
	"github.com/aussiebroadwan/standup/internal/standup/store"
	"github.com/aussiebroadwan/standup/pkg/idx"
)

// SchedulerService materializes due standup instances from active configs.
// It is safe to run on overlapping ticks and from multiple replicas: the
// insert-if-absent on (config, target date) is the only exclusion needed.
type SchedulerService struct {
	Store     store.Store
	Tokens    *TokenService
	Messenger Messenger
	Logger    *slog.Logger

	// Now is swappable for tests.
	Now func() time.Time
}

func (s *SchedulerService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Tick processes every active config once. A failure for one config is
// logged and never aborts the remaining configs.
func (s *SchedulerService) Tick(ctx context.Context) {
	configs, err := s.Store.Configs().ListActiveConfigs(ctx)
	if err != nil {
		s.Logger.Error("scheduler: failed to list active configs", slog.Any("error", err))
		return
	}

	now := s.now()
	for _, cfg := range configs {
		if err := s.processConfig(ctx, cfg, now); err != nil {
			s.Logger.Error("scheduler: config failed",
				slog.String("config_id", cfg.ID),
				slog.Any("error", err),
			)
		}
	}
}

func (s *SchedulerService) processConfig(ctx context.Context, cfg domain.StandupConfig, now time.Time) error {
	targetDate, due, err := cfg.DueAt(now)
	if err != nil {
		return fmt.Errorf("evaluate schedule: %w", err)
	}
	if !due {
		return nil
	}

	inst := domain.StandupInstance{
		ID:         idx.New().String(),
		ConfigID:   cfg.ID,
		OrgID:      cfg.OrgID,
		TargetDate: targetDate,
		Snapshot:   cfg.Snapshot(),
		State:      domain.StateCollecting,
		CreatedAt:  now.UTC(),
	}

	// Insert-if-absent: a concurrent tick or replica that already created
	// today's instance makes this a no-op, never a second instance.
	if err := s.Store.Instances().CreateInstance(ctx, inst); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			s.Logger.Debug("scheduler: instance already exists",
				slog.String("config_id", cfg.ID),
				slog.String("target_date", targetDate),
			)
			return nil
		}
		return fmt.Errorf("create instance: %w", err)
	}

	s.Logger.Info("scheduler: instance created",
		slog.String("instance_id", inst.ID),
		slog.String("config_id", cfg.ID),
		slog.String("target_date", targetDate),
	)

	participants, err := s.Store.Members().ListActiveParticipants(ctx, cfg.ID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}

	s.announce(ctx, cfg, inst, len(participants))
	s.deliverLinks(ctx, inst, participants)

	return nil
}

// announce posts the kickoff message to the configured channel. Best-effort.
func (s *SchedulerService) announce(ctx context.Context, cfg domain.StandupConfig, inst domain.StandupInstance, participantCount int) {
	if inst.Snapshot.ChannelID == "" {
		return
	}

	text := fmt.Sprintf("Standup *%s* is open for %s: %d questions, %d participants. Check your DMs for your submission link.",
		cfg.Name, inst.TargetDate, len(inst.Snapshot.Questions), participantCount)

	if err := s.Messenger.PostToChannel(ctx, inst.Snapshot.ChannelID, text); err != nil {
		s.Logger.Warn("scheduler: announcement failed",
			slog.String("instance_id", inst.ID),
			slog.String("channel_id", inst.Snapshot.ChannelID),
			slog.Any("error", err),
		)
	}
}

// deliverLinks mints one magic token per participant and DMs the submission
// link. Each delivery fails independently.
func (s *SchedulerService) deliverLinks(ctx context.Context, inst domain.StandupInstance, participants []domain.TeamMember) {
	deadline := inst.Deadline()

	for _, member := range participants {
		_, link, err := s.Tokens.Issue(ctx, inst.ID, member.ID, member.PlatformUserID, inst.OrgID)
		if err != nil {
			s.Logger.Error("scheduler: token mint failed",
				slog.String("instance_id", inst.ID),
				slog.String("member_id", member.ID),
				slog.Any("error", err),
			)
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "It's standup time for %s!\n", inst.TargetDate)
		for i, q := range inst.Snapshot.Questions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q)
		}
		fmt.Fprintf(&b, "Submit your answers before %s: %s", deadline.Format(time.RFC1123), link)

		if err := s.Messenger.PostDirect(ctx, member.PlatformUserID, b.String()); err != nil {
			s.Logger.Warn("scheduler: link delivery failed",
				slog.String("instance_id", inst.ID),
				slog.String("member_id", member.ID),
				slog.Any("error", err),
			)
		}
	}
}
