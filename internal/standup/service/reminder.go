package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/standup/internal/standup/domain"
	"github.com/aussiebroadwan/standup/internal/standup/store"
)

// ReminderService nudges non-responders inside the pre-deadline window.
// The reminder-sent flag on the instance is claimed with a conditional
// update before anything is sent, so overlapping ticks and extra replicas
// produce at most one reminder pass per instance.
type ReminderService struct {
	Store     store.Store
	Messenger Messenger
	Logger    *slog.Logger

	Now func() time.Time
}

func (s *ReminderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Tick scans collecting instances and reminds non-responders where due.
// Failures are isolated per instance and per member.
func (s *ReminderService) Tick(ctx context.Context) {
	instances, err := s.Store.Instances().ListCollecting(ctx)
	if err != nil {
		s.Logger.Error("reminder: failed to list instances", slog.Any("error", err))
		return
	}

	now := s.now()
	for _, inst := range instances {
		if err := s.processInstance(ctx, inst, now); err != nil {
			s.Logger.Error("reminder: instance failed",
				slog.String("instance_id", inst.ID),
				slog.Any("error", err),
			)
		}
	}
}

func (s *ReminderService) processInstance(ctx context.Context, inst domain.StandupInstance, now time.Time) error {
	if inst.ReminderSent || !inst.InReminderWindow(now) {
		return nil
	}

	// Claim the reminder before sending anything. Losing the claim means
	// another replica or an overlapping tick got here first.
	if err := s.Store.Instances().MarkReminderSent(ctx, inst.ID); err != nil {
		if errors.Is(err, store.ErrStaleState) {
			return nil
		}
		return fmt.Errorf("claim reminder: %w", err)
	}

	participants, err := s.Store.Members().ListActiveParticipants(ctx, inst.ConfigID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}

	remaining := inst.Deadline().Sub(now).Round(time.Minute)
	text := fmt.Sprintf("Reminder: your standup for %s closes in %s. Use the submission link from your earlier DM.",
		inst.TargetDate, remaining)

	var sent int
	for _, member := range participants {
		// Re-check answer status immediately before each send so a member
		// who answered after the claim isn't nagged.
		answered, err := s.Store.Answers().HasAnswers(ctx, inst.ID, member.ID)
		if err != nil {
			s.Logger.Warn("reminder: answer check failed",
				slog.String("instance_id", inst.ID),
				slog.String("member_id", member.ID),
				slog.Any("error", err),
			)
			continue
		}
		if answered {
			continue
		}

		if err := s.Messenger.PostDirect(ctx, member.PlatformUserID, text); err != nil {
			s.Logger.Warn("reminder: delivery failed",
				slog.String("instance_id", inst.ID),
				slog.String("member_id", member.ID),
				slog.Any("error", err),
			)
			continue
		}
		sent++
	}

	s.Logger.Info("reminder: sent",
		slog.String("instance_id", inst.ID),
		slog.Int("recipients", sent),
	)
	return nil
}
