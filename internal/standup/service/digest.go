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
)

// DigestService closes out instances whose response window has elapsed and
// publishes a summary. The terminal transition is the exactly-once guard:
// only the worker whose state-conditioned update succeeds publishes the
// digest, so a duplicate job run can neither double-post nor re-transition.
type DigestService struct {
	Store     store.Store
	Messenger Messenger
	Logger    *slog.Logger

	Now func() time.Time
}

func (s *DigestService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Tick closes every collecting instance whose deadline has passed.
// Failures are isolated per instance.
func (s *DigestService) Tick(ctx context.Context) {
	instances, err := s.Store.Instances().ListCollecting(ctx)
	if err != nil {
		s.Logger.Error("digest: failed to list instances", slog.Any("error", err))
		return
	}

	now := s.now()
	for _, inst := range instances {
		if inst.InResponseWindow(now) {
			continue
		}
		if err := s.closeInstance(ctx, inst); err != nil {
			s.Logger.Error("digest: instance failed",
				slog.String("instance_id", inst.ID),
				slog.Any("error", err),
			)
		}
	}
}

func (s *DigestService) closeInstance(ctx context.Context, inst domain.StandupInstance) error {
	responders, err := s.Store.Answers().CountDistinctResponders(ctx, inst.ID)
	if err != nil {
		return fmt.Errorf("count responders: %w", err)
	}

	to := domain.StateCompleted
	if responders == 0 {
		to = domain.StateCancelled
	}

	// Win the terminal transition or walk away.
	if err := s.Store.Instances().TransitionState(ctx, inst.ID, domain.StateCollecting, to); err != nil {
		if errors.Is(err, store.ErrStaleState) {
			return nil
		}
		return fmt.Errorf("transition: %w", err)
	}

	s.Logger.Info("digest: instance closed",
		slog.String("instance_id", inst.ID),
		slog.String("state", string(to)),
		slog.Int("responders", responders),
	)

	if inst.Snapshot.ChannelID == "" {
		return nil
	}

	text, err := s.compose(ctx, inst, to)
	if err != nil {
		return fmt.Errorf("compose digest: %w", err)
	}

	if err := s.Messenger.PostToChannel(ctx, inst.Snapshot.ChannelID, text); err != nil {
		// The instance is already terminal; the digest for it is lost
		// rather than retried, which keeps the transition exactly-once.
		s.Logger.Warn("digest: publish failed",
			slog.String("instance_id", inst.ID),
			slog.Any("error", err),
		)
	}
	return nil
}

// compose renders the digest: response rate and per-member status.
func (s *DigestService) compose(ctx context.Context, inst domain.StandupInstance, to domain.InstanceState) (string, error) {
	participants, err := s.Store.Members().ListActiveParticipants(ctx, inst.ConfigID)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	if to == domain.StateCancelled {
		fmt.Fprintf(&b, "Standup for %s closed with no responses.", inst.TargetDate)
		return b.String(), nil
	}

	var responded, missing []string
	for _, member := range participants {
		has, err := s.Store.Answers().HasAnswers(ctx, inst.ID, member.ID)
		if err != nil {
			return "", err
		}
		name := member.DisplayName
		if name == "" {
			name = member.PlatformUserID
		}
		if has {
			responded = append(responded, name)
		} else {
			missing = append(missing, name)
		}
	}

	fmt.Fprintf(&b, "Standup digest for %s: %d/%d responded.\n",
		inst.TargetDate, len(responded), len(participants))
	if len(responded) > 0 {
		fmt.Fprintf(&b, "Responded: %s\n", strings.Join(responded, ", "))
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "Missing: %s\n", strings.Join(missing, ", "))
	}

	return strings.TrimRight(b.String(), "\n"), nil
}
