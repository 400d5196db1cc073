package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/standup/internal/standup/domain"
	"github.com/aussiebroadwan/standup/internal/standup/store"
	"github.com/aussiebroadwan/standup/pkg/idx"
	"github.com/aussiebroadwan/standup/pkg/slogx"
)

// AnswerInput is one (question index, text) pair of a submission.
type AnswerInput struct {
	QuestionIndex int
	Text          string
}

// AnswerService records member answers against an instance with
// exactly-once-per-question semantics and drives early completion.
type AnswerService struct {
	Store store.Store

	Now func() time.Time
}

func (s *AnswerService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SubmitFullResponse records a member's complete set of answers in one
// shot. Partial or incremental answering is not supported: a member who
// already has any answers for the instance is rejected, and a uniqueness
// conflict on any row aborts the whole batch.
func (s *AnswerService) SubmitFullResponse(
	ctx context.Context,
	instanceID, memberID, orgID string,
	answers []AnswerInput,
) (int, error) {
	log := slogx.FromContext(ctx)

	if len(answers) == 0 {
		return 0, ErrValidation
	}

	// 1. Re-validate the instance independently of token validation.
	inst, err := s.Store.Instances().GetInstance(ctx, instanceID, orgID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if inst.State != domain.StateCollecting || !inst.InResponseWindow(s.now()) {
		return 0, ErrWindowClosed
	}

	// 2. Range-check every index against the frozen question list.
	// Any out-of-range index rejects the entire submission.
	seen := make(map[int]struct{}, len(answers))
	for _, a := range answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= len(inst.Snapshot.Questions) {
			return 0, ErrBadQuestionIndex
		}
		if _, dup := seen[a.QuestionIndex]; dup {
			return 0, ErrValidation
		}
		seen[a.QuestionIndex] = struct{}{}
	}

	// 3. One-shot semantics: any existing answer rejects the resubmission.
	existing, err := s.Store.Answers().HasAnswers(ctx, instanceID, memberID)
	if err != nil {
		return 0, err
	}
	if existing {
		return 0, ErrAlreadySubmitted
	}

	// 4. Insert the batch atomically. A concurrent submission that slipped
	// past the check above loses on the uniqueness constraint instead of
	// overwriting anything.
	now := s.now().UTC()
	rows := make([]domain.Answer, 0, len(answers))
	for _, a := range answers {
		rows = append(rows, domain.Answer{
			ID:            idx.New().String(),
			InstanceID:    instanceID,
			MemberID:      memberID,
			QuestionIndex: a.QuestionIndex,
			Text:          a.Text,
			CreatedAt:     now,
		})
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Answers().InsertAnswers(ctx, rows)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return 0, ErrAlreadySubmitted
		}
		return 0, err
	}

	log.Info("answers recorded",
		slog.String("instance_id", instanceID),
		slog.String("member_id", memberID),
		slog.Int("count", len(rows)),
	)

	// 5. Eagerly complete when every participant has a full set, so the
	// digest doesn't have to wait for the deadline. Best-effort: losing
	// the conditional update means someone else already moved the state.
	s.maybeComplete(ctx, inst)

	return len(rows), nil
}

func (s *AnswerService) maybeComplete(ctx context.Context, inst domain.StandupInstance) {
	log := slogx.FromContext(ctx)

	participants, err := s.Store.Members().ListActiveParticipants(ctx, inst.ConfigID)
	if err != nil || len(participants) == 0 {
		return
	}

	want := len(inst.Snapshot.Questions)
	for _, member := range participants {
		count, err := s.Store.Answers().CountByMember(ctx, inst.ID, member.ID)
		if err != nil || count < want {
			return
		}
	}

	err = s.Store.Instances().TransitionState(ctx, inst.ID, domain.StateCollecting, domain.StateCompleted)
	if err != nil && !errors.Is(err, store.ErrStaleState) {
		log.Warn("early completion failed",
			slog.String("instance_id", inst.ID),
			slog.Any("error", err),
		)
		return
	}
	if err == nil {
		log.Info("instance completed early",
			slog.String("instance_id", inst.ID),
		)
	}
}
