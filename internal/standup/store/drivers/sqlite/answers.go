package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/standup/internal/standup/domain"
)

type answersRepo struct {
	db dbtx
}

// InsertAnswers inserts the batch row by row. Callers run this inside
// WithTx so a uniqueness conflict on any row aborts the whole batch.
func (r *answersRepo) InsertAnswers(ctx context.Context, answers []domain.Answer) error {
	for _, a := range answers {
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}

		_, err := r.db.ExecContext(ctx, `
			INSERT INTO answers (id, instance_id, member_id, question_idx, text, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, a.InstanceID, a.MemberID, a.QuestionIndex, a.Text, a.CreatedAt,
		)
		if err != nil {
			return mapConflict(err)
		}
	}
	return nil
}

func (r *answersRepo) HasAnswers(ctx context.Context, instanceID, memberID string) (bool, error) {
	count, err := r.CountByMember(ctx, instanceID, memberID)
	return count > 0, err
}

func (r *answersRepo) CountByMember(ctx context.Context, instanceID, memberID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM answers WHERE instance_id = ? AND member_id = ?`,
		instanceID, memberID).Scan(&count)
	return count, err
}

func (r *answersRepo) CountDistinctResponders(ctx context.Context, instanceID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT member_id) FROM answers WHERE instance_id = ?`,
		instanceID).Scan(&count)
	return count, err
}

func (r *answersRepo) ListByInstance(ctx context.Context, instanceID string) ([]domain.Answer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, instance_id, member_id, question_idx, text, created_at
		FROM answers WHERE instance_id = ?
		ORDER BY member_id, question_idx`,
		instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.InstanceID, &a.MemberID, &a.QuestionIndex, &a.Text, &a.CreatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
