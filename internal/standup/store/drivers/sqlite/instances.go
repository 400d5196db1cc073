package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/standup/internal/standup/domain"
	"github.com/aussiebroadwan/standup/internal/standup/store"
)

type instancesRepo struct {
	db dbtx
}

const instanceColumns = `id, config_id, org_id, target_date, snapshot, state, reminder_sent, created_at`

func (r *instancesRepo) CreateInstance(ctx context.Context, inst domain.StandupInstance) error {
	snapshot, err := encodeSnapshot(inst.Snapshot)
	if err != nil {
		return err
	}

	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO standup_instances (
			id, config_id, org_id, target_date, snapshot, state, reminder_sent, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.ID, inst.ConfigID, inst.OrgID, inst.TargetDate, snapshot,
		string(inst.State), inst.ReminderSent, inst.CreatedAt,
	)
	return mapConflict(err)
}

func (r *instancesRepo) GetInstance(ctx context.Context, id, orgID string) (domain.StandupInstance, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+instanceColumns+` FROM standup_instances WHERE id = ? AND org_id = ?`,
		id, orgID)
	return scanInstance(row)
}

func (r *instancesRepo) GetInstanceByConfigAndDate(ctx context.Context, configID, targetDate string) (domain.StandupInstance, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+instanceColumns+` FROM standup_instances WHERE config_id = ? AND target_date = ?`,
		configID, targetDate)
	return scanInstance(row)
}

func (r *instancesRepo) ListCollecting(ctx context.Context) ([]domain.StandupInstance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+instanceColumns+` FROM standup_instances WHERE state = ? ORDER BY created_at`,
		string(domain.StateCollecting))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []domain.StandupInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

// MarkReminderSent claims the reminder for this instance. The WHERE clause
// only matches a collecting row whose flag is still unset, so exactly one
// job replica wins the claim.
func (r *instancesRepo) MarkReminderSent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE standup_instances SET reminder_sent = 1
		WHERE id = ? AND state = ? AND reminder_sent = 0`,
		id, string(domain.StateCollecting))
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrStaleState
	}
	return nil
}

// TransitionState performs the state-conditioned update that guards every
// terminal transition. Zero rows affected means some other worker already
// moved the instance, or it was never in `from`.
func (r *instancesRepo) TransitionState(ctx context.Context, id string, from, to domain.InstanceState) error {
	if !domain.CanTransition(from, to) {
		return store.ErrStaleState
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE standup_instances SET state = ? WHERE id = ? AND state = ?`,
		string(to), id, string(from))
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrStaleState
	}
	return nil
}

func scanInstance(row rowScanner) (domain.StandupInstance, error) {
	var (
		inst     domain.StandupInstance
		snapshot string
		state    string
	)

	err := row.Scan(
		&inst.ID, &inst.ConfigID, &inst.OrgID, &inst.TargetDate,
		&snapshot, &state, &inst.ReminderSent, &inst.CreatedAt,
	)
	if err != nil {
		return domain.StandupInstance{}, mapNotFound(err)
	}

	if inst.Snapshot, err = decodeSnapshot(snapshot); err != nil {
		return domain.StandupInstance{}, err
	}
	inst.State = domain.InstanceState(state)

	return inst, nil
}
