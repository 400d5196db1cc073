package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/standup/internal/standup/domain"
)

type configsRepo struct {
	db dbtx
}

const configColumns = `id, org_id, team_id, name, questions, weekdays, time_local, timezone,
	reminder_minutes, response_window_hours, channel_id, active, created_at, updated_at`

func (r *configsRepo) GetConfigByID(ctx context.Context, id string) (domain.StandupConfig, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+configColumns+` FROM standup_configs WHERE id = ?`, id)
	return scanConfig(row)
}

func (r *configsRepo) ListActiveConfigs(ctx context.Context) ([]domain.StandupConfig, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+configColumns+` FROM standup_configs WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []domain.StandupConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

func (r *configsRepo) CreateConfig(ctx context.Context, c domain.StandupConfig) error {
	questions, err := encodeQuestions(c.Questions)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO standup_configs (
			id, org_id, team_id, name, questions, weekdays, time_local, timezone,
			reminder_minutes, response_window_hours, channel_id, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OrgID, c.TeamID, c.Name, questions, encodeWeekdays(c.Weekdays),
		c.TimeLocal, c.Timezone, c.ReminderMinutes, c.ResponseWindowHours,
		c.ChannelID, c.Active, c.CreatedAt, c.UpdatedAt,
	)
	return mapConflict(err)
}

func (r *configsRepo) AddParticipant(ctx context.Context, configID, memberID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO config_participants (config_id, member_id) VALUES (?, ?)`,
		configID, memberID)
	return mapConflict(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfig(row rowScanner) (domain.StandupConfig, error) {
	var (
		c         domain.StandupConfig
		questions string
		weekdays  string
	)

	err := row.Scan(
		&c.ID, &c.OrgID, &c.TeamID, &c.Name, &questions, &weekdays,
		&c.TimeLocal, &c.Timezone, &c.ReminderMinutes, &c.ResponseWindowHours,
		&c.ChannelID, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.StandupConfig{}, mapNotFound(err)
	}

	if c.Questions, err = decodeQuestions(questions); err != nil {
		return domain.StandupConfig{}, err
	}
	c.Weekdays = decodeWeekdays(weekdays)

	return c, nil
}
