package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/standup/internal/standup/domain"
)

type membersRepo struct {
	db dbtx
}

const memberColumns = `id, org_id, platform_user_id, display_name, active, created_at`

func (r *membersRepo) GetMemberByID(ctx context.Context, id string) (domain.TeamMember, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM team_members WHERE id = ?`, id)
	return scanMember(row)
}

func (r *membersRepo) CreateMember(ctx context.Context, m domain.TeamMember) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO team_members (id, org_id, platform_user_id, display_name, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.OrgID, m.PlatformUserID, m.DisplayName, m.Active, m.CreatedAt,
	)
	return mapConflict(err)
}

func (r *membersRepo) ListActiveParticipants(ctx context.Context, configID string) ([]domain.TeamMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.org_id, m.platform_user_id, m.display_name, m.active, m.created_at
		FROM team_members m
		JOIN config_participants p ON p.member_id = m.id
		WHERE p.config_id = ? AND m.active = 1
		ORDER BY m.id`,
		configID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.TeamMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *membersRepo) IsActiveParticipant(ctx context.Context, configID, memberID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM config_participants p
		JOIN team_members m ON m.id = p.member_id
		WHERE p.config_id = ? AND p.member_id = ? AND m.active = 1`,
		configID, memberID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanMember(row rowScanner) (domain.TeamMember, error) {
	var m domain.TeamMember
	err := row.Scan(&m.ID, &m.OrgID, &m.PlatformUserID, &m.DisplayName, &m.Active, &m.CreatedAt)
	if err != nil {
		return domain.TeamMember{}, mapNotFound(err)
	}
	return m, nil
}
