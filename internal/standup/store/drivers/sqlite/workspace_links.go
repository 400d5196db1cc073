package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/standup/internal/standup/domain"
)

type workspaceLinksRepo struct {
	db dbtx
}

func (r *workspaceLinksRepo) GetLink(ctx context.Context, workspaceID string) (domain.WorkspaceLink, error) {
	var l domain.WorkspaceLink
	err := r.db.QueryRowContext(ctx,
		`SELECT workspace_id, org_id, created_at FROM workspace_links WHERE workspace_id = ?`,
		workspaceID).Scan(&l.WorkspaceID, &l.OrgID, &l.CreatedAt)
	if err != nil {
		return domain.WorkspaceLink{}, mapNotFound(err)
	}
	return l, nil
}

func (r *workspaceLinksRepo) CreateLink(ctx context.Context, l domain.WorkspaceLink) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workspace_links (workspace_id, org_id, created_at) VALUES (?, ?, ?)`,
		l.WorkspaceID, l.OrgID, l.CreatedAt)
	return mapConflict(err)
}

func (r *workspaceLinksRepo) DeleteLink(ctx context.Context, workspaceID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM workspace_links WHERE workspace_id = ?`, workspaceID)
	return err
}
