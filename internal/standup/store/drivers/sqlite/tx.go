package sqlite

import (
	"database/sql"

	"github.com/aussiebroadwan/standup/internal/standup/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Configs() store.Configs               { return &configsRepo{db: t.tx} }
func (t *txStore) Instances() store.Instances           { return &instancesRepo{db: t.tx} }
func (t *txStore) Members() store.Members               { return &membersRepo{db: t.tx} }
func (t *txStore) Answers() store.Answers               { return &answersRepo{db: t.tx} }
func (t *txStore) WorkspaceLinks() store.WorkspaceLinks { return &workspaceLinksRepo{db: t.tx} }
