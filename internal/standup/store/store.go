package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/standup/internal/standup/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrStaleState reports a conditional update that matched no row: the
	// row was not in the expected prior state. Callers treat this as
	// "someone else already did it".
	ErrStaleState = errors.New("store: row not in expected state")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. Every mutation that must happen at most once is
// expressed here as a conditional write; the database is the single source
// of truth for exclusivity, never an in-process lock.
type Store interface {
	Configs() Configs
	Instances() Instances
	Members() Members
	Answers() Answers
	WorkspaceLinks() WorkspaceLinks

	ApplyMigrations() error

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store scoped to one transaction.
type Tx interface {
	Configs() Configs
	Instances() Instances
	Members() Members
	Answers() Answers
	WorkspaceLinks() WorkspaceLinks
}

type Configs interface {
	// GetConfigByID returns a config by id.
	GetConfigByID(ctx context.Context, id string) (domain.StandupConfig, error)

	// ListActiveConfigs returns every config with the active flag set.
	ListActiveConfigs(ctx context.Context) ([]domain.StandupConfig, error)

	// CreateConfig inserts a config. Configuration management owns these
	// rows; the core only needs this for seeding and tests.
	CreateConfig(ctx context.Context, c domain.StandupConfig) error

	// AddParticipant includes a member in a config's standups.
	AddParticipant(ctx context.Context, configID, memberID string) error
}

type Instances interface {
	// CreateInstance inserts a new instance. Returns ErrAlreadyExists when
	// an instance for (config_id, target_date) is already present, so
	// concurrent scheduler ticks collapse to exactly one row.
	CreateInstance(ctx context.Context, inst domain.StandupInstance) error

	// GetInstance returns an instance by id, scoped to the given org.
	GetInstance(ctx context.Context, id, orgID string) (domain.StandupInstance, error)

	// GetInstanceByConfigAndDate returns the instance for (config, date).
	GetInstanceByConfigAndDate(ctx context.Context, configID, targetDate string) (domain.StandupInstance, error)

	// ListCollecting returns every instance still in the collecting state.
	ListCollecting(ctx context.Context) ([]domain.StandupInstance, error)

	// MarkReminderSent flips the reminder flag. The update only matches a
	// collecting row whose flag is still unset; ErrStaleState otherwise,
	// which makes the reminder claim safe across replicas.
	MarkReminderSent(ctx context.Context, id string) error

	// TransitionState moves an instance from an expected prior state to a
	// terminal state. ErrStaleState when the row was not in `from`.
	TransitionState(ctx context.Context, id string, from, to domain.InstanceState) error
}

type Members interface {
	// GetMemberByID returns a member by id.
	GetMemberByID(ctx context.Context, id string) (domain.TeamMember, error)

	// CreateMember inserts a member (seeding and tests).
	CreateMember(ctx context.Context, m domain.TeamMember) error

	// ListActiveParticipants returns the active members included in a
	// config's standups.
	ListActiveParticipants(ctx context.Context, configID string) ([]domain.TeamMember, error)

	// IsActiveParticipant reports whether the member is active and included
	// in the given config.
	IsActiveParticipant(ctx context.Context, configID, memberID string) (bool, error)
}

type Answers interface {
	// InsertAnswers inserts all rows atomically. A uniqueness conflict on
	// (instance_id, member_id, question_idx) aborts the whole batch with
	// ErrAlreadyExists; nothing is overwritten.
	InsertAnswers(ctx context.Context, answers []domain.Answer) error

	// HasAnswers reports whether the member has any answers recorded for
	// the instance.
	HasAnswers(ctx context.Context, instanceID, memberID string) (bool, error)

	// ListByInstance returns all answers for an instance ordered by member
	// and question index.
	ListByInstance(ctx context.Context, instanceID string) ([]domain.Answer, error)

	// CountDistinctResponders returns how many distinct members have at
	// least one answer for the instance.
	CountDistinctResponders(ctx context.Context, instanceID string) (int, error)

	// CountByMember returns how many answers the member has recorded for
	// the instance.
	CountByMember(ctx context.Context, instanceID, memberID string) (int, error)
}

type WorkspaceLinks interface {
	// GetLink returns the link row for a workspace. ErrNotFound when the
	// workspace has never been linked.
	GetLink(ctx context.Context, workspaceID string) (domain.WorkspaceLink, error)

	// CreateLink inserts a link row. ErrAlreadyExists when a row for the
	// workspace is already present (linked to any org).
	CreateLink(ctx context.Context, l domain.WorkspaceLink) error

	// DeleteLink removes the link row for a workspace. Deleting an absent
	// row is not an error.
	DeleteLink(ctx context.Context, workspaceID string) error
}
