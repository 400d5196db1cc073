package domain

import (
	"errors"
	"time"
)

var (
	// ErrLinkedElsewhere reports a link attempt while the workspace is
	// already linked to a different organization. Unlink first.
	ErrLinkedElsewhere = errors.New("domain: workspace linked to another organization")
)

// WorkspaceLink is the explicit link state between an external chat
// workspace and an internal organization. The zero OrgID means unlinked.
// Modelling the transitions explicitly replaces implicit upsert semantics:
// invalid moves are rejected instead of silently overwriting.
type WorkspaceLink struct {
	WorkspaceID string
	OrgID       string
	CreatedAt   time.Time
}

// Linked reports whether the workspace is currently linked to an org.
func (l WorkspaceLink) Linked() bool { return l.OrgID != "" }

// Link returns the state after linking to orgID and whether anything
// changed. Relinking to the same org is a no-op success; linking to a
// different org while linked is rejected.
func (l WorkspaceLink) Link(orgID string) (WorkspaceLink, bool, error) {
	switch {
	case !l.Linked():
		l.OrgID = orgID
		return l, true, nil
	case l.OrgID == orgID:
		return l, false, nil
	default:
		return l, false, ErrLinkedElsewhere
	}
}

// Unlink returns the state after unlinking and whether anything changed.
// Unlinking an unlinked workspace is a no-op success.
func (l WorkspaceLink) Unlink() (WorkspaceLink, bool) {
	if !l.Linked() {
		return l, false
	}
	l.OrgID = ""
	return l, true
}
