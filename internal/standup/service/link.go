package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/standup/internal/standup/domain"
	"github.com/aussiebroadwan/standup/internal/standup/store"
	"github.com/aussiebroadwan/standup/pkg/slogx"
)

// LinkService drives the explicit link state machine between an external
// workspace and an internal organization. The domain transition table
// decides legality; this service only persists the outcome.
type LinkService struct {
	Store store.Store
}

// Link links the workspace to orgID. Relinking to the same org is a no-op
// success; linking elsewhere while linked returns ErrWorkspaceLinked.
func (s *LinkService) Link(ctx context.Context, workspaceID, orgID string) error {
	log := slogx.FromContext(ctx)

	current, err := s.Store.WorkspaceLinks().GetLink(ctx, workspaceID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		current = domain.WorkspaceLink{WorkspaceID: workspaceID}
	}

	next, changed, err := current.Link(orgID)
	if err != nil {
		if errors.Is(err, domain.ErrLinkedElsewhere) {
			return ErrWorkspaceLinked
		}
		return err
	}
	if !changed {
		return nil
	}

	if err := s.Store.WorkspaceLinks().CreateLink(ctx, next); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// A concurrent link won the insert. Re-read and re-evaluate so
			// the caller gets the same answer a later attempt would.
			won, getErr := s.Store.WorkspaceLinks().GetLink(ctx, workspaceID)
			if getErr != nil {
				return getErr
			}
			if won.OrgID == orgID {
				return nil
			}
			return ErrWorkspaceLinked
		}
		return err
	}

	log.Info("workspace linked",
		slog.String("workspace_id", workspaceID),
		slog.String("org_id", orgID),
	)
	return nil
}

// Unlink removes the workspace's link. Unlinking an unlinked workspace is
// a no-op success.
func (s *LinkService) Unlink(ctx context.Context, workspaceID string) error {
	log := slogx.FromContext(ctx)

	current, err := s.Store.WorkspaceLinks().GetLink(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	if _, changed := current.Unlink(); !changed {
		return nil
	}

	if err := s.Store.WorkspaceLinks().DeleteLink(ctx, workspaceID); err != nil {
		return err
	}

	log.Info("workspace unlinked", slog.String("workspace_id", workspaceID))
	return nil
}

// OrgFor resolves the org a workspace is linked to, for routing inbound
// events. ErrNotFound when unlinked.
func (s *LinkService) OrgFor(ctx context.Context, workspaceID string) (string, error) {
	link, err := s.Store.WorkspaceLinks().GetLink(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return link.OrgID, nil
}
