package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/standup/internal/standup/dedup"
	"github.com/aussiebroadwan/standup/internal/standup/domain"
	"github.com/aussiebroadwan/standup/pkg/slogx"
)

// IngestService runs the inbound pipeline after signature verification:
// dedup first, then routing of the canonical event. Webhook handlers call
// Dispatch once per delivery; processing failures are logged and swallowed
// so the sender always gets a success-shaped acknowledgment and never
// triggers a retry storm.
type IngestService struct {
	Dedup *dedup.Store
	Links *LinkService
}

// Dispatch drops duplicate deliveries and routes the rest. The returned
// error is for the caller's log only; webhook responses don't surface it.
func (s *IngestService) Dispatch(ctx context.Context, ev domain.Event) error {
	log := slogx.FromContext(ctx)

	duplicate, err := s.Dedup.Seen(ctx, ev.ExternalID)
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	if duplicate {
		log.Debug("duplicate delivery dropped",
			slog.String("external_id", ev.ExternalID),
		)
		return nil
	}

	switch ev.Kind {
	case domain.EventCommand:
		return s.handleCommand(ctx, ev)
	case domain.EventMessage, domain.EventAction:
		// Messages and actions carry no side effects in this core yet;
		// they are acknowledged after dedup.
		log.Debug("event acknowledged",
			slog.String("kind", string(ev.Kind)),
			slog.String("workspace_id", ev.WorkspaceID),
		)
		return nil
	default:
		return ErrValidation
	}
}

// handleCommand routes /standup subcommands.
func (s *IngestService) handleCommand(ctx context.Context, ev domain.Event) error {
	log := slogx.FromContext(ctx)

	if ev.Command != "/standup" {
		log.Debug("unknown command ignored", slog.String("command", ev.Command))
		return nil
	}

	sub, rest, _ := strings.Cut(ev.Text, " ")
	switch sub {
	case "link":
		orgID := strings.TrimSpace(rest)
		if orgID == "" {
			return ErrValidation
		}
		err := s.Links.Link(ctx, ev.WorkspaceID, orgID)
		if errors.Is(err, ErrWorkspaceLinked) {
			log.Warn("link rejected",
				slog.String("workspace_id", ev.WorkspaceID),
				slog.String("org_id", orgID),
			)
		}
		return err

	case "unlink":
		return s.Links.Unlink(ctx, ev.WorkspaceID)

	default:
		log.Debug("unknown subcommand ignored", slog.String("subcommand", sub))
		return nil
	}
}
