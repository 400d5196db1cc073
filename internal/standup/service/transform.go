package service

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/standup/internal/standup/domain"
)

// The transformer normalizes the platform's heterogeneous payload shapes
// (event callbacks, interactive-component actions, slash commands) into the
// one canonical record the rest of the pipeline consumes.

// eventCallback is the JSON envelope of an Events API delivery.
type eventCallback struct {
	Type    string `json:"type"`
	EventID string `json:"event_id"`
	TeamID  string `json:"team_id"`
	Event   struct {
		Type    string `json:"type"`
		User    string `json:"user"`
		Text    string `json:"text"`
		Channel string `json:"channel"`
	} `json:"event"`
}

// interactionPayload is the decoded `payload` form field of an
// interactive-component delivery.
type interactionPayload struct {
	Type      string `json:"type"`
	TriggerID string `json:"trigger_id"`
	Team      struct {
		ID string `json:"id"`
	} `json:"team"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
	Actions []struct {
		ActionID string `json:"action_id"`
		Value    string `json:"value"`
	} `json:"actions"`
}

// TransformEventCallback normalizes an Events API body.
func TransformEventCallback(body []byte) (domain.Event, error) {
	var cb eventCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return domain.Event{}, ErrValidation
	}
	if cb.Type != "event_callback" || cb.EventID == "" || cb.TeamID == "" {
		return domain.Event{}, ErrValidation
	}

	return domain.Event{
		Kind:        domain.EventMessage,
		ExternalID:  cb.EventID,
		WorkspaceID: cb.TeamID,
		UserID:      cb.Event.User,
		ChannelID:   cb.Event.Channel,
		Text:        cb.Event.Text,
	}, nil
}

// TransformInteraction normalizes an interactive-component payload.
// Interactive deliveries carry no event id; the trigger id is unique per
// invocation and serves as the dedup identifier.
func TransformInteraction(payload []byte) (domain.Event, error) {
	var p interactionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return domain.Event{}, ErrValidation
	}
	if p.TriggerID == "" || p.Team.ID == "" {
		return domain.Event{}, ErrValidation
	}

	var value string
	if len(p.Actions) > 0 {
		value = p.Actions[0].Value
	}

	return domain.Event{
		Kind:        domain.EventAction,
		ExternalID:  p.TriggerID,
		WorkspaceID: p.Team.ID,
		UserID:      p.User.ID,
		ChannelID:   p.Channel.ID,
		Text:        value,
	}, nil
}

// TransformSlashCommand normalizes a form-encoded slash-command submission.
func TransformSlashCommand(form url.Values) (domain.Event, error) {
	triggerID := form.Get("trigger_id")
	teamID := form.Get("team_id")
	command := form.Get("command")
	if triggerID == "" || teamID == "" || command == "" {
		return domain.Event{}, ErrValidation
	}

	return domain.Event{
		Kind:        domain.EventCommand,
		ExternalID:  triggerID,
		WorkspaceID: teamID,
		UserID:      form.Get("user_id"),
		ChannelID:   form.Get("channel_id"),
		Command:     command,
		Text:        strings.TrimSpace(form.Get("text")),
	}, nil
}
