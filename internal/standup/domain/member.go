package domain

import "time"

// TeamMember is a participant in standups. Membership is managed elsewhere;
// this core treats it as read-only input to scheduling and validation.
type TeamMember struct {
	ID             string
	OrgID          string
	PlatformUserID string // chat-platform identity, e.g. Slack user ID
	DisplayName    string
	Active         bool
	CreatedAt      time.Time
}

// Answer records one member's answer to one question of one instance.
// Unique per (instance, member, question index); resubmission is rejected,
// never overwritten.
type Answer struct {
	ID            string
	InstanceID    string
	MemberID      string
	QuestionIndex int
	Text          string
	CreatedAt     time.Time
}
