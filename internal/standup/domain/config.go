package domain

import (
	"slices"
	"time"
)

// StandupConfig is a per-team recurring check-in definition. Configuration
// management owns and mutates these rows; this core only reads them and
// snapshots them onto instances.
type StandupConfig struct {
	ID        string
	OrgID     string
	TeamID    string
	Name      string
	Questions []string // ordered prompts
	Weekdays  []time.Weekday
	TimeLocal string // "15:04" in the config's own timezone
	Timezone  string // IANA identifier, e.g. "America/New_York"

	ReminderMinutes     int // minutes before deadline to nudge non-responders
	ResponseWindowHours int // hours after instance creation until the deadline

	ChannelID string // announcement/digest destination
	Active    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConfigSnapshot is the frozen copy of a config's questions and timing taken
// at instance-creation time. Timed operations consult only the snapshot, so
// editing the config never retroactively changes a running instance.
type ConfigSnapshot struct {
	TeamID              string   `json:"team_id"`
	Questions           []string `json:"questions"`
	ReminderMinutes     int      `json:"reminder_minutes"`
	ResponseWindowHours int      `json:"response_window_hours"`
	ChannelID           string   `json:"channel_id"`
}

// Snapshot deep-copies the fields an instance needs. The questions slice is
// cloned so a later config edit cannot alias into the snapshot.
func (c StandupConfig) Snapshot() ConfigSnapshot {
	return ConfigSnapshot{
		TeamID:              c.TeamID,
		Questions:           slices.Clone(c.Questions),
		ReminderMinutes:     c.ReminderMinutes,
		ResponseWindowHours: c.ResponseWindowHours,
		ChannelID:           c.ChannelID,
	}
}

// DueAt reports whether the config is due at the given instant, evaluated in
// the config's own timezone, and the local target date it is due for.
// "Due" means today's local weekday is configured and the local wall clock
// reads the configured minute; a once-per-minute tick therefore observes
// each occurrence exactly once.
func (c StandupConfig) DueAt(now time.Time) (targetDate string, due bool, err error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return "", false, err
	}

	local := now.In(loc)
	if !slices.Contains(c.Weekdays, local.Weekday()) {
		return "", false, nil
	}
	if local.Format("15:04") != c.TimeLocal {
		return "", false, nil
	}

	return local.Format(time.DateOnly), true, nil
}
