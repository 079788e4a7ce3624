// Package model defines the core domain entities shared across the
// discovery and outreach subsystems.
package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Status is the lifecycle state of a discovered salon.
type Status string

const (
	// StatusDiscovered is the initial state set by the import process.
	StatusDiscovered Status = "discovered"
	// StatusSelected means at least one user has expressed interest.
	StatusSelected Status = "selected"
	// StatusOutreachSent means at least one outreach message was delivered.
	StatusOutreachSent Status = "outreach_sent"
	// StatusRegistered means the salon completed onboarding. Terminal.
	StatusRegistered Status = "registered"
	// StatusDeclined means the salon asked not to be contacted. Terminal.
	StatusDeclined Status = "declined"
	// StatusUnreachable means no contact channel worked. Terminal.
	StatusUnreachable Status = "unreachable"
)

// ErrInvalidTransition is returned when a status change is not allowed
// by the lifecycle state machine.
var ErrInvalidTransition = eris.New("model: invalid status transition")

// allowedTransitions maps each status to the set of statuses it may move to.
var allowedTransitions = map[Status]map[Status]bool{
	StatusDiscovered: {
		StatusSelected:    true,
		StatusDeclined:    true,
		StatusUnreachable: true,
	},
	StatusSelected: {
		StatusOutreachSent: true,
		StatusRegistered:   true,
		StatusDeclined:     true,
		StatusUnreachable:  true,
	},
	StatusOutreachSent: {
		// Repeat sends keep the salon in outreach_sent.
		StatusOutreachSent: true,
		StatusRegistered:   true,
		StatusDeclined:     true,
		StatusUnreachable:  true,
	},
	// Terminal states allow nothing.
	StatusRegistered:  {},
	StatusDeclined:    {},
	StatusUnreachable: {},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Terminal reports whether s is a sticky end state: no further outreach
// is ever attempted once reached.
func (s Status) Terminal() bool {
	switch s {
	case StatusRegistered, StatusDeclined, StatusUnreachable:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to target is allowed.
func (s Status) CanTransition(target Status) bool {
	return allowedTransitions[s][target]
}

// DiscoveredSalon is a prospective business not yet onboarded, created by
// an external import process and advanced through its lifecycle by
// interest signals and the outreach policy.
type DiscoveredSalon struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Contact channels. At least one is expected eventually.
	Phone    string `json:"phone,omitempty"`
	WhatsApp string `json:"whatsapp,omitempty"`
	Email    string `json:"email,omitempty"`

	// Location. Latitude/Longitude are nil when the import had no
	// coordinates; such salons are excluded from radius queries.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Address   string   `json:"address,omitempty"`
	City      string   `json:"city,omitempty"`

	Category    string   `json:"category,omitempty"`
	Specialties []string `json:"specialties,omitempty"`

	// Quality signals from the source listing.
	RatingAvg   *float64 `json:"rating_avg,omitempty"`
	RatingCount int      `json:"rating_count"`

	// Profile completeness signals.
	FeatureImage string `json:"feature_image,omitempty"`
	WorkingHours string `json:"working_hours,omitempty"`
	Website      string `json:"website,omitempty"`
	Facebook     string `json:"facebook,omitempty"`
	Instagram    string `json:"instagram,omitempty"`

	Status Status `json:"status"`

	// InterestCount is derived from distinct interest_signals rows on
	// every read; it is never maintained as an independent counter.
	InterestCount int `json:"interest_count"`

	FirstSelectedAt *time.Time `json:"first_selected_at,omitempty"`
	LastSelectedAt  *time.Time `json:"last_selected_at,omitempty"`

	OutreachCount   int        `json:"outreach_count"`
	LastOutreachAt  *time.Time `json:"last_outreach_at,omitempty"`
	OutreachChannel string     `json:"outreach_channel,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HasCoordinates reports whether the salon has a usable location.
func (s *DiscoveredSalon) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// HasPhoneChannel reports whether a WhatsApp-capable number exists.
func (s *DiscoveredSalon) HasPhoneChannel() bool {
	return s.WhatsApp != "" || s.Phone != ""
}

// HasContactChannel reports whether any outreach channel exists.
func (s *DiscoveredSalon) HasContactChannel() bool {
	return s.HasPhoneChannel() || s.Email != ""
}

// InterestSignal records that one authenticated user wants a salon on the
// platform. Unique per (salon, user); repeated signals do not inflate the
// derived count.
type InterestSignal struct {
	ID        string    `json:"id"`
	SalonID   string    `json:"salon_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
