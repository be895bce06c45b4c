package bot

import (
	"time"

	"github.com/citamedica/evolution-bridge/internal/schedule"
)

// Step identifies where a user currently is in the dialogue.
type Step string

const (
	StepGreeting            Step = "greeting"
	StepChoosingType        Step = "choosing_type"
	StepCollectingName      Step = "collecting_name"
	StepCollectingSocialWork Step = "collecting_social_work"
	StepChoosingDate        Step = "choosing_date"
	StepChoosingTime        Step = "choosing_time"
	StepChoosingOverbooking Step = "choosing_sobreturno"
	StepConfirmation        Step = "confirmation"
	StepQueryAppointments   Step = "query_appointments"
)

// ServiceType is the kind of request the user is working through.
type ServiceType string

const (
	ServiceAppointment ServiceType = "appointment"
	ServiceOverbooking ServiceType = "sobreturno"
	ServiceQuery       ServiceType = "query"
)

// Overbooking is a same-day extra slot offered after the regular grid.
type Overbooking struct {
	Time   string `json:"time"`
	Number int    `json:"number"`
	Period string `json:"period"`
}

// Draft accumulates the booking fields collected so far. Candidate lists are
// snapshots taken when the options were shown; they are never recomputed
// mid-step, so the number the user echoes back always resolves against the
// list they actually saw.
type Draft struct {
	ClientName            string          `json:"client_name,omitempty"`
	SocialWork            string          `json:"social_work,omitempty"`
	SelectedDate          string          `json:"selected_date,omitempty"`
	SelectedTime          string          `json:"selected_time,omitempty"`
	SelectedOverbooking   *Overbooking    `json:"selected_overbooking,omitempty"`
	CandidateDates        []string        `json:"candidate_dates,omitempty"`
	CandidateTimes        []schedule.Slot `json:"candidate_times,omitempty"`
	CandidateOverbookings []Overbooking   `json:"candidate_overbookings,omitempty"`
}

// Session is the per-user conversation state. It is owned by the dialogue
// machine; the per-sender dispatcher guarantees a single writer at a time.
type Session struct {
	Step           Step        `json:"step"`
	Service        ServiceType `json:"service,omitempty"`
	Draft          Draft       `json:"draft"`
	LastActivityAt time.Time   `json:"last_activity_at"`
	FailedAttempts int         `json:"failed_attempts"`
}

// NewSession returns a fresh session positioned at the greeting step.
func NewSession() *Session {
	return &Session{Step: StepGreeting}
}

// reset returns the session to the greeting step. The draft is dropped when
// clearDraft is set (cancel, commit, forced restarts); help and start keep
// collected fields so a user can resume.
func (s *Session) reset(clearDraft bool) {
	s.Step = StepGreeting
	s.Service = ""
	s.FailedAttempts = 0
	if clearDraft {
		s.Draft = Draft{}
	}
}
