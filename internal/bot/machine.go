package bot

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/citamedica/evolution-bridge/internal/schedule"
	"github.com/citamedica/evolution-bridge/pkg/logging"
)

// Backend is the appointment-backend surface the dialogue needs. The real
// implementation lives in internal/citamedica; tests use stubs.
type Backend interface {
	AvailableSlots(ctx context.Context, date string) ([]schedule.Availability, error)
	AvailableOverbookings(ctx context.Context, date string) ([]Overbooking, error)
	ValidateOverbooking(ctx context.Context, date string, number int) (bool, error)
	CreateAppointment(ctx context.Context, r Reservation) (CreatedRecord, error)
	CreateOverbooking(ctx context.Context, r Reservation) (CreatedRecord, error)
}

// Reservation is the payload sent verbatim to the backend on commit.
type Reservation struct {
	ClientName        string `json:"clientName"`
	SocialWork        string `json:"socialWork"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
	Date              string `json:"date"`
	Time              string `json:"time"`
	Description       string `json:"description"`
	IsOverbooking     bool   `json:"isSobreturno"`
	OverbookingNumber int    `json:"sobreturnoNumber,omitempty"`
}

// CreatedRecord is the backend's representation of the booked reservation,
// passed through untouched to the workflow engine.
type CreatedRecord map[string]any

// WorkflowEvent asks the caller to fire an n8n workflow after the reply goes out.
type WorkflowEvent struct {
	Path    string
	Payload map[string]any
}

// Result is what one turn of the dialogue produces.
type Result struct {
	Reply    string
	Workflow *WorkflowEvent
}

const (
	minNameLength       = 3
	minSocialWorkLength = 2
	maxFailedAttempts   = 3

	channelSuffix = "@s.whatsapp.net"
)

// Machine drives the per-user dialogue. It owns no session storage; the
// caller passes the session in and persists it afterwards, holding the
// per-sender serialization guarantee.
type Machine struct {
	backend Backend
	hours   schedule.Hours
	obHours schedule.Hours
	loc     *time.Location
	window  int
	botName string
	now     func() time.Time
	logger  *logging.Logger
}

// Option customizes machine behavior.
type Option func(*Machine)

// WithClock overrides the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLocation sets the practice's local time zone.
func WithLocation(loc *time.Location) Option {
	return func(m *Machine) {
		if loc != nil {
			m.loc = loc
		}
	}
}

// WithHours sets the regular consultation grid.
func WithHours(hours schedule.Hours) Option {
	return func(m *Machine) { m.hours = hours }
}

// WithOverbookingHours sets the grid overbooking entries are allowed on.
func WithOverbookingHours(hours schedule.Hours) Option {
	return func(m *Machine) { m.obHours = hours }
}

// WithDateWindow sets how many calendar days ahead date candidates are drawn from.
func WithDateWindow(days int) Option {
	return func(m *Machine) {
		if days > 0 {
			m.window = days
		}
	}
}

// WithBotName sets the assistant name shown in the welcome menu.
func WithBotName(name string) Option {
	return func(m *Machine) {
		if name != "" {
			m.botName = name
		}
	}
}

// WithLogger sets the machine's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New builds a Machine around the backend client.
func New(backend Backend, opts ...Option) *Machine {
	if backend == nil {
		panic("bot: backend cannot be nil")
	}
	m := &Machine{
		backend: backend,
		hours:   schedule.DefaultHours(),
		obHours: schedule.DefaultOverbookingHours(),
		loc:     time.UTC,
		window:  7,
		botName: "Anita - Asistente Médica",
		now:     time.Now,
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle advances the session one turn. The session is mutated in place;
// backend failures never leave it stuck in an intermediate step.
func (m *Machine) Handle(ctx context.Context, sess *Session, text, senderID string) Result {
	sess.LastActivityAt = m.now()
	msg := Normalize(text)

	// Global commands beat step dispatch from anywhere.
	switch ClassifyGlobal(msg) {
	case IntentHelp:
		sess.reset(false)
		return Result{Reply: helpMessage()}
	case IntentStart:
		sess.reset(false)
		return Result{Reply: welcomeMessage(m.botName)}
	case IntentCancel:
		sess.reset(true)
		return Result{Reply: msgCancelled}
	}

	switch sess.Step {
	case StepGreeting:
		return m.handleGreeting(sess, msg)
	case StepChoosingType:
		return m.handleTypeChoice(sess, msg)
	case StepCollectingName:
		return m.handleName(sess, msg)
	case StepCollectingSocialWork:
		return m.handleSocialWork(ctx, sess, msg)
	case StepChoosingDate:
		return m.handleDateChoice(ctx, sess, msg)
	case StepChoosingTime:
		return m.handleTimeChoice(sess, msg)
	case StepChoosingOverbooking:
		return m.handleOverbookingChoice(sess, msg)
	case StepConfirmation:
		return m.handleConfirmation(ctx, sess, msg, senderID)
	case StepQueryAppointments:
		return m.handleQuery(sess)
	default:
		sess.Step = StepGreeting
		return m.handleGreeting(sess, msg)
	}
}

func (m *Machine) handleGreeting(sess *Session, msg string) Result {
	switch ClassifyService(msg) {
	case IntentAppointment:
		sess.Service = ServiceAppointment
		sess.Step = StepCollectingName
		return Result{Reply: msgAskNameAppointment}
	case IntentOverbooking:
		sess.Service = ServiceOverbooking
		sess.Step = StepCollectingName
		return Result{Reply: msgAskNameOverbooking}
	case IntentQuery:
		sess.Service = ServiceQuery
		sess.Step = StepQueryAppointments
		return Result{Reply: msgAskNameQuery}
	}

	sess.Step = StepChoosingType
	return Result{Reply: welcomeMessage(m.botName)}
}

func (m *Machine) handleTypeChoice(sess *Session, msg string) Result {
	switch ClassifyMenuChoice(msg) {
	case IntentAppointment:
		sess.Service = ServiceAppointment
		sess.Step = StepCollectingName
		return Result{Reply: msgAskNameShort}
	case IntentOverbooking:
		sess.Service = ServiceOverbooking
		sess.Step = StepCollectingName
		return Result{Reply: msgAskNameShortOver}
	case IntentQuery:
		sess.Service = ServiceQuery
		sess.Step = StepQueryAppointments
		return Result{Reply: msgAskNameShortQuery}
	}
	return Result{Reply: msgInvalidMenuChoice}
}

func (m *Machine) handleName(sess *Session, msg string) Result {
	if utf8.RuneCountInString(msg) < minNameLength {
		sess.FailedAttempts++
		if sess.FailedAttempts >= maxFailedAttempts {
			sess.reset(true)
			return Result{Reply: msgTooManyAttempts}
		}
		return Result{Reply: msgInvalidName}
	}

	sess.Draft.ClientName = msg
	sess.FailedAttempts = 0
	sess.Step = StepCollectingSocialWork
	return Result{Reply: greetName(msg)}
}

func (m *Machine) handleSocialWork(ctx context.Context, sess *Session, msg string) Result {
	if utf8.RuneCountInString(msg) < minSocialWorkLength {
		return Result{Reply: msgInvalidSocialWork}
	}

	sess.Draft.SocialWork = msg
	if sess.Service == ServiceOverbooking {
		return m.showOverbookings(ctx, sess)
	}
	return m.showDates(sess)
}

func (m *Machine) showDates(sess *Session) Result {
	dates := schedule.NextBusinessDates(m.now(), m.window, m.loc)
	if len(dates) == 0 {
		m.logger.Error("no business dates inside window", "window_days", m.window)
		sess.reset(false)
		return Result{Reply: msgDatesFetchError}
	}

	sess.Draft.CandidateDates = dates
	sess.Step = StepChoosingDate
	return Result{Reply: dateMenu(dates)}
}

func (m *Machine) showOverbookings(ctx context.Context, sess *Session) Result {
	today := schedule.Today(m.now(), m.loc)
	entries, err := m.overbookingCandidates(ctx, today)
	if err != nil {
		m.logger.Error("failed to fetch overbookings", "error", err, "date", today)
		sess.reset(false)
		return Result{Reply: msgOverbookingsError}
	}
	if len(entries) == 0 {
		sess.reset(false)
		return Result{Reply: msgNoOverbookingsToday}
	}

	sess.Draft.CandidateOverbookings = entries
	sess.Draft.SelectedDate = today
	sess.Step = StepChoosingOverbooking
	return Result{Reply: overbookingMenu(entries)}
}

// overbookingCandidates returns the offerable overbookings for a date.
// Overbookings are same-day only: any other date yields no candidates without
// touching the backend. Entries outside the overbooking grid are dropped.
func (m *Machine) overbookingCandidates(ctx context.Context, date string) ([]Overbooking, error) {
	if !schedule.IsToday(date, m.now(), m.loc) {
		return nil, nil
	}
	entries, err := m.backend.AvailableOverbookings(ctx, date)
	if err != nil {
		return nil, err
	}

	allowed := append(append([]string{}, m.obHours.Morning...), m.obHours.Afternoon...)
	candidates := make([]Overbooking, 0, len(entries))
	for _, entry := range entries {
		for _, hour := range allowed {
			if entry.Time == hour {
				candidates = append(candidates, entry)
				break
			}
		}
	}
	return candidates, nil
}

func (m *Machine) handleDateChoice(ctx context.Context, sess *Session, msg string) Result {
	dates := sess.Draft.CandidateDates
	n, ok := ParseSelection(msg)
	if !ok || n < 1 || n > len(dates) {
		return Result{Reply: invalidSelection(len(dates))}
	}

	date := dates[n-1]
	raw, err := m.backend.AvailableSlots(ctx, date)
	if err != nil {
		m.logger.Error("failed to fetch slots", "error", err, "date", date)
		sess.reset(false)
		return Result{Reply: msgSlotsFetchError}
	}

	slots := m.hours.Partition(raw)
	if len(slots) == 0 {
		// Back to the date menu; the candidate snapshot is still valid.
		sess.Step = StepChoosingDate
		return Result{Reply: noSlotsForDate(date)}
	}

	sess.Draft.SelectedDate = date
	sess.Draft.CandidateTimes = slots
	sess.Step = StepChoosingTime
	return Result{Reply: timeMenu(date, slots)}
}

func (m *Machine) handleTimeChoice(sess *Session, msg string) Result {
	slots := sess.Draft.CandidateTimes
	n, ok := ParseSelection(msg)
	if !ok || n < 1 || n > len(slots) {
		return Result{Reply: invalidSelection(len(slots))}
	}

	sess.Draft.SelectedTime = slots[n-1].Time
	sess.Step = StepConfirmation
	return Result{Reply: confirmationSummary(sess)}
}

func (m *Machine) handleOverbookingChoice(sess *Session, msg string) Result {
	entries := sess.Draft.CandidateOverbookings
	n, ok := ParseSelection(msg)
	if !ok || n < 1 || n > len(entries) {
		return Result{Reply: invalidSelection(len(entries))}
	}

	selected := entries[n-1]
	sess.Draft.SelectedOverbooking = &selected
	sess.Draft.SelectedTime = selected.Time
	sess.Step = StepConfirmation
	return Result{Reply: confirmationSummary(sess)}
}

func (m *Machine) handleConfirmation(ctx context.Context, sess *Session, msg, senderID string) Result {
	switch ClassifyConfirmation(msg) {
	case IntentNegative:
		sess.reset(true)
		return Result{Reply: msgBookingDropped}
	case IntentAffirmative:
		return m.commit(ctx, sess, senderID)
	}
	return Result{Reply: msgConfirmReprompt}
}

func (m *Machine) handleQuery(sess *Session) Result {
	sess.reset(false)
	return Result{Reply: msgQueryNotImplemented}
}
