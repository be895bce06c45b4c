package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citamedica/evolution-bridge/internal/schedule"
)

// 2025-03-03 is a Monday.
var testClock = func() time.Time { return time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC) }

const testSender = "5491122334455@s.whatsapp.net"

type stubBackend struct {
	slots        []schedule.Availability
	slotsErr     error
	overbookings []Overbooking
	obErr        error
	validateOK   bool
	validateErr  error
	createErr    error

	slotCalls     int
	obCalls       int
	validateCalls int
	appointments  []Reservation
	obBookings    []Reservation
}

func newStubBackend() *stubBackend {
	return &stubBackend{validateOK: true}
}

func (s *stubBackend) AvailableSlots(_ context.Context, _ string) ([]schedule.Availability, error) {
	s.slotCalls++
	return s.slots, s.slotsErr
}

func (s *stubBackend) AvailableOverbookings(_ context.Context, _ string) ([]Overbooking, error) {
	s.obCalls++
	return s.overbookings, s.obErr
}

func (s *stubBackend) ValidateOverbooking(_ context.Context, _ string, _ int) (bool, error) {
	s.validateCalls++
	return s.validateOK, s.validateErr
}

func (s *stubBackend) CreateAppointment(_ context.Context, r Reservation) (CreatedRecord, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.appointments = append(s.appointments, r)
	return CreatedRecord{"id": "apt-1"}, nil
}

func (s *stubBackend) CreateOverbooking(_ context.Context, r Reservation) (CreatedRecord, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.obBookings = append(s.obBookings, r)
	return CreatedRecord{"id": "st-1"}, nil
}

func (s *stubBackend) totalCalls() int {
	return s.slotCalls + s.obCalls + s.validateCalls + len(s.appointments) + len(s.obBookings)
}

func newTestMachine(backend Backend) *Machine {
	return New(backend, WithClock(testClock), WithLocation(time.UTC))
}

func drive(t *testing.T, m *Machine, sess *Session, inputs ...string) Result {
	t.Helper()
	var last Result
	for _, in := range inputs {
		last = m.Handle(context.Background(), sess, in, testSender)
	}
	return last
}

func TestHappyPathAppointment(t *testing.T) {
	backend := newStubBackend()
	backend.slots = []schedule.Availability{
		{Time: "10:00", Available: true},
		{Time: "17:30", Available: true},
	}
	m := newTestMachine(backend)
	sess := NewSession()

	last := drive(t, m, sess, "hola", "turno", "Juan Perez", "OSDE", "1", "2", "si")

	require.Len(t, backend.appointments, 1, "exactly one appointment must be created")
	r := backend.appointments[0]
	assert.Equal(t, "juan perez", r.ClientName)
	assert.Equal(t, "osde", r.SocialWork)
	assert.Equal(t, "5491122334455", r.Phone, "channel suffix must be stripped")
	assert.Equal(t, "2025-03-04", r.Date, "first offered date is Tuesday")
	assert.Equal(t, "17:30", r.Time, "second offered slot")
	assert.False(t, r.IsOverbooking)

	require.NotNil(t, last.Workflow, "exactly one workflow trigger expected")
	assert.Equal(t, "appointment-created", last.Workflow.Path)
	assert.Equal(t, "appointment", last.Workflow.Payload["type"])

	assert.Equal(t, StepGreeting, sess.Step)
	assert.Equal(t, Draft{}, sess.Draft)
	assert.Contains(t, last.Reply, "CITA CONFIRMADA")
}

func TestHappyPathOverbooking(t *testing.T) {
	backend := newStubBackend()
	backend.overbookings = []Overbooking{
		{Time: "11:00", Number: 1, Period: "mañana"},
		{Time: "19:15", Number: 2, Period: "tarde"},
	}
	m := newTestMachine(backend)
	sess := NewSession()

	last := drive(t, m, sess, "sobreturno", "Maria Lopez", "PAMI", "2", "si")

	require.Len(t, backend.obBookings, 1)
	r := backend.obBookings[0]
	assert.Equal(t, "maria lopez", r.ClientName)
	assert.Equal(t, "19:15", r.Time)
	assert.Equal(t, 2, r.OverbookingNumber)
	assert.True(t, r.IsOverbooking)
	assert.Equal(t, "2025-03-03", r.Date, "overbookings book for today")
	assert.Equal(t, 1, backend.validateCalls, "availability re-checked at commit")

	require.NotNil(t, last.Workflow)
	assert.Equal(t, "sobreturno-created", last.Workflow.Path)
	assert.Equal(t, StepGreeting, sess.Step)
	assert.Contains(t, last.Reply, "SOBRETURNO CONFIRMADO")
}

func TestMenuFlowReachesNameCollection(t *testing.T) {
	m := newTestMachine(newStubBackend())
	sess := NewSession()

	// Unrecognized greeting shows the menu, then "1" picks appointments.
	res := drive(t, m, sess, "buenas")
	assert.Equal(t, StepChoosingType, sess.Step)
	assert.Contains(t, res.Reply, "1️⃣")

	drive(t, m, sess, "1")
	assert.Equal(t, StepCollectingName, sess.Step)
	assert.Equal(t, ServiceAppointment, sess.Service)
}

func TestMenuRepromptOnGarbage(t *testing.T) {
	m := newTestMachine(newStubBackend())
	sess := NewSession()

	drive(t, m, sess, "buenas")
	res := drive(t, m, sess, "9")
	assert.Equal(t, StepChoosingType, sess.Step)
	assert.Contains(t, res.Reply, "selecciona una opción válida")
}

func TestInvalidDateSelectionLeavesSessionUntouched(t *testing.T) {
	m := newTestMachine(newStubBackend())
	sess := NewSession()

	drive(t, m, sess, "turno", "Juan Perez", "OSDE")
	require.Equal(t, StepChoosingDate, sess.Step)
	snapshot := sess.Draft

	for _, input := range []string{"0", "99", "mañana"} {
		res := drive(t, m, sess, input)
		assert.Equal(t, StepChoosingDate, sess.Step)
		assert.Equal(t, snapshot, sess.Draft, "draft must not change on input %q", input)
		assert.Contains(t, res.Reply, "número válido (1-5)")
	}
}

func TestThreeInvalidNamesResetToGreeting(t *testing.T) {
	m := newTestMachine(newStubBackend())
	sess := NewSession()

	drive(t, m, sess, "turno")
	require.Equal(t, StepCollectingName, sess.Step)

	drive(t, m, sess, "ab")
	assert.Equal(t, StepCollectingName, sess.Step)
	drive(t, m, sess, "xy")
	assert.Equal(t, StepCollectingName, sess.Step)
	res := drive(t, m, sess, "z")

	assert.Equal(t, StepGreeting, sess.Step)
	assert.Equal(t, Draft{}, sess.Draft)
	assert.Zero(t, sess.FailedAttempts)
	assert.Contains(t, res.Reply, "Demasiados intentos")
}

func TestAttemptCounterResetsOnValidName(t *testing.T) {
	m := newTestMachine(newStubBackend())
	sess := NewSession()

	drive(t, m, sess, "turno", "ab", "xy", "Juan Perez")
	assert.Equal(t, StepCollectingSocialWork, sess.Step)
	assert.Zero(t, sess.FailedAttempts)
	assert.Equal(t, "juan perez", sess.Draft.ClientName)
}

func TestCancelFromEveryStep(t *testing.T) {
	setups := map[string][]string{
		"choosing_type":   {"buenas"},
		"collecting_name": {"turno"},
		"social_work":     {"turno", "Juan Perez"},
		"choosing_date":   {"turno", "Juan Perez", "OSDE"},
		"confirmation":    {"turno", "Juan Perez", "OSDE", "1", "1"},
	}

	for name, inputs := range setups {
		t.Run(name, func(t *testing.T) {
			backend := newStubBackend()
			backend.slots = []schedule.Availability{{Time: "10:00", Available: true}}
			m := newTestMachine(backend)
			sess := NewSession()

			drive(t, m, sess, inputs...)
			require.NotEqual(t, StepGreeting, sess.Step, "setup must leave greeting")

			callsBefore := backend.totalCalls()
			res := drive(t, m, sess, "cancelar")

			assert.Equal(t, StepGreeting, sess.Step)
			assert.Equal(t, Draft{}, sess.Draft)
			assert.Equal(t, callsBefore, backend.totalCalls(), "cancel must not touch the backend")
			assert.Contains(t, res.Reply, "cancelada")
		})
	}
}

func TestHelpResetsStepKeepsDraft(t *testing.T) {
	m := newTestMachine(newStubBackend())
	sess := NewSession()

	drive(t, m, sess, "turno", "Juan Perez")
	res := drive(t, m, sess, "ayuda")

	assert.Equal(t, StepGreeting, sess.Step)
	assert.Empty(t, sess.Service)
	assert.Equal(t, "juan perez", sess.Draft.ClientName, "help keeps collected fields")
	assert.Contains(t, res.Reply, "AYUDA")
}

func TestConfirmationReprompt(t *testing.T) {
	backend := newStubBackend()
	backend.slots = []schedule.Availability{{Time: "10:00", Available: true}}
	m := newTestMachine(backend)
	sess := NewSession()

	drive(t, m, sess, "turno", "Juan Perez", "OSDE", "1", "1")
	require.Equal(t, StepConfirmation, sess.Step)

	res := drive(t, m, sess, "tal vez")
	assert.Equal(t, StepConfirmation, sess.Step)
	assert.Contains(t, res.Reply, "\"SI\"")
	assert.Empty(t, backend.appointments)
}

func TestConfirmationRejected(t *testing.T) {
	backend := newStubBackend()
	backend.slots = []schedule.Availability{{Time: "10:00", Available: true}}
	m := newTestMachine(backend)
	sess := NewSession()

	res := drive(t, m, sess, "turno", "Juan Perez", "OSDE", "1", "1", "no")

	assert.Equal(t, StepGreeting, sess.Step)
	assert.Equal(t, Draft{}, sess.Draft)
	assert.Empty(t, backend.appointments)
	assert.Contains(t, res.Reply, "Cita cancelada")
}

func TestBackendFailureFetchingSlotsResets(t *testing.T) {
	backend := newStubBackend()
	backend.slotsErr = errors.New("connection refused")
	m := newTestMachine(backend)
	sess := NewSession()

	res := drive(t, m, sess, "turno", "Juan Perez", "OSDE", "1")

	assert.Equal(t, StepGreeting, sess.Step)
	assert.Contains(t, res.Reply, "intenta más tarde")
}

func TestNoSlotsForDateReturnsToDateMenu(t *testing.T) {
	backend := newStubBackend()
	backend.slots = []schedule.Availability{{Time: "10:00", Available: false}}
	m := newTestMachine(backend)
	sess := NewSession()

	res := drive(t, m, sess, "turno", "Juan Perez", "OSDE", "1")

	assert.Equal(t, StepChoosingDate, sess.Step)
	assert.Len(t, sess.Draft.CandidateDates, 5, "date snapshot survives")
	assert.Contains(t, res.Reply, "No hay horarios disponibles")
}

func TestCommitFailureSurfacesBackendError(t *testing.T) {
	backend := newStubBackend()
	backend.slots = []schedule.Availability{{Time: "10:00", Available: true}}
	backend.createErr = errors.New("horario ya reservado")
	m := newTestMachine(backend)
	sess := NewSession()

	res := drive(t, m, sess, "turno", "Juan Perez", "OSDE", "1", "1", "si")

	assert.Equal(t, StepGreeting, sess.Step)
	assert.Contains(t, res.Reply, "horario ya reservado")
	assert.Nil(t, res.Workflow, "failed commit must not trigger the workflow")
}

func TestOverbookingCandidatesSameDayOnly(t *testing.T) {
	backend := newStubBackend()
	backend.overbookings = []Overbooking{{Time: "11:00", Number: 1, Period: "mañana"}}
	m := newTestMachine(backend)

	candidates, err := m.overbookingCandidates(context.Background(), "2025-03-04")
	require.NoError(t, err)
	assert.Empty(t, candidates, "non-today dates yield zero candidates")
	assert.Zero(t, backend.obCalls, "backend must not be queried for other dates")

	candidates, err = m.overbookingCandidates(context.Background(), "2025-03-03")
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestOverbookingCandidatesFilteredToGrid(t *testing.T) {
	backend := newStubBackend()
	backend.overbookings = []Overbooking{
		{Time: "11:00", Number: 1, Period: "mañana"},
		{Time: "15:00", Number: 2, Period: "tarde"}, // off-grid
	}
	m := newTestMachine(backend)

	candidates, err := m.overbookingCandidates(context.Background(), "2025-03-03")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "11:00", candidates[0].Time)
}

func TestNoOverbookingsTodayExplainsAndResets(t *testing.T) {
	m := newTestMachine(newStubBackend())
	sess := NewSession()

	res := drive(t, m, sess, "sobreturno", "Maria Lopez", "PAMI")

	assert.Equal(t, StepGreeting, sess.Step)
	assert.Contains(t, res.Reply, "solo están disponibles el mismo día")
}

func TestOverbookingTakenAtCommit(t *testing.T) {
	backend := newStubBackend()
	backend.overbookings = []Overbooking{{Time: "11:00", Number: 1, Period: "mañana"}}
	backend.validateOK = false
	m := newTestMachine(backend)
	sess := NewSession()

	res := drive(t, m, sess, "sobreturno", "Maria Lopez", "PAMI", "1", "si")

	assert.Equal(t, StepGreeting, sess.Step)
	assert.Empty(t, backend.obBookings, "taken slot must not be double-booked")
	assert.Nil(t, res.Workflow)
	assert.Contains(t, res.Reply, "ya no está disponible")
}

func TestQueryFlowPlaceholder(t *testing.T) {
	m := newTestMachine(newStubBackend())
	sess := NewSession()

	res := drive(t, m, sess, "mostrar", "lo que sea")

	assert.Equal(t, StepGreeting, sess.Step)
	assert.Contains(t, res.Reply, "en desarrollo")
}

func TestConfirmationSummaryContents(t *testing.T) {
	backend := newStubBackend()
	backend.slots = []schedule.Availability{{Time: "10:00", Available: true}, {Time: "17:15", Available: true}}
	m := newTestMachine(backend)
	sess := NewSession()

	res := drive(t, m, sess, "turno", "Juan Perez", "OSDE", "1", "2")

	assert.Contains(t, res.Reply, "juan perez")
	assert.Contains(t, res.Reply, "osde")
	assert.Contains(t, res.Reply, "Martes 4 de Marzo")
	assert.Contains(t, res.Reply, "17:15")
}

func TestTimeMenuShowsBothBuckets(t *testing.T) {
	backend := newStubBackend()
	backend.slots = []schedule.Availability{
		{Time: "10:00", Available: true},
		{Time: "17:00", Available: true},
	}
	m := newTestMachine(backend)
	sess := NewSession()

	res := drive(t, m, sess, "turno", "Juan Perez", "OSDE", "1")

	assert.Contains(t, res.Reply, "MAÑANA")
	assert.Contains(t, res.Reply, "TARDE")
	assert.Contains(t, res.Reply, "1️⃣ 10:00")
	assert.Contains(t, res.Reply, "2️⃣ 17:00")
}

func TestLastActivityUpdated(t *testing.T) {
	m := newTestMachine(newStubBackend())
	sess := NewSession()

	drive(t, m, sess, "hola")
	assert.Equal(t, testClock(), sess.LastActivityAt)
}
