package bot

import (
	"context"
	"strings"
)

// Workflow webhook paths fired after a successful commit.
const (
	eventAppointmentCreated = "appointment-created"
	eventOverbookingCreated = "sobreturno-created"
)

// commit assembles the reservation payload and books it. On success the
// draft is cleared, the session returns to greeting, and a workflow event is
// attached to the result. On failure the user gets the backend's error text
// and has to restart; the commit is never retried here.
func (m *Machine) commit(ctx context.Context, sess *Session, senderID string) Result {
	d := sess.Draft
	service := sess.Service

	r := Reservation{
		ClientName:    d.ClientName,
		SocialWork:    d.SocialWork,
		Phone:         strings.TrimSuffix(senderID, channelSuffix),
		Date:          d.SelectedDate,
		Time:          d.SelectedTime,
		Description:   "Agendado via WhatsApp - " + string(service),
		IsOverbooking: service == ServiceOverbooking,
	}

	var (
		created CreatedRecord
		err     error
		path    string
		success string
	)

	if r.IsOverbooking {
		if d.SelectedOverbooking == nil {
			sess.reset(true)
			return Result{Reply: bookingFailed("sobreturno no seleccionado")}
		}
		r.OverbookingNumber = d.SelectedOverbooking.Number

		// Re-check availability right before booking: the slot list shown to
		// the user may be stale by now. A validation outage must not block
		// the booking attempt itself.
		if ok, verr := m.backend.ValidateOverbooking(ctx, r.Date, r.OverbookingNumber); verr != nil {
			m.logger.Warn("overbooking validation unavailable, booking anyway", "error", verr, "date", r.Date, "number", r.OverbookingNumber)
		} else if !ok {
			m.logger.Info("overbooking no longer available at commit", "date", r.Date, "number", r.OverbookingNumber)
			sess.reset(true)
			return Result{Reply: msgSlotTaken}
		}

		created, err = m.backend.CreateOverbooking(ctx, r)
		path = eventOverbookingCreated
		success = overbookingConfirmed(r)
	} else {
		created, err = m.backend.CreateAppointment(ctx, r)
		path = eventAppointmentCreated
		success = appointmentConfirmed(r)
	}

	if err != nil {
		m.logger.Error("reservation commit failed", "error", err, "service", service, "date", r.Date, "time", r.Time)
		sess.reset(false)
		return Result{Reply: bookingFailed(err.Error())}
	}

	m.logger.Info("reservation committed", "service", service, "date", r.Date, "time", r.Time)
	sess.reset(true)

	return Result{
		Reply: success,
		Workflow: &WorkflowEvent{
			Path: path,
			Payload: map[string]any{
				"appointment": created,
				"patient": map[string]any{
					"name":       r.ClientName,
					"phone":      r.Phone,
					"socialWork": r.SocialWork,
				},
				"type": string(service),
			},
		},
	}
}
