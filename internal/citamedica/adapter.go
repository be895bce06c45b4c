package citamedica

import (
	"context"
	"fmt"

	"github.com/citamedica/evolution-bridge/internal/bot"
	"github.com/citamedica/evolution-bridge/internal/schedule"
)

// Adapter exposes the Client through the dialogue's Backend interface,
// translating wire types into domain types.
type Adapter struct {
	client *Client
}

// NewAdapter wraps a Client for the dialogue machine.
func NewAdapter(client *Client) *Adapter {
	if client == nil {
		panic("citamedica: client cannot be nil")
	}
	return &Adapter{client: client}
}

func (a *Adapter) AvailableSlots(ctx context.Context, date string) ([]schedule.Availability, error) {
	resp, err := a.client.AvailableSlots(ctx, date)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("citamedica: slot query for %s unsuccessful", date)
	}
	out := make([]schedule.Availability, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		out = append(out, schedule.Availability{Time: s.Time, Available: s.Available})
	}
	return out, nil
}

func (a *Adapter) AvailableOverbookings(ctx context.Context, date string) ([]bot.Overbooking, error) {
	resp, err := a.client.AvailableOverbookings(ctx, date)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("citamedica: overbooking query for %s unsuccessful", date)
	}
	out := make([]bot.Overbooking, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		out = append(out, bot.Overbooking{Time: e.SlotLabel, Number: e.SequenceNumber, Period: e.DayPeriod})
	}
	return out, nil
}

func (a *Adapter) ValidateOverbooking(ctx context.Context, date string, number int) (bool, error) {
	return a.client.ValidateOverbooking(ctx, date, number)
}

func (a *Adapter) CreateAppointment(ctx context.Context, r bot.Reservation) (bot.CreatedRecord, error) {
	created, err := a.client.CreateAppointment(ctx, r)
	if err != nil {
		return nil, err
	}
	return bot.CreatedRecord(created), nil
}

func (a *Adapter) CreateOverbooking(ctx context.Context, r bot.Reservation) (bot.CreatedRecord, error) {
	created, err := a.client.CreateOverbooking(ctx, r)
	if err != nil {
		return nil, err
	}
	return bot.CreatedRecord(created), nil
}
