// Package processor drives an inbound WhatsApp message through the
// dialogue machine and delivers the outcome: load the sender's session,
// advance it, persist it, reply over Evolution, and fire the workflow
// trigger when a booking was created.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citamedica/evolution-bridge/internal/bot"
	"github.com/citamedica/evolution-bridge/internal/dispatch"
	"github.com/citamedica/evolution-bridge/internal/observability/metrics"
	"github.com/citamedica/evolution-bridge/internal/session"
	"github.com/citamedica/evolution-bridge/internal/webhook"
	"github.com/citamedica/evolution-bridge/pkg/logging"
)

const defaultErrorMessage = "Lo siento, ha ocurrido un error. Por favor, intenta de nuevo."

// ReplySender delivers a text reply to a WhatsApp recipient via a named
// Evolution instance.
type ReplySender interface {
	SendTextVia(ctx context.Context, recipient, text, instance string) error
}

// WorkflowTrigger fires a downstream automation webhook.
type WorkflowTrigger interface {
	Trigger(ctx context.Context, eventPath string, payload map[string]any) error
}

// Config wires the processor's collaborators.
type Config struct {
	Machine    *bot.Machine
	Sessions   session.Store
	Sender     ReplySender
	Workflow   WorkflowTrigger
	Dispatcher *dispatch.Dispatcher
	Metrics    *metrics.BridgeMetrics
	Logger     *logging.Logger

	// ErrorMessage is sent to the user when processing fails outright.
	ErrorMessage string
}

// Processor serializes messages per sender and runs the dialogue pipeline.
type Processor struct {
	machine    *bot.Machine
	sessions   session.Store
	sender     ReplySender
	workflow   WorkflowTrigger
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.BridgeMetrics
	logger     *logging.Logger
	errorMsg   string
}

// New creates a Processor. Machine, Sessions, Sender, and Dispatcher are
// required; Workflow and Metrics are optional.
func New(cfg Config) (*Processor, error) {
	if cfg.Machine == nil {
		return nil, errors.New("processor: machine is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("processor: session store is required")
	}
	if cfg.Sender == nil {
		return nil, errors.New("processor: reply sender is required")
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("processor: dispatcher is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	errorMsg := cfg.ErrorMessage
	if errorMsg == "" {
		errorMsg = defaultErrorMessage
	}
	return &Processor{
		machine:    cfg.Machine,
		sessions:   cfg.Sessions,
		sender:     cfg.Sender,
		workflow:   cfg.Workflow,
		dispatcher: cfg.Dispatcher,
		metrics:    cfg.Metrics,
		logger:     logger,
		errorMsg:   errorMsg,
	}, nil
}

// Enqueue schedules msg for processing. Messages from the same sender are
// handled strictly in arrival order; group chats are dropped here.
func (p *Processor) Enqueue(msg *webhook.Message) error {
	if msg == nil {
		return errors.New("processor: message cannot be nil")
	}
	if msg.IsGroup {
		p.logger.Info("ignoring group chat message", "sender", msg.SenderID)
		p.metrics.ObserveInbound("ignored")
		return nil
	}
	if msg.SenderID == "" || msg.Text == "" {
		p.metrics.ObserveInbound("ignored")
		return nil
	}

	m := *msg
	err := p.dispatcher.Enqueue(m.SenderID, func(ctx context.Context) {
		p.process(ctx, &m)
	})
	if err != nil {
		p.metrics.ObserveInbound("rejected")
		return fmt.Errorf("processor: enqueue message: %w", err)
	}
	p.metrics.ObserveInbound("accepted")
	return nil
}

func (p *Processor) process(ctx context.Context, msg *webhook.Message) {
	start := time.Now()

	sess, err := p.sessions.Load(ctx, msg.SenderID)
	if err != nil {
		p.logger.Error("failed to load session", "sender", msg.SenderID, "error", err)
		p.fail(ctx, msg)
		return
	}
	if sess == nil {
		sess = bot.NewSession()
	}
	step := string(sess.Step)

	result := p.machine.Handle(ctx, sess, msg.Text, msg.SenderID)

	if err := p.sessions.Save(ctx, msg.SenderID, sess); err != nil {
		p.logger.Error("failed to save session", "sender", msg.SenderID, "error", err)
		p.fail(ctx, msg)
		return
	}

	if result.Reply != "" {
		if err := p.sender.SendTextVia(ctx, msg.SenderID, result.Reply, msg.Instance); err != nil {
			p.logger.Error("failed to send reply", "sender", msg.SenderID, "error", err)
			p.metrics.ObserveReply("failed")
		} else {
			p.metrics.ObserveReply("sent")
		}
	}

	// Workflow delivery is best effort: the booking already exists on the
	// backend, so a trigger failure must not fail the conversation.
	if result.Workflow != nil {
		p.observeBooking(result.Workflow.Path)
		if p.workflow != nil {
			if err := p.workflow.Trigger(ctx, result.Workflow.Path, result.Workflow.Payload); err != nil {
				p.logger.Error("workflow trigger failed",
					"path", result.Workflow.Path,
					"sender", msg.SenderID,
					"error", err,
				)
			}
		}
	}

	p.metrics.ObserveProcessingLatency(step, time.Since(start).Seconds())
}

// fail tells the user something went wrong. The session is left as it was.
func (p *Processor) fail(ctx context.Context, msg *webhook.Message) {
	p.metrics.ObserveReply("error_fallback")
	if err := p.sender.SendTextVia(ctx, msg.SenderID, p.errorMsg, msg.Instance); err != nil {
		p.logger.Error("failed to send error message", "sender", msg.SenderID, "error", err)
	}
}

func (p *Processor) observeBooking(path string) {
	switch path {
	case "appointment-created":
		p.metrics.ObserveBooking("appointment")
	case "sobreturno-created":
		p.metrics.ObserveBooking("sobreturno")
	default:
		p.metrics.ObserveBooking("other")
	}
}
