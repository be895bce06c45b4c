// Package webhook receives Evolution API deliveries, extracts the inbound
// WhatsApp message, and hands it to the processor. Deliveries are
// acknowledged immediately; processing happens off the request goroutine.
package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const groupSuffix = "@g.us"

var (
	// ErrUnrecognized means the payload matched none of the supported
	// envelope shapes.
	ErrUnrecognized = errors.New("webhook: unrecognized message format")
	// ErrNoText means the envelope was recognized but carries no text
	// content (media, reactions, status updates).
	ErrNoText = errors.New("webhook: message has no text content")
)

// Message is the extracted inbound message the processor consumes.
type Message struct {
	SenderID  string
	Text      string
	MessageID string
	Instance  string
	IsGroup   bool
}

type envelopeKey struct {
	RemoteJID   string `json:"remoteJid"`
	Participant string `json:"participant"`
	ID          string `json:"id"`
}

type envelopeMessage struct {
	Key          envelopeKey `json:"key"`
	Conversation string      `json:"conversation"`
	Extended     *struct {
		Text string `json:"text"`
	} `json:"extendedTextMessage"`
}

func (m *envelopeMessage) text() string {
	if m.Conversation != "" {
		return m.Conversation
	}
	if m.Extended != nil {
		return m.Extended.Text
	}
	return ""
}

type envelope struct {
	Event    string `json:"event"`
	Instance string `json:"instance"`
	Data     *struct {
		Message  *envelopeMessage  `json:"message"`
		Messages []envelopeMessage `json:"messages"`
	} `json:"data"`

	// Direct shape, used by manual senders and tests.
	From      string `json:"from"`
	Body      string `json:"body"`
	MessageID string `json:"messageId"`
}

// ParseMessage extracts the inbound message from a webhook body. Three
// shapes are supported: the Evolution API delivery with data.message, the
// direct {from, body} shape, and the messages.upsert event carrying a
// data.messages batch (only the first entry is read).
func ParseMessage(body []byte) (*Message, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("webhook: decode payload: %w", err)
	}

	instance := env.Instance
	if instance == "" {
		instance = "default"
	}

	if env.Data != nil && env.Data.Message != nil {
		return fromEnvelopeMessage(env.Data.Message, instance)
	}

	if env.From != "" && env.Body != "" {
		return &Message{
			SenderID:  env.From,
			Text:      env.Body,
			MessageID: env.MessageID,
			Instance:  instance,
			IsGroup:   strings.Contains(env.From, groupSuffix),
		}, nil
	}

	if env.Event == "messages.upsert" && env.Data != nil && len(env.Data.Messages) > 0 {
		return fromEnvelopeMessage(&env.Data.Messages[0], instance)
	}

	return nil, ErrUnrecognized
}

func fromEnvelopeMessage(msg *envelopeMessage, instance string) (*Message, error) {
	sender := msg.Key.RemoteJID
	if sender == "" {
		sender = msg.Key.Participant
	}
	text := msg.text()
	if text == "" {
		return nil, ErrNoText
	}
	return &Message{
		SenderID:  sender,
		Text:      text,
		MessageID: msg.Key.ID,
		Instance:  instance,
		IsGroup:   strings.Contains(sender, groupSuffix),
	}, nil
}
