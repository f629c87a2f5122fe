package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects on the letters message bus.
const (
	// SubjectLetterApproved carries approval events from the letter service.
	SubjectLetterApproved = "letters.letter.approved"
	// SubjectAnalysisRequested triggers a style analysis for one clinician.
	SubjectAnalysisRequested = "letters.analysis.requested"
	// SubjectProfileUpdated announces a freshly merged style profile.
	SubjectProfileUpdated = "letters.profile.updated"
	// SubjectAggregateWritten announces a new cross-clinician aggregate.
	SubjectAggregateWritten = "letters.aggregate.written"
)

// ApprovedEvent is emitted by the letter service when a clinician approves a
// letter, carrying both the AI draft and the text as finalised.
type ApprovedEvent struct {
	ClinicianID  string `json:"clinician_id"`
	LetterID     string `json:"letter_id"`
	Subspecialty string `json:"subspecialty"`
	DraftText    string `json:"draft_text"`
	FinalText    string `json:"final_text"`
}

// AnalysisRequest asks for a style analysis run over a clinician's recent
// edits.
type AnalysisRequest struct {
	ClinicianID  string `json:"clinician_id"`
	Subspecialty string `json:"subspecialty"`
	Reason       string `json:"reason"`
}

// ProfileUpdated announces that a clinician's profile was re-merged.
type ProfileUpdated struct {
	ClinicianID   string  `json:"clinician_id"`
	Subspecialty  string  `json:"subspecialty"`
	EditsAnalyzed int     `json:"edits_analyzed"`
	Confidence    float64 `json:"confidence"`
}

// AggregateWritten announces a new analytics aggregate period.
type AggregateWritten struct {
	Subspecialty string `json:"subspecialty"`
	Period       string `json:"period"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

// PublishAggregateWritten satisfies the analytics scheduler's publisher
// interface.
func (c *Client) PublishAggregateWritten(_ context.Context, subspecialty, period string) error {
	return c.Publish(SubjectAggregateWritten, AggregateWritten{Subspecialty: subspecialty, Period: period})
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
