// Package messaging publishes verification lifecycle events over NATS.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/echefulouis/drug-verification-system/internal/model"
)

const subjectVerificationCompleted = "verification.completed"

// NATSClient publishes completion events for downstream consumers
// (dashboards, audit sinks).
type NATSClient interface {
	PublishVerificationCompleted(ctx context.Context, rec *model.VerificationRecord) error
	Close()
}

type natsClient struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// NewNATSClient connects to the NATS server.
func NewNATSClient(url string, logger *zap.Logger) (NATSClient, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("connected to NATS", zap.String("url", url))
	return &natsClient{conn: conn, logger: logger}, nil
}

// VerificationCompletedMessage is the wire shape of a completion event.
type VerificationCompletedMessage struct {
	VerificationID      string  `json:"verification_id"`
	RegistrationNumber  *string `json:"registration_number,omitempty"`
	Found               bool    `json:"found"`
	Success             bool    `json:"success"`
	RegistryUnreachable bool    `json:"registry_unreachable,omitempty"`
}

func (c *natsClient) PublishVerificationCompleted(ctx context.Context, rec *model.VerificationRecord) error {
	msg := VerificationCompletedMessage{
		VerificationID:      rec.VerificationID,
		RegistrationNumber:  rec.RegistrationNumber,
		Found:               rec.ValidationResult.Found,
		Success:             rec.ValidationResult.Success,
		RegistryUnreachable: rec.ValidationResult.RegistryUnreachable,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal completion event: %w", err)
	}

	if err := c.conn.Publish(subjectVerificationCompleted, data); err != nil {
		c.logger.Error("failed to publish completion event",
			zap.Error(err), zap.String("verification_id", rec.VerificationID))
		return fmt.Errorf("failed to publish completion event: %w", err)
	}

	c.logger.Info("completion event published",
		zap.String("verification_id", rec.VerificationID))
	return nil
}

func (c *natsClient) Close() {
	if c.conn != nil {
		c.conn.Close()
		c.logger.Info("NATS connection closed")
	}
}
