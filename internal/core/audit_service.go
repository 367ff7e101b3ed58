package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bidderpro-backend-go/internal/models"
	"bidderpro-backend-go/pkg/messagequeue"
)

// auditService implements the AuditService interface on top of a queue
// publisher.
type auditService struct {
	publisher messagequeue.Publisher
	queue     string
	now       func() time.Time
}

// NewAuditService creates a new AuditService publishing to queue.
func NewAuditService(publisher messagequeue.Publisher, queue string) AuditService {
	return &auditService{
		publisher: publisher,
		queue:     queue,
		now:       time.Now,
	}
}

// Record publishes one audit event.
func (s *auditService) Record(ctx context.Context, email, action string, details map[string]any) error {
	if s.publisher == nil {
		return fmt.Errorf("publisher not initialized in AuditService")
	}

	event := models.AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: s.now().UTC(),
		Email:     email,
		Action:    action,
		Details:   details,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if err := s.publisher.Publish(ctx, s.queue, body); err != nil {
		return fmt.Errorf("failed to publish audit event: %w", err)
	}
	return nil
}
