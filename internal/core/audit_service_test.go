package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidderpro-backend-go/internal/models"
)

type capturePublisher struct {
	queue string
	body  []byte
	err   error
}

func (p *capturePublisher) Publish(ctx context.Context, queueName string, body []byte) error {
	p.queue = queueName
	p.body = body
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

func TestAuditService_Record(t *testing.T) {
	pub := &capturePublisher{}
	svc := NewAuditService(pub, "bidder.audit").(*auditService)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, svc.Record(context.Background(), "ada@example.com", models.ActionUserRegistered, map[string]any{"k": "v"}))
	assert.Equal(t, "bidder.audit", pub.queue)

	var event models.AuditEvent
	require.NoError(t, json.Unmarshal(pub.body, &event))
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "ada@example.com", event.Email)
	assert.Equal(t, models.ActionUserRegistered, event.Action)
	assert.Equal(t, "v", event.Details["k"])
	assert.True(t, svc.now().Equal(event.Timestamp))
}

func TestAuditService_PublishError(t *testing.T) {
	pub := &capturePublisher{err: errors.New("closed")}
	svc := NewAuditService(pub, "q")
	assert.Error(t, svc.Record(context.Background(), "a@b.c", models.ActionUserSignedIn, nil))
}
