package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"bidderpro-backend-go/internal/models"
)

type recordedEvent struct {
	Email   string
	Action  string
	Details map[string]any
}

type fakeAudit struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (f *fakeAudit) Record(ctx context.Context, email, action string, details map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Email: email, Action: action, Details: details})
	return f.err
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Action)
	}
	return out
}

var errStoreDown = errors.New("connection refused")

type brokenRepo struct{}

func (brokenRepo) GetByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	return nil, errStoreDown
}

func (brokenRepo) InsertIfAbsent(ctx context.Context, user *models.UserRecord) (*models.UserRecord, bool, error) {
	return nil, false, errStoreDown
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
