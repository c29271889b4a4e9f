package assignment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"leadops_backend/internal/events"
	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/team"
	"leadops_backend/platform/logger"
)

type fakeLeads struct {
	leads     []domain.Lead
	failOn    string
	assignErr error
}

func (f *fakeLeads) ListUnassigned(context.Context) ([]domain.Lead, error) {
	var out []domain.Lead
	for _, l := range f.leads {
		if l.IsUnassigned() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLeads) Assign(_ context.Context, id, name, email string, at time.Time) error {
	if id == f.failOn {
		return f.assignErr
	}
	for i := range f.leads {
		if f.leads[i].LeadID == id {
			f.leads[i].AssignedTo = name
			f.leads[i].AssignedEmail = email
			f.leads[i].AssignedTime = &at
		}
	}
	return nil
}

type fakeRoster []team.Agent

func (r fakeRoster) List(context.Context) ([]team.Agent, error) { return r, nil }

type fakeCursor struct {
	value int64
	saves []int64
}

func (c *fakeCursor) Load(context.Context) (int64, error) { return c.value, nil }

func (c *fakeCursor) Save(_ context.Context, v int64) error {
	c.value = v
	c.saves = append(c.saves, v)
	return nil
}

func discardLogger() *logger.Logger {
	return logger.NewWithHandler(slog.NewTextHandler(io.Discard, nil))
}

func TestRunAssignsPersistsAndNotifies(t *testing.T) {
	store := &fakeLeads{leads: unassigned(3)}
	cursor := &fakeCursor{value: 1}
	bus := events.NewInMemoryBus(discardLogger())

	var mu sync.Mutex
	var notified []string
	bus.Subscribe(events.LeadAssigned{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		notified = append(notified, e.(events.LeadAssigned).AssignedEmail)
		return nil
	}))

	svc := NewService(store, fakeRoster(agents("Active", "Active")), cursor, bus, discardLogger())
	res, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Assigned != 3 || res.Notified != 3 || res.Cursor != 4 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(cursor.saves) != 3 || cursor.saves[2] != 4 {
		t.Fatalf("cursor should be saved per lead, got %v", cursor.saves)
	}
	want := []string{"a1@x.com", "a0@x.com", "a1@x.com"}
	for i, email := range want {
		if notified[i] != email || store.leads[i].AssignedEmail != email {
			t.Fatalf("lead %d: expected %s, got notified=%s stored=%s", i, email, notified[i], store.leads[i].AssignedEmail)
		}
		if store.leads[i].AssignedTime == nil {
			t.Fatalf("lead %d has no assignment time", i)
		}
	}
}

func TestRunKeepsAssignmentWhenNotificationFails(t *testing.T) {
	store := &fakeLeads{leads: unassigned(2)}
	cursor := &fakeCursor{}
	bus := events.NewInMemoryBus(discardLogger())
	bus.Subscribe(events.LeadAssigned{}.EventName(), events.HandlerFunc(func(context.Context, events.Event) error {
		return errors.New("smtp down")
	}))

	res, err := NewService(store, fakeRoster(agents("Active")), cursor, bus, discardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Assigned != 2 || res.Notified != 0 || cursor.value != 2 {
		t.Fatalf("unexpected result %+v cursor=%d", res, cursor.value)
	}
}

func TestRunStopsOnStoreFailure(t *testing.T) {
	store := &fakeLeads{leads: unassigned(3), failOn: "LEAD-1", assignErr: errors.New("db gone")}
	cursor := &fakeCursor{}
	res, err := NewService(store, fakeRoster(agents("Active")), cursor, nil, discardLogger()).Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Assigned != 1 || cursor.value != 1 {
		t.Fatalf("expected one lead persisted before failure, got %+v cursor=%d", res, cursor.value)
	}
}

func TestRunWithoutActiveAgents(t *testing.T) {
	store := &fakeLeads{leads: unassigned(2)}
	cursor := &fakeCursor{value: 9}
	res, err := NewService(store, fakeRoster(agents("Break")), cursor, nil, discardLogger()).Run(context.Background())
	if err != nil || res.Assigned != 0 || cursor.value != 9 || len(cursor.saves) != 0 {
		t.Fatalf("expected no change, got %+v err=%v cursor=%d", res, err, cursor.value)
	}
}
