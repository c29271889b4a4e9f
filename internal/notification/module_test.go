package notification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"leadops_backend/internal/email"
	"leadops_backend/internal/events"
	"leadops_backend/platform/logger"
)

type testSender struct {
	sent []email.LeadAssignment
	err  error
}

func (s *testSender) SendLeadAssigned(_ context.Context, a email.LeadAssignment) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, a)
	return nil
}

func testLogger() *logger.Logger {
	return logger.NewWithHandler(slog.NewTextHandler(io.Discard, nil))
}

func assigned(to string) events.LeadAssigned {
	return events.LeadAssigned{
		BaseEvent:     events.BaseEvent{Timestamp: time.Now()},
		LeadID:        "LEAD-1",
		Project:       "Skyline",
		Name:          "Ravi",
		Phone:         "9876543210",
		AssignedTo:    "Asha",
		AssignedEmail: to,
	}
}

func TestLeadAssignedSendsEmail(t *testing.T) {
	sender := &testSender{}
	bus := events.NewInMemoryBus(testLogger())
	New(sender, testLogger()).RegisterHandlers(bus)

	if err := bus.PublishSync(context.Background(), assigned(" asha@example.com ")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sender.sent))
	}
	got := sender.sent[0]
	if got.AgentEmail != "asha@example.com" || got.AgentName != "Asha" || got.LeadID != "LEAD-1" || got.Project != "Skyline" {
		t.Fatalf("unexpected assignment %+v", got)
	}
}

func TestLeadAssignedWithoutEmailIsSkipped(t *testing.T) {
	sender := &testSender{}
	if err := New(sender, testLogger()).Handle(context.Background(), assigned("")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("email sent without recipient")
	}
}

func TestLeadAssignedSurfacesSendFailure(t *testing.T) {
	sender := &testSender{err: errors.New("relay refused")}
	bus := events.NewInMemoryBus(testLogger())
	New(sender, testLogger()).RegisterHandlers(bus)

	err := bus.PublishSync(context.Background(), assigned("asha@example.com"))
	if err == nil || !strings.Contains(err.Error(), "relay refused") {
		t.Fatalf("expected send error, got %v", err)
	}
}

func TestNilSenderFallsBackToNoop(t *testing.T) {
	if err := New(nil, testLogger()).Handle(context.Background(), assigned("asha@example.com")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
