package inbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/leads/ingest"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"

	imap "github.com/BrianLeishman/go-imap"
)

type fakeConn struct {
	folder string
	search string
	uids   []int
	emails map[int]*imap.Email
	seen   []int
	closed bool
	err    error
}

func (f *fakeConn) SelectFolder(folder string) error {
	f.folder = folder
	return f.err
}

func (f *fakeConn) GetUIDs(search string) ([]int, error) {
	f.search = search
	return f.uids, nil
}

func (f *fakeConn) GetEmails(uids ...int) (map[int]*imap.Email, error) {
	out := make(map[int]*imap.Email, len(uids))
	for _, uid := range uids {
		if e, ok := f.emails[uid]; ok {
			out[uid] = e
		}
	}
	return out, nil
}

func (f *fakeConn) MarkSeen(uid int) error {
	f.seen = append(f.seen, uid)
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

type inboxConfig struct{}

func (inboxConfig) GetIMAPHost() string     { return "imap.example.com" }
func (inboxConfig) GetIMAPPort() int        { return 993 }
func (inboxConfig) GetIMAPUsername() string { return "leads@example.com" }
func (inboxConfig) GetIMAPPassword() string { return "secret" }
func (inboxConfig) GetIMAPFolder() string   { return "" }
func (inboxConfig) GetInboxBatchSize() int  { return 20 }
func (inboxConfig) IsInboxEnabled() bool    { return true }

var _ config.InboxConfig = inboxConfig{}

func newTestClient(fc *fakeConn, subjects []string) *Client {
	c := NewClient(inboxConfig{}, subjects, logger.NewWithHandler(slog.NewTextHandler(io.Discard, nil)))
	c.dial = func(config.InboxConfig) (conn, error) { return fc, nil }
	return c
}

func TestSearchQuery(t *testing.T) {
	cases := map[string][]string{
		"UNSEEN":                    nil,
		`UNSEEN SUBJECT "Brochure"`: {"Brochure"},
		`UNSEEN OR SUBJECT "a" SUBJECT "b \"c\""`:          {"a", `b "c"`},
		`UNSEEN OR SUBJECT "x" OR SUBJECT "y" SUBJECT "z"`: {"x", " ", "y", "z"},
	}
	for want, subjects := range cases {
		if got := SearchQuery(subjects); got != want {
			t.Errorf("SearchQuery(%q) = %q, want %q", subjects, got, want)
		}
	}
}

func TestFetchUnreadNewestWindowWithLimit(t *testing.T) {
	fc := &fakeConn{
		uids: []int{9, 3, 5},
		emails: map[int]*imap.Email{
			3: {UID: 3, Subject: "Project enquiry", Text: "Name: A"},
			5: {UID: 5, Subject: "Download Brochure", HTML: "<p>Name: B</p>"},
			9: {UID: 9, Subject: "late"},
		},
	}
	s, err := newTestClient(fc, []string{"Project enquiry"}).Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if fc.folder != "INBOX" {
		t.Fatalf("expected default folder, got %q", fc.folder)
	}
	msgs, err := s.FetchUnread(context.Background(), 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(msgs) != 2 || msgs[0].UID != 5 || msgs[1].UID != 9 || msgs[0].HTML == "" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	if fc.search != `UNSEEN SUBJECT "Project enquiry"` {
		t.Fatalf("unexpected search %q", fc.search)
	}

	if err := s.MarkConsumed(context.Background(), 3); err != nil || len(fc.seen) != 1 {
		t.Fatalf("mark consumed: %v %v", err, fc.seen)
	}
}

func TestOpenClosesOnSelectFailure(t *testing.T) {
	fc := &fakeConn{err: errors.New("no such folder")}
	if _, err := newTestClient(fc, nil).Open(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !fc.closed {
		t.Fatal("connection left open")
	}
}

type leadStore struct {
	leads []domain.Lead
}

func (s *leadStore) List(context.Context) ([]domain.Lead, error) {
	return append([]domain.Lead(nil), s.leads...), nil
}

func (s *leadStore) Create(_ context.Context, l domain.Lead) error {
	s.leads = append(s.leads, l)
	return nil
}

func TestUnreadBacklogDoesNotHideNewLead(t *testing.T) {
	fc := &fakeConn{emails: map[int]*imap.Email{}}
	for uid := 1; uid <= 20; uid++ {
		fc.uids = append(fc.uids, uid)
		fc.emails[uid] = &imap.Email{UID: uid, Subject: "Project enquiry", Text: fmt.Sprintf("garbled %d", uid)}
	}
	fc.uids = append(fc.uids, 21)
	fc.emails[21] = &imap.Email{
		UID:     21,
		Subject: "Book an appointment",
		Text:    "For Project Enquiry: Riviera Uno\nYour Name: A. Sharma\nYour Email Id: a@x.com\nMobile Number: 98765-43210\n",
	}

	store := &leadStore{}
	pipeline := ingest.New(ingest.Options{
		Store:     store,
		Log:       logger.NewWithHandler(slog.NewTextHandler(io.Discard, nil)),
		BatchSize: 20,
	})

	s, err := newTestClient(fc, []string{"Project enquiry", "Book an appointment"}).Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	res, err := pipeline.ProcessMailbox(context.Background(), s)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Inserted != 1 || len(store.leads) != 1 || store.leads[0].Name != "A. Sharma" {
		t.Fatalf("new lead not ingested: %+v leads=%+v", res, store.leads)
	}
	if len(fc.seen) != 1 || fc.seen[0] != 21 {
		t.Fatalf("expected only uid 21 consumed, got %v", fc.seen)
	}
}
