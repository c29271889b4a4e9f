// Package inbox reads lead notification emails over IMAP.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"leadops_backend/internal/leads/ingest"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"

	imap "github.com/BrianLeishman/go-imap"
)

// conn is the part of an IMAP session the mailbox uses.
type conn interface {
	SelectFolder(folder string) error
	GetUIDs(search string) ([]int, error)
	GetEmails(uids ...int) (map[int]*imap.Email, error)
	MarkSeen(uid int) error
	Close() error
}

type dialFunc func(cfg config.InboxConfig) (conn, error)

func dialIMAP(cfg config.InboxConfig) (conn, error) {
	d, err := imap.New(cfg.GetIMAPUsername(), cfg.GetIMAPPassword(), cfg.GetIMAPHost(), cfg.GetIMAPPort())
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Client opens mailbox sessions.
type Client struct {
	cfg      config.InboxConfig
	subjects []string
	dial     dialFunc
	log      *logger.Logger
}

// NewClient narrows server-side searches to subjects. An empty list
// searches every unread message.
func NewClient(cfg config.InboxConfig, subjects []string, log *logger.Logger) *Client {
	return &Client{cfg: cfg, subjects: subjects, dial: dialIMAP, log: log}
}

// Open connects and selects the configured folder. Callers must Close the
// session.
func (c *Client) Open(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cn, err := c.dial(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("imap connect: %w", err)
	}
	folder := c.cfg.GetIMAPFolder()
	if folder == "" {
		folder = "INBOX"
	}
	if err := cn.SelectFolder(folder); err != nil {
		_ = cn.Close()
		return nil, fmt.Errorf("select folder %s: %w", folder, err)
	}
	return &Session{conn: cn, search: SearchQuery(c.subjects), log: c.log}, nil
}

// Session is one connected mailbox. It implements ingest.Mailbox.
type Session struct {
	conn   conn
	search string
	log    *logger.Logger
}

// FetchUnread returns the newest limit unread messages, oldest first within
// that window. Messages left unread by earlier polls never hide newer mail.
func (s *Session) FetchUnread(ctx context.Context, limit int) ([]ingest.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	uids, err := s.conn.GetUIDs(s.search)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", s.search, err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	sort.Ints(uids)
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	emails, err := s.conn.GetEmails(uids...)
	if err != nil {
		return nil, fmt.Errorf("fetch %d messages: %w", len(uids), err)
	}

	out := make([]ingest.Message, 0, len(emails))
	for _, uid := range uids {
		e, ok := emails[uid]
		if !ok || e == nil {
			s.log.WithContext(ctx).Warn("message vanished before fetch", slog.Int("uid", uid))
			continue
		}
		out = append(out, ingest.Message{UID: uid, Subject: e.Subject, Plain: e.Text, HTML: e.HTML})
	}
	return out, nil
}

// MarkConsumed flags a message \Seen so later polls skip it.
func (s *Session) MarkConsumed(ctx context.Context, uid int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.conn.MarkSeen(uid)
}

func (s *Session) Close() error {
	return s.conn.Close()
}

// SearchQuery builds an IMAP SEARCH for unread messages whose subject
// contains any of subjects.
func SearchQuery(subjects []string) string {
	keys := make([]string, 0, len(subjects))
	for _, s := range subjects {
		if s = strings.TrimSpace(s); s != "" {
			keys = append(keys, "SUBJECT "+quote(s))
		}
	}
	if len(keys) == 0 {
		return "UNSEEN"
	}
	return "UNSEEN " + orChain(keys)
}

// orChain folds keys into nested binary ORs.
func orChain(keys []string) string {
	if len(keys) == 1 {
		return keys[0]
	}
	return "OR " + keys[0] + " " + orChain(keys[1:])
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

var _ ingest.Mailbox = (*Session)(nil)
