// Package dedup computes lead fingerprints and tracks which ones have been
// accepted during an ingestion batch.
package dedup

import (
	"strings"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/platform/phone"
)

// Fingerprint is lower(name)|strip(phone)|lower(email)|lower(project), each
// part trimmed. A lead with every field empty yields "|||".
func Fingerprint(name, phoneNumber, email, project string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" +
		phone.Strip(phoneNumber) + "|" +
		strings.ToLower(strings.TrimSpace(email)) + "|" +
		strings.ToLower(strings.TrimSpace(project))
}

// Of returns the fingerprint of a lead.
func Of(l domain.Lead) string {
	return Fingerprint(l.Name, l.Phone, l.Email, l.Project)
}

// Set holds the fingerprints of persisted leads plus those accepted in the
// current batch. It is not safe for concurrent use; a batch runs on one
// goroutine.
type Set struct {
	persisted map[string]struct{}
	batch     map[string]struct{}
}

// NewSet seeds the set from already persisted leads.
func NewSet(existing []domain.Lead) *Set {
	s := &Set{
		persisted: make(map[string]struct{}, len(existing)),
		batch:     make(map[string]struct{}),
	}
	for _, l := range existing {
		s.persisted[Of(l)] = struct{}{}
	}
	return s
}

// IsDuplicate reports whether the lead matches a persisted lead or one
// accepted earlier in this batch.
func (s *Set) IsDuplicate(l domain.Lead) bool {
	fp := Of(l)
	if _, ok := s.persisted[fp]; ok {
		return true
	}
	_, ok := s.batch[fp]
	return ok
}

// Accept records a lead as persisted within this batch. Call it only after
// the write succeeded so a failed write does not shadow a later retry.
func (s *Set) Accept(l domain.Lead) {
	s.batch[Of(l)] = struct{}{}
}

// Len returns the number of distinct fingerprints known to the set.
func (s *Set) Len() int {
	n := len(s.persisted)
	for fp := range s.batch {
		if _, ok := s.persisted[fp]; !ok {
			n++
		}
	}
	return n
}
