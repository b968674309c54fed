package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

type ticketRecord struct {
	ticket domain.Ticket
	seq    int64
}

// TicketStore is a map-backed repository.TicketRepository.
type TicketStore struct {
	mu      sync.RWMutex
	records map[string]ticketRecord
	nextSeq int64
}

// NewTicketStore builds an empty store.
func NewTicketStore() *TicketStore {
	return &TicketStore{records: make(map[string]ticketRecord)}
}

// Create stores the ticket with a generated id and timestamp.
func (s *TicketStore) Create(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket.ID = uuid.NewString()
	ticket.CreatedAt = time.Now()
	s.nextSeq++
	s.records[ticket.ID] = ticketRecord{ticket: *ticket, seq: s.nextSeq}
	return nil
}

// GetByID looks a ticket up by id.
func (s *TicketStore) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ticket := rec.ticket
	return &ticket, nil
}

// ListByOwner returns the owner's tickets newest-first.
func (s *TicketStore) ListByOwner(_ context.Context, userID string) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(func(t domain.Ticket) bool { return t.UserID == userID }), nil
}

// ListAll returns every ticket newest-first.
func (s *TicketStore) ListAll(_ context.Context) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(func(domain.Ticket) bool { return true }), nil
}

// UpdateStatus overwrites the ticket status.
func (s *TicketStore) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rec.ticket.Status = status
	s.records[id] = rec
	ticket := rec.ticket
	return &ticket, nil
}

func (s *TicketStore) list(keep func(domain.Ticket) bool) []domain.Ticket {
	matched := make([]ticketRecord, 0, len(s.records))
	for _, rec := range s.records {
		if keep(rec.ticket) {
			matched = append(matched, rec)
		}
	}
	// seq breaks ties between tickets created in the same instant
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].ticket.CreatedAt.Equal(matched[j].ticket.CreatedAt) {
			return matched[i].seq > matched[j].seq
		}
		return matched[i].ticket.CreatedAt.After(matched[j].ticket.CreatedAt)
	})

	result := make([]domain.Ticket, 0, len(matched))
	for _, rec := range matched {
		result = append(result, rec.ticket)
	}
	return result
}
