package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

const queryPreviewLen = 80

// TicketService coordinates ticket workflows: submission and own-list
// for end-users, full listing and status transitions for the admin.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// NewTicketService constructs the service. dispatcher may be nil when
// no event consumers are registered.
func NewTicketService(tickets repository.TicketRepository, users repository.UserRepository, dispatcher events.Dispatcher) *TicketService {
	return &TicketService{tickets: tickets, users: users, dispatcher: dispatcher}
}

// Submit creates a ticket owned by the calling user. The owner's email
// and name are copied onto the ticket at creation time.
func (s *TicketService) Submit(ctx context.Context, principal domain.Principal, query string) (*domain.Ticket, error) {
	if !principal.IsUser() {
		return nil, apperrors.NewForbidden("end-user required")
	}
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewValidationError("query must not be empty")
	}

	owner, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("user no longer exists")
		}
		return nil, err
	}

	ticket := &domain.Ticket{
		UserID:    owner.ID,
		UserEmail: owner.Email,
		UserName:  owner.FullName,
		Query:     query,
		Status:    domain.TicketStatusPending,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketSubmitted,
		TicketID:  ticket.ID,
		Actor:     events.Actor{Role: principal.Role, UserID: principal.UserID},
		Timestamp: time.Now(),
		Payload: events.TicketSubmittedPayload{
			UserEmail:    ticket.UserEmail,
			QueryPreview: preview(ticket.Query),
		},
	})
	return ticket, nil
}

// ListOwn returns the caller's tickets newest-first.
func (s *TicketService) ListOwn(ctx context.Context, principal domain.Principal) ([]domain.Ticket, error) {
	if !principal.IsUser() {
		return nil, apperrors.NewForbidden("end-user required")
	}
	return s.tickets.ListByOwner(ctx, principal.UserID)
}

// ListAll returns every ticket newest-first. Admin only.
func (s *TicketService) ListAll(ctx context.Context, principal domain.Principal) ([]domain.Ticket, error) {
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("admin required")
	}
	return s.tickets.ListAll(ctx)
}

// SetStatus overwrites a ticket's status. Admin only; setting the
// current value again is a success no-op.
func (s *TicketService) SetStatus(ctx context.Context, principal domain.Principal, ticketID, rawStatus string) (*domain.Ticket, error) {
	if !principal.IsAdmin() {
		return nil, apperrors.NewForbidden("admin required")
	}
	status, ok := domain.ParseTicketStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewValidationError("status must be pending or checked")
	}

	current, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}

	updated, err := s.tickets.UpdateStatus(ctx, ticketID, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketStatusChanged,
		TicketID:  updated.ID,
		Actor:     events.Actor{Role: principal.Role},
		Timestamp: time.Now(),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: current.Status,
			NewStatus: updated.Status,
		},
	})
	return updated, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func preview(query string) string {
	if len(query) <= queryPreviewLen {
		return query
	}
	return query[:queryPreviewLen]
}
