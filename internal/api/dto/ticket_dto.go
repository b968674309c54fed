package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// SubmitTicketRequest payload.
type SubmitTicketRequest struct {
	Query string `json:"query"`
}

// SetStatusRequest payload for status transitions.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// TicketResponse is the wire shape for tickets. The _id key is part of
// the existing client contract.
type TicketResponse struct {
	ID        string              `json:"_id"`
	UserEmail string              `json:"userEmail"`
	UserName  string              `json:"userName"`
	Query     string              `json:"query"`
	Status    domain.TicketStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:        ticket.ID,
		UserEmail: ticket.UserEmail,
		UserName:  ticket.UserName,
		Query:     ticket.Query,
		Status:    ticket.Status,
		CreatedAt: ticket.CreatedAt,
	}
}

// NewTicketResponses maps a slice preserving order.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return items
}
