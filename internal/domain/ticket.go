package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. The enum is
// closed: pending and checked, with admin-only transitions both ways.
type TicketStatus string

const (
	TicketStatusPending TicketStatus = "pending"
	TicketStatusChecked TicketStatus = "checked"
)

// ParseTicketStatus validates a raw status value against the enum.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	switch TicketStatus(raw) {
	case TicketStatusPending, TicketStatusChecked:
		return TicketStatus(raw), true
	default:
		return "", false
	}
}

// Ticket is the aggregate for support queries. Owner email and name are
// denormalized from the User record at creation time for display.
type Ticket struct {
	ID        string
	UserID    string
	UserEmail string
	UserName  string
	Query     string
	Status    TicketStatus
	CreatedAt time.Time
}
