// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// Ticket event types.
const (
	EventTicketCreated = "ticket.created"
	EventTicketUpdated = "ticket.updated"
)

// TicketEvent is published whenever a ticket is created or updated.  It only
// carries identifiers and key names, never attribute values, so downstream
// consumers can audit activity without receiving personal data.
type TicketEvent struct {
	Type        string   `json:"type"`
	TicketID    int64    `json:"ticket_id"`
	Codigo      string   `json:"codigo"`
	UpdatedKeys []string `json:"updated_keys,omitempty"`
	OccurredAt  string   `json:"occurred_at"`
}
