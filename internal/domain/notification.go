package domain

import "context"

// EventKind names a notifiable state change.
type EventKind string

const (
	EventProposalCreated   EventKind = "proposal_created"
	EventParticipantJoined EventKind = "participant_joined"
	EventParticipantLeft   EventKind = "participant_left"
	EventGroceryClaimed    EventKind = "grocery_claimed"
	EventGroceryUnclaimed  EventKind = "grocery_unclaimed"
	EventCookClaimed       EventKind = "cook_claimed"
	EventCookUnclaimed     EventKind = "cook_unclaimed"
	EventMessagePosted     EventKind = "message_posted"
	EventProposalRemoved   EventKind = "proposal_removed"
	EventStartTimeChanged  EventKind = "start_time_changed"
	// EventBroadcast is admin-initiated and not tied to a proposal.
	EventBroadcast EventKind = "broadcast"
)

// Event is an in-memory record of a successful state change, consumed only
// by the notification path and then discarded. It is never persisted.
type Event struct {
	Kind  EventKind
	Actor *User
	// Proposal is a snapshot taken at emission time; for EventProposalRemoved
	// it describes a row that no longer exists. Nil for EventBroadcast.
	Proposal *Proposal
	// Detail is an optional free-text supplement: message content, the new
	// start time, or the broadcast body.
	Detail string
	// Subject overrides the rendered subject line. Broadcast only.
	Subject string
	// Recipients is the participant set captured before deletion. Set only
	// for EventProposalRemoved, where the rows are gone by dispatch time.
	Recipients []*User
}

// Notifier dispatches a domain event to its recipients. Dispatch is
// best-effort and must be called after the state change committed: delivery
// failures are logged and never surface to the triggering operation.
type Notifier interface {
	Dispatch(ctx context.Context, ev *Event)
}

// Mailer defines the contract for sending emails (infrastructure port).
// Send must respect ctx so a stalled relay cannot outlive the caller's deadline.
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// NotificationEmailData holds data for the shared notification template.
type NotificationEmailData struct {
	Subject  string
	Intro    string
	Detail   string
	Link     string
	Username string
}
