package domain

import (
	"context"
	"time"
)

// Proposal represents one recipe scheduled for one calendar date, optionally
// with a wall-clock start time, around which participation and duties are
// coordinated. Recipe and proposer are immutable after creation.
// swagger:model Proposal
type Proposal struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	StartTime  *string   `json:"start_time,omitempty"` // "HH:MM", nil when unset
	RecipeID   string    `json:"recipe_id"`
	ProposerID string    `json:"proposer_id"`
	// Duty holders. At most one each, independently nullable; a holder does
	// not have to be a participant.
	GroceryUserID *string   `json:"grocery_user_id,omitempty"`
	CookUserID    *string   `json:"cook_user_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewProposal returns a new Proposal. ID is typically set by the repository on create.
func NewProposal(recipeID, proposerID string, date time.Time, startTime *string, createdAt time.Time) *Proposal {
	return &Proposal{
		Date:       date,
		StartTime:  startTime,
		RecipeID:   recipeID,
		ProposerID: proposerID,
		CreatedAt:  createdAt,
	}
}

// Participant represents one user's commitment to attend a Proposal.
// The pair (user, proposal) is unique.
// swagger:model Participant
type Participant struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ProposalID string    `json:"proposal_id"`
	JoinedAt   time.Time `json:"joined_at"`
}

// NewParticipant returns a new Participant. ID is typically set by the repository on create.
func NewParticipant(proposalID, userID string, joinedAt time.Time) *Participant {
	return &Participant{
		UserID:     userID,
		ProposalID: proposalID,
		JoinedAt:   joinedAt,
	}
}

// Message is an append-only discussion entry on a Proposal. Messages are
// never edited or individually deleted; they go away only when their
// proposal is deleted.
// swagger:model Message
type Message struct {
	ID         string    `json:"id"`
	ProposalID string    `json:"proposal_id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewMessage returns a new Message. ID is typically set by the repository on create.
func NewMessage(proposalID, userID, content string, createdAt time.Time) *Message {
	return &Message{
		ProposalID: proposalID,
		UserID:     userID,
		Content:    content,
		CreatedAt:  createdAt,
	}
}

// DutyKind identifies one of the two single-holder duties on a proposal.
type DutyKind string

const (
	DutyGrocery DutyKind = "grocery"
	DutyCook    DutyKind = "cook"
)

// Valid reports whether k is a known duty kind.
func (k DutyKind) Valid() bool {
	return k == DutyGrocery || k == DutyCook
}

// DutyOutcome is the result of a duty toggle.
type DutyOutcome string

const (
	// DutyClaimed: the duty was unset and is now held by the actor.
	DutyClaimed DutyOutcome = "claimed"
	// DutyUnclaimed: the actor held the duty and released it.
	DutyUnclaimed DutyOutcome = "unclaimed"
	// DutyRejected: another user holds the duty; nothing changed.
	DutyRejected DutyOutcome = "rejected"
)

// DutyChange reports the outcome of a duty toggle. Proposal is the row after
// the toggle (or the unchanged row on rejection). HeldBy is set on rejection
// to the current holder's user ID.
type DutyChange struct {
	Outcome  DutyOutcome `json:"outcome"`
	Proposal *Proposal   `json:"proposal"`
	HeldBy   *string     `json:"held_by,omitempty"`
}

// ProposalDetail bundles a proposal with its participants and discussion.
type ProposalDetail struct {
	Proposal     *Proposal      `json:"proposal"`
	Recipe       *Recipe        `json:"recipe"`
	Participants []*Participant `json:"participants"`
	Messages     []*Message     `json:"messages"`
}

// ProposalRepository defines storage operations for proposals.
type ProposalRepository interface {
	Create(ctx context.Context, p *Proposal) error
	GetByID(ctx context.Context, id string) (*Proposal, error)
	// ListByDateRange returns proposals with from <= date <= to, ordered by
	// date then creation time.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*Proposal, error)
	UpdateStartTime(ctx context.Context, id string, startTime *string) (*Proposal, error)
	// ToggleDuty runs the read-decide-write for one duty kind under a
	// row-level lock so concurrent toggles for the same proposal serialize.
	ToggleDuty(ctx context.Context, id string, kind DutyKind, userID string) (*DutyChange, error)
	// Delete removes the proposal; participants and messages go with it via
	// the schema cascade, in the same transaction.
	Delete(ctx context.Context, id string) error
}

// ParticipantRepository defines storage operations for proposal participants.
type ParticipantRepository interface {
	// Create inserts the participant row. Returns ErrAlreadyJoined when the
	// (user, proposal) uniqueness constraint rejects the insert.
	Create(ctx context.Context, p *Participant) error
	GetByProposalAndUser(ctx context.Context, proposalID, userID string) (*Participant, error)
	// ListByProposalID returns participants ordered by join time.
	ListByProposalID(ctx context.Context, proposalID string) ([]*Participant, error)
	// ListUsersByProposalID returns the participating users (join through
	// the users table), ordered by join time. Used for recipient resolution.
	ListUsersByProposalID(ctx context.Context, proposalID string) ([]*User, error)
	// Delete removes the participant row; ErrNotFound when no row matched.
	Delete(ctx context.Context, proposalID, userID string) error
}

// MessageRepository defines storage operations for discussion messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	// ListByProposalID returns messages ordered by creation time ascending.
	ListByProposalID(ctx context.Context, proposalID string) ([]*Message, error)
}

// ProposalService is the commitment engine: the sole writer of proposal,
// participant, and duty state. Every successful mutation emits exactly one
// domain event toward the notification dispatcher, after the storage write.
type ProposalService interface {
	// Create proposes the recipe for the date. Duplicate (date, recipe)
	// proposals are allowed. startTime is "HH:MM" or nil.
	Create(ctx context.Context, recipeID string, date time.Time, startTime *string, actorID string) (*Proposal, error)
	// Join commits the actor to the proposal. The bool is true when a new
	// participant row was created, false when the actor was already joined
	// (side-effect free, no event).
	Join(ctx context.Context, proposalID, actorID string) (*Participant, bool, error)
	// Leave removes the actor's commitment. The bool is true when a row was
	// actually removed; leaving when not joined is not an error.
	Leave(ctx context.Context, proposalID, actorID string) (bool, error)
	// ToggleDuty claims, releases, or rejects per the single shared
	// algorithm: holder==actor -> unclaim; holder set otherwise -> reject;
	// unset -> claim.
	ToggleDuty(ctx context.Context, proposalID string, kind DutyKind, actorID string) (*DutyChange, error)
	// ChangeStartTime sets or clears (nil) the start time. Proposer or
	// admin only. An event fires on every success, same-value updates included.
	ChangeStartTime(ctx context.Context, proposalID string, startTime *string, actorID string) (*Proposal, error)
	// PostMessage appends a discussion entry. Participation is not required.
	PostMessage(ctx context.Context, proposalID, content, actorID string) (*Message, error)
	// Delete removes the proposal and all its participants and messages.
	// Proposer or admin only. The removal notice goes to the participant set
	// captured before deletion.
	Delete(ctx context.Context, proposalID, actorID string) error

	Get(ctx context.Context, proposalID string) (*ProposalDetail, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*Proposal, error)
}
