package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"mealplanner/internal/domain"
)

// startTimeRe matches a 24h wall-clock time "HH:MM".
var startTimeRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type proposalService struct {
	proposalRepo    domain.ProposalRepository
	participantRepo domain.ParticipantRepository
	messageRepo     domain.MessageRepository
	recipeRepo      domain.RecipeRepository
	userRepo        domain.UserRepository
	notifier        domain.Notifier
	contextTimeout  time.Duration
}

// NewProposalService creates the commitment engine with the given
// repositories and notification dispatcher.
func NewProposalService(
	proposalRepo domain.ProposalRepository,
	participantRepo domain.ParticipantRepository,
	messageRepo domain.MessageRepository,
	recipeRepo domain.RecipeRepository,
	userRepo domain.UserRepository,
	notifier domain.Notifier,
	timeout time.Duration,
) domain.ProposalService {
	return &proposalService{
		proposalRepo:    proposalRepo,
		participantRepo: participantRepo,
		messageRepo:     messageRepo,
		recipeRepo:      recipeRepo,
		userRepo:        userRepo,
		notifier:        notifier,
		contextTimeout:  timeout,
	}
}

func (s *proposalService) Create(ctx context.Context, recipeID string, date time.Time, startTime *string, actorID string) (*domain.Proposal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	st, err := normalizeStartTime(startTime)
	if err != nil {
		return nil, err
	}

	// Ensure the recipe exists. No uniqueness constraint on (date, recipe):
	// duplicate proposals on the same day are allowed.
	if _, err := s.recipeRepo.GetByID(ctx, recipeID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	p := domain.NewProposal(recipeID, actorID, date, st, time.Now())
	if err := s.proposalRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create proposal: %w", err)
	}

	s.emit(ctx, &domain.Event{Kind: domain.EventProposalCreated, Proposal: p}, actorID)
	return p, nil
}

func (s *proposalService) Join(ctx context.Context, proposalID, actorID string) (*domain.Participant, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("get proposal: %w", err)
	}

	part := domain.NewParticipant(proposalID, actorID, time.Now())
	if err := s.participantRepo.Create(ctx, part); err != nil {
		if errors.Is(err, domain.ErrAlreadyJoined) {
			// The uniqueness constraint closed a concurrent double-submission
			// or a repeat click. Report the existing row, emit nothing.
			existing, err := s.participantRepo.GetByProposalAndUser(ctx, proposalID, actorID)
			if err != nil {
				return nil, false, fmt.Errorf("get participant: %w", err)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create participant: %w", err)
	}

	s.emit(ctx, &domain.Event{Kind: domain.EventParticipantJoined, Proposal: p}, actorID)
	return part, true, nil
}

func (s *proposalService) Leave(ctx context.Context, proposalID, actorID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, domain.ErrNotFound
		}
		return false, fmt.Errorf("get proposal: %w", err)
	}

	if err := s.participantRepo.Delete(ctx, proposalID, actorID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Was not joined; nothing removed, nothing emitted.
			return false, nil
		}
		return false, fmt.Errorf("delete participant: %w", err)
	}

	s.emit(ctx, &domain.Event{Kind: domain.EventParticipantLeft, Proposal: p}, actorID)
	return true, nil
}

func (s *proposalService) ToggleDuty(ctx context.Context, proposalID string, kind domain.DutyKind, actorID string) (*domain.DutyChange, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !kind.Valid() {
		return nil, domain.ErrInvalidInput
	}

	change, err := s.proposalRepo.ToggleDuty(ctx, proposalID, kind, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("toggle %s duty: %w", kind, err)
	}

	if change.Outcome != domain.DutyRejected {
		s.emit(ctx, &domain.Event{Kind: dutyEventKind(kind, change.Outcome), Proposal: change.Proposal}, actorID)
	}
	return change, nil
}

func dutyEventKind(kind domain.DutyKind, outcome domain.DutyOutcome) domain.EventKind {
	if kind == domain.DutyGrocery {
		if outcome == domain.DutyClaimed {
			return domain.EventGroceryClaimed
		}
		return domain.EventGroceryUnclaimed
	}
	if outcome == domain.DutyClaimed {
		return domain.EventCookClaimed
	}
	return domain.EventCookUnclaimed
}

func (s *proposalService) ChangeStartTime(ctx context.Context, proposalID string, startTime *string, actorID string) (*domain.Proposal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	st, err := normalizeStartTime(startTime)
	if err != nil {
		return nil, err
	}

	p, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	if err := s.requireProposerOrAdmin(ctx, p, actorID); err != nil {
		return nil, err
	}

	updated, err := s.proposalRepo.UpdateStartTime(ctx, proposalID, st)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update start time: %w", err)
	}

	detail := "cleared"
	if st != nil {
		detail = *st
	}
	// Fires even for same-value updates: notification delivery is
	// at-least-once, not deduplicated by value equality.
	s.emit(ctx, &domain.Event{Kind: domain.EventStartTimeChanged, Proposal: updated, Detail: detail}, actorID)
	return updated, nil
}

func (s *proposalService) PostMessage(ctx context.Context, proposalID, content, actorID string) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrInvalidInput
	}

	p, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get proposal: %w", err)
	}

	m := domain.NewMessage(proposalID, actorID, content, time.Now())
	if err := s.messageRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.emit(ctx, &domain.Event{Kind: domain.EventMessagePosted, Proposal: p, Detail: content}, actorID)
	return m, nil
}

func (s *proposalService) Delete(ctx context.Context, proposalID, actorID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get proposal: %w", err)
	}
	if err := s.requireProposerOrAdmin(ctx, p, actorID); err != nil {
		return err
	}

	// Capture the removal-notice recipients before the rows are gone.
	recipients, err := s.participantRepo.ListUsersByProposalID(ctx, proposalID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}

	if err := s.proposalRepo.Delete(ctx, proposalID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete proposal: %w", err)
	}

	s.emit(ctx, &domain.Event{Kind: domain.EventProposalRemoved, Proposal: p, Recipients: recipients}, actorID)
	return nil
}

func (s *proposalService) Get(ctx context.Context, proposalID string) (*domain.ProposalDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	recipe, err := s.recipeRepo.GetByID(ctx, p.RecipeID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	participants, err := s.participantRepo.ListByProposalID(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	if participants == nil {
		participants = []*domain.Participant{}
	}
	messages, err := s.messageRepo.ListByProposalID(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if messages == nil {
		messages = []*domain.Message{}
	}
	return &domain.ProposalDetail{
		Proposal:     p,
		Recipe:       recipe,
		Participants: participants,
		Messages:     messages,
	}, nil
}

func (s *proposalService) ListByDateRange(ctx context.Context, from, to time.Time) ([]*domain.Proposal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	proposals, err := s.proposalRepo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	if proposals == nil {
		proposals = []*domain.Proposal{}
	}
	return proposals, nil
}

// requireProposerOrAdmin allows the original proposer or an admin actor.
func (s *proposalService) requireProposerOrAdmin(ctx context.Context, p *domain.Proposal, actorID string) error {
	if p.ProposerID == actorID {
		return nil
	}
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrNotFound) {
			return domain.ErrForbidden
		}
		return fmt.Errorf("get actor: %w", err)
	}
	if !actor.IsAdmin {
		return domain.ErrForbidden
	}
	return nil
}

// emit resolves the actor and hands the event to the dispatcher. It runs
// after the state change committed; the dispatcher owns its own timeout and
// swallows delivery failures, so emit never fails the calling operation.
func (s *proposalService) emit(ctx context.Context, ev *domain.Event, actorID string) {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err == nil {
		ev.Actor = actor
	} else {
		ev.Actor = &domain.User{ID: actorID}
	}
	s.notifier.Dispatch(ctx, ev)
}

func normalizeStartTime(startTime *string) (*string, error) {
	if startTime == nil {
		return nil, nil
	}
	st := strings.TrimSpace(*startTime)
	if st == "" {
		return nil, nil
	}
	if !startTimeRe.MatchString(st) {
		return nil, domain.ErrInvalidInput
	}
	return &st, nil
}
