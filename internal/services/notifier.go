package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"mealplanner/internal/domain"
)

type notifier struct {
	userRepo        domain.UserRepository
	participantRepo domain.ParticipantRepository
	recipeRepo      domain.RecipeRepository
	mailer          domain.Mailer
	renderer        domain.EmailTemplateRenderer
	siteHost        string
	sendTimeout     time.Duration
	logger          *slog.Logger
}

// NewNotifier creates the notification dispatcher. It maps each domain event
// to a recipient set and a rendered subject/html/text triple, then hands the
// result to the mailer. Delivery is fire-and-forget relative to the state
// change that already committed: every failure is logged and swallowed.
func NewNotifier(
	userRepo domain.UserRepository,
	participantRepo domain.ParticipantRepository,
	recipeRepo domain.RecipeRepository,
	mailer domain.Mailer,
	renderer domain.EmailTemplateRenderer,
	siteHost string,
	sendTimeout time.Duration,
	logger *slog.Logger,
) domain.Notifier {
	return &notifier{
		userRepo:        userRepo,
		participantRepo: participantRepo,
		recipeRepo:      recipeRepo,
		mailer:          mailer,
		renderer:        renderer,
		siteHost:        siteHost,
		sendTimeout:     sendTimeout,
		logger:          logger,
	}
}

func (n *notifier) Dispatch(ctx context.Context, ev *domain.Event) {
	// Dispatch runs outside any storage transaction and may be slow; bound it
	// so a stalled mail relay cannot stall the request indefinitely.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.sendTimeout)
	defer cancel()

	recipients, err := n.resolveRecipients(ctx, ev)
	if err != nil {
		n.logger.Warn("notification recipients unresolved", "event", ev.Kind, "err", err)
		return
	}

	// Never notify the actor about their own action; drop users without an address.
	actorID := ""
	if ev.Actor != nil {
		actorID = ev.Actor.ID
	}
	recipients = lo.Filter(recipients, func(u *domain.User, _ int) bool {
		return u.Email != "" && u.ID != actorID
	})
	recipients = lo.UniqBy(recipients, func(u *domain.User) string { return u.ID })
	if len(recipients) == 0 {
		return
	}

	subject, intro, err := n.composeLines(ctx, ev)
	if err != nil {
		n.logger.Warn("notification compose failed", "event", ev.Kind, "err", err)
		return
	}

	link := ""
	if ev.Proposal != nil {
		link = fmt.Sprintf("%s/proposals/%s/messages", n.siteHost, ev.Proposal.ID)
	}

	template := "notification"
	if ev.Kind == domain.EventBroadcast {
		template = "broadcast"
	}

	delivered := 0
	for _, u := range recipients {
		data := &domain.NotificationEmailData{
			Subject:  subject,
			Intro:    intro,
			Detail:   ev.Detail,
			Link:     link,
			Username: u.Username,
		}
		subj, html, text, err := n.renderer.Render(template, data)
		if err != nil {
			n.logger.Warn("notification render failed", "event", ev.Kind, "err", err)
			return
		}
		if err := ctx.Err(); err != nil {
			n.logger.Warn("notification send timed out", "event", ev.Kind, "delivered", delivered, "err", err)
			return
		}
		if err := n.mailer.Send(ctx, u.Email, subj, html, text); err != nil {
			n.logger.Warn("notification send failed", "event", ev.Kind, "to", u.Email, "err", err)
			continue
		}
		delivered++
	}
	n.logger.Info("notification dispatched", "event", ev.Kind, "recipients", len(recipients), "delivered", delivered)
}

// resolveRecipients applies the per-event-kind rule table:
//
//	proposal_created          -> all users opted into new-proposal mail
//	participant/duty/message/
//	start_time events         -> current participants opted into discussion mail
//	proposal_removed          -> participant set captured pre-deletion, unfiltered
//	broadcast                 -> all users opted into broadcast mail
func (n *notifier) resolveRecipients(ctx context.Context, ev *domain.Event) ([]*domain.User, error) {
	switch ev.Kind {
	case domain.EventProposalCreated:
		users, err := n.userRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		return lo.Filter(users, func(u *domain.User, _ int) bool { return u.NotifyNewProposal }), nil

	case domain.EventProposalRemoved:
		// Removal notices always go out; the rows are gone, so the engine
		// captured the set before deleting.
		return ev.Recipients, nil

	case domain.EventBroadcast:
		users, err := n.userRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		return lo.Filter(users, func(u *domain.User, _ int) bool { return u.NotifyBroadcast }), nil

	default:
		if ev.Proposal == nil {
			return nil, errors.New("event has no proposal")
		}
		users, err := n.participantRepo.ListUsersByProposalID(ctx, ev.Proposal.ID)
		if err != nil {
			return nil, fmt.Errorf("list participants: %w", err)
		}
		// Start-time changes respect the discussion opt-in like every other
		// participant-scoped notification.
		return lo.Filter(users, func(u *domain.User, _ int) bool { return u.NotifyDiscussion }), nil
	}
}

func (n *notifier) composeLines(ctx context.Context, ev *domain.Event) (subject, intro string, err error) {
	if ev.Kind == domain.EventBroadcast {
		return ev.Subject, ev.Detail, nil
	}
	if ev.Proposal == nil {
		return "", "", errors.New("event has no proposal")
	}

	title := n.recipeTitle(ctx, ev.Proposal)
	date := fmt.Sprintf("%d.%d.", ev.Proposal.Date.Day(), int(ev.Proposal.Date.Month()))
	actor := "Someone"
	if ev.Actor != nil && ev.Actor.Username != "" {
		actor = ev.Actor.Username
	}

	switch ev.Kind {
	case domain.EventProposalCreated:
		return fmt.Sprintf("New meal proposal: %s on %s", title, date),
			fmt.Sprintf("%s proposed %s for %s.", actor, title, date), nil
	case domain.EventParticipantJoined:
		return fmt.Sprintf("%s joined: %s on %s", actor, title, date),
			fmt.Sprintf("%s joined the meal %s on %s.", actor, title, date), nil
	case domain.EventParticipantLeft:
		return fmt.Sprintf("%s left: %s on %s", actor, title, date),
			fmt.Sprintf("%s left the meal %s on %s.", actor, title, date), nil
	case domain.EventGroceryClaimed:
		return fmt.Sprintf("Groceries covered: %s on %s", title, date),
			fmt.Sprintf("%s will do the groceries for %s on %s.", actor, title, date), nil
	case domain.EventGroceryUnclaimed:
		return fmt.Sprintf("Groceries open again: %s on %s", title, date),
			fmt.Sprintf("%s no longer does the groceries for %s on %s.", actor, title, date), nil
	case domain.EventCookClaimed:
		return fmt.Sprintf("Cook found: %s on %s", title, date),
			fmt.Sprintf("%s will cook %s on %s.", actor, title, date), nil
	case domain.EventCookUnclaimed:
		return fmt.Sprintf("Cook needed again: %s on %s", title, date),
			fmt.Sprintf("%s no longer cooks %s on %s.", actor, title, date), nil
	case domain.EventMessagePosted:
		return fmt.Sprintf("New message: %s on %s", title, date),
			fmt.Sprintf("%s wrote in the discussion of %s on %s:", actor, title, date), nil
	case domain.EventStartTimeChanged:
		return fmt.Sprintf("Start time changed: %s on %s", title, date),
			fmt.Sprintf("%s changed the start time of %s on %s to:", actor, title, date), nil
	case domain.EventProposalRemoved:
		return fmt.Sprintf("Meal cancelled: %s on %s", title, date),
			fmt.Sprintf("%s removed the meal %s on %s.", actor, title, date), nil
	default:
		return "", "", fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

// recipeTitle resolves the recipe title for subject lines; falls back to a
// generic word when the recipe is already gone.
func (n *notifier) recipeTitle(ctx context.Context, p *domain.Proposal) string {
	recipe, err := n.recipeRepo.GetByID(ctx, p.RecipeID)
	if err != nil || recipe == nil {
		return "a meal"
	}
	return recipe.Title
}
