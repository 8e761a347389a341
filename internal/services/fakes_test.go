package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mealplanner/internal/domain"
)

// In-memory fakes shared by the service tests in this package.

type fakeProposalRepo struct {
	byID   map[string]*domain.Proposal
	nextID int
	err    error // if set, every call returns this error
}

func newFakeProposalRepo() *fakeProposalRepo {
	return &fakeProposalRepo{byID: make(map[string]*domain.Proposal), nextID: 1}
}

func (f *fakeProposalRepo) Create(ctx context.Context, p *domain.Proposal) error {
	if f.err != nil {
		return f.err
	}
	p.ID = fmt.Sprintf("p-%d", f.nextID)
	f.nextID++
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProposalRepo) GetByID(ctx context.Context, id string) (*domain.Proposal, error) {
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProposalRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]*domain.Proposal, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Proposal
	for _, p := range f.byID {
		if !p.Date.Before(from) && !p.Date.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProposalRepo) UpdateStartTime(ctx context.Context, id string, startTime *string) (*domain.Proposal, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.StartTime = startTime
	cp := *p
	return &cp, nil
}

func (f *fakeProposalRepo) ToggleDuty(ctx context.Context, id string, kind domain.DutyKind, userID string) (*domain.DutyChange, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	holder := p.GroceryUserID
	if kind == domain.DutyCook {
		holder = p.CookUserID
	}
	switch {
	case holder == nil:
		if kind == domain.DutyGrocery {
			p.GroceryUserID = &userID
		} else {
			p.CookUserID = &userID
		}
		cp := *p
		return &domain.DutyChange{Outcome: domain.DutyClaimed, Proposal: &cp}, nil
	case *holder == userID:
		if kind == domain.DutyGrocery {
			p.GroceryUserID = nil
		} else {
			p.CookUserID = nil
		}
		cp := *p
		return &domain.DutyChange{Outcome: domain.DutyUnclaimed, Proposal: &cp}, nil
	default:
		cp := *p
		return &domain.DutyChange{Outcome: domain.DutyRejected, Proposal: &cp, HeldBy: holder}, nil
	}
}

func (f *fakeProposalRepo) Delete(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type participantKey struct {
	proposalID string
	userID     string
}

type fakeParticipantRepo struct {
	rows   map[participantKey]*domain.Participant
	users  map[string]*domain.User // resolves ListUsersByProposalID
	nextID int
	err    error
}

func newFakeParticipantRepo(users map[string]*domain.User) *fakeParticipantRepo {
	return &fakeParticipantRepo{
		rows:  make(map[participantKey]*domain.Participant),
		users: users,
	}
}

func (f *fakeParticipantRepo) Create(ctx context.Context, p *domain.Participant) error {
	if f.err != nil {
		return f.err
	}
	key := participantKey{p.ProposalID, p.UserID}
	if _, ok := f.rows[key]; ok {
		return domain.ErrAlreadyJoined
	}
	f.nextID++
	p.ID = fmt.Sprintf("part-%d", f.nextID)
	f.rows[key] = p
	return nil
}

func (f *fakeParticipantRepo) GetByProposalAndUser(ctx context.Context, proposalID, userID string) (*domain.Participant, error) {
	if p, ok := f.rows[participantKey{proposalID, userID}]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeParticipantRepo) ListByProposalID(ctx context.Context, proposalID string) ([]*domain.Participant, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Participant
	for key, p := range f.rows {
		if key.proposalID == proposalID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) ListUsersByProposalID(ctx context.Context, proposalID string) ([]*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.User
	for key := range f.rows {
		if key.proposalID == proposalID {
			if u, ok := f.users[key.userID]; ok {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) Delete(ctx context.Context, proposalID, userID string) error {
	if f.err != nil {
		return f.err
	}
	key := participantKey{proposalID, userID}
	if _, ok := f.rows[key]; !ok {
		return domain.ErrNotFound
	}
	delete(f.rows, key)
	return nil
}

type fakeMessageRepo struct {
	messages []*domain.Message
	nextID   int
	err      error
}

func (f *fakeMessageRepo) Create(ctx context.Context, m *domain.Message) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	m.ID = fmt.Sprintf("m-%d", f.nextID)
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeMessageRepo) ListByProposalID(ctx context.Context, proposalID string) ([]*domain.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Message
	for _, m := range f.messages {
		if m.ProposalID == proposalID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeRecipeRepo struct {
	byID   map[string]*domain.Recipe
	nextID int
	err    error
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{byID: make(map[string]*domain.Recipe)}
}

func (f *fakeRecipeRepo) Create(ctx context.Context, r *domain.Recipe) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	r.ID = fmt.Sprintf("r-%d", f.nextID)
	f.byID[r.ID] = r
	return nil
}

func (f *fakeRecipeRepo) GetByID(ctx context.Context, id string) (*domain.Recipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.byID[id]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRecipeRepo) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Recipe, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	var out []*domain.Recipe
	for _, r := range f.byID {
		out = append(out, r)
	}
	return out, len(out), nil
}

func (f *fakeRecipeRepo) Update(ctx context.Context, id string, update *domain.RecipeUpdate) (*domain.Recipe, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if update.Title != nil {
		r.Title = *update.Title
	}
	if update.Ingredients != nil {
		r.Ingredients = *update.Ingredients
	}
	if update.Instructions != nil {
		r.Instructions = *update.Instructions
	}
	return r, nil
}

func (f *fakeRecipeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRecipeRepo) IncrementTimesCooked(ctx context.Context, id string) (*domain.Recipe, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r.TimesCooked++
	return r, nil
}

type fakeUserRepo struct {
	byID map[string]*domain.User
	err  error
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{byID: make(map[string]*domain.User)}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.byID {
		if existing.Username == u.Username {
			return domain.ErrDuplicateUsername
		}
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = fmt.Sprintf("u-%d", len(f.byID)+1)
	}
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.User
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	if f.err != nil {
		return f.err
	}
	stored, ok := f.byID[u.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	// Mirror the SQL UPDATE column set; password changes go through UpdatePassword.
	stored.Email = u.Email
	stored.Avatar = u.Avatar
	stored.NotifyNewProposal = u.NotifyNewProposal
	stored.NotifyDiscussion = u.NotifyDiscussion
	stored.NotifyBroadcast = u.NotifyBroadcast
	stored.UpdatedAt = u.UpdatedAt
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsAdmin = isAdmin
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeNotifier records dispatched events.
type fakeNotifier struct {
	mu     sync.Mutex
	events []*domain.Event
}

func (f *fakeNotifier) Dispatch(ctx context.Context, ev *domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeNotifier) kinds() []domain.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.EventKind, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Kind
	}
	return out
}

// fakeMailer records sent mail and optionally fails.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	to      string
	subject string
	html    string
	text    string
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, html, text string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to: to, subject: subject, html: html, text: text})
	return nil
}

func (f *fakeMailer) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.to
	}
	return out
}
