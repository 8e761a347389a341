package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplanner/internal/delivery/http/middleware"
	"mealplanner/internal/domain"
)

// testLogger is a no-op logger so handler tests don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeProposalService implements domain.ProposalService for handler tests.
type fakeProposalService struct {
	createResult     *domain.Proposal
	createErr        error
	joinResult       *domain.Participant
	joinCreated      bool
	joinErr          error
	leaveRemoved     bool
	leaveErr         error
	toggleResult     *domain.DutyChange
	toggleErr        error
	changeTimeResult *domain.Proposal
	changeTimeErr    error
	postResult       *domain.Message
	postErr          error
	deleteErr        error
	getResult        *domain.ProposalDetail
	getErr           error
	listResult       []*domain.Proposal
	listErr          error

	lastToggleKind domain.DutyKind
	lastActorID    string
	lastProposalID string
	lastContent    string
	lastStartTime  *string
}

func (f *fakeProposalService) Create(ctx context.Context, recipeID string, date time.Time, startTime *string, actorID string) (*domain.Proposal, error) {
	f.lastActorID = actorID
	f.lastStartTime = startTime
	return f.createResult, f.createErr
}

func (f *fakeProposalService) Join(ctx context.Context, proposalID, actorID string) (*domain.Participant, bool, error) {
	f.lastProposalID = proposalID
	f.lastActorID = actorID
	return f.joinResult, f.joinCreated, f.joinErr
}

func (f *fakeProposalService) Leave(ctx context.Context, proposalID, actorID string) (bool, error) {
	f.lastProposalID = proposalID
	return f.leaveRemoved, f.leaveErr
}

func (f *fakeProposalService) ToggleDuty(ctx context.Context, proposalID string, kind domain.DutyKind, actorID string) (*domain.DutyChange, error) {
	f.lastProposalID = proposalID
	f.lastToggleKind = kind
	f.lastActorID = actorID
	return f.toggleResult, f.toggleErr
}

func (f *fakeProposalService) ChangeStartTime(ctx context.Context, proposalID string, startTime *string, actorID string) (*domain.Proposal, error) {
	f.lastProposalID = proposalID
	f.lastStartTime = startTime
	return f.changeTimeResult, f.changeTimeErr
}

func (f *fakeProposalService) PostMessage(ctx context.Context, proposalID, content, actorID string) (*domain.Message, error) {
	f.lastProposalID = proposalID
	f.lastContent = content
	return f.postResult, f.postErr
}

func (f *fakeProposalService) Delete(ctx context.Context, proposalID, actorID string) error {
	f.lastProposalID = proposalID
	f.lastActorID = actorID
	return f.deleteErr
}

func (f *fakeProposalService) Get(ctx context.Context, proposalID string) (*domain.ProposalDetail, error) {
	return f.getResult, f.getErr
}

func (f *fakeProposalService) ListByDateRange(ctx context.Context, from, to time.Time) ([]*domain.Proposal, error) {
	return f.listResult, f.listErr
}

func authedRequest(method, path, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "http://test"+path, nil)
	} else {
		req = httptest.NewRequest(method, "http://test"+path, bytes.NewBufferString(body))
	}
	return req.WithContext(middleware.SetUserID(req.Context(), "u-1"))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestProposalController_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svc        *fakeProposalService
		wantStatus int
		wantCode   string
	}{
		{
			name:       "success",
			body:       `{"recipe_id":"r-1","date":"2026-09-14","start_time":"18:30"}`,
			svc:        &fakeProposalService{createResult: &domain.Proposal{ID: "p-1", RecipeID: "r-1"}},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing recipe",
			body:       `{"date":"2026-09-14"}`,
			svc:        &fakeProposalService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
		},
		{
			name:       "bad date format",
			body:       `{"recipe_id":"r-1","date":"14.09.2026"}`,
			svc:        &fakeProposalService{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
		},
		{
			name:       "unknown recipe",
			body:       `{"recipe_id":"ghost","date":"2026-09-14"}`,
			svc:        &fakeProposalService{createErr: domain.ErrNotFound},
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "service failure",
			body:       `{"recipe_id":"r-1","date":"2026-09-14"}`,
			svc:        &fakeProposalService{createErr: errors.New("db down")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewProposalController(testLogger, tt.svc)
			rec := httptest.NewRecorder()
			c.Create(rec, authedRequest(http.MethodPost, "/proposals", tt.body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				env := decodeEnvelope(t, rec)
				errObj, ok := env["error"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, tt.wantCode, errObj["code"])
			}
		})
	}
}

func TestProposalController_Join(t *testing.T) {
	t.Run("new join returns 201 joined", func(t *testing.T) {
		svc := &fakeProposalService{joinResult: &domain.Participant{ID: "part-1", UserID: "u-1"}, joinCreated: true}
		c := NewProposalController(testLogger, svc)

		req := authedRequest(http.MethodPost, "/proposals/p-1/join", "")
		req.SetPathValue("proposalID", "p-1")
		rec := httptest.NewRecorder()
		c.Join(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "p-1", svc.lastProposalID)
		env := decodeEnvelope(t, rec)
		data := env["data"].(map[string]any)
		assert.Equal(t, "joined", data["state"])
	})

	t.Run("repeat join returns 200 already_joined", func(t *testing.T) {
		svc := &fakeProposalService{joinResult: &domain.Participant{ID: "part-1"}, joinCreated: false}
		c := NewProposalController(testLogger, svc)

		req := authedRequest(http.MethodPost, "/proposals/p-1/join", "")
		req.SetPathValue("proposalID", "p-1")
		rec := httptest.NewRecorder()
		c.Join(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		data := env["data"].(map[string]any)
		assert.Equal(t, "already_joined", data["state"])
	})

	t.Run("unknown proposal", func(t *testing.T) {
		svc := &fakeProposalService{joinErr: domain.ErrNotFound}
		c := NewProposalController(testLogger, svc)

		req := authedRequest(http.MethodPost, "/proposals/ghost/join", "")
		req.SetPathValue("proposalID", "ghost")
		rec := httptest.NewRecorder()
		c.Join(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		c := NewProposalController(testLogger, &fakeProposalService{})
		req := httptest.NewRequest(http.MethodPost, "http://test/proposals/p-1/join", nil)
		req.SetPathValue("proposalID", "p-1")
		rec := httptest.NewRecorder()
		c.Join(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestProposalController_ToggleDuty(t *testing.T) {
	holder := "u-2"

	t.Run("claim returns the change", func(t *testing.T) {
		svc := &fakeProposalService{toggleResult: &domain.DutyChange{
			Outcome:  domain.DutyClaimed,
			Proposal: &domain.Proposal{ID: "p-1", GroceryUserID: strPtrTest("u-1")},
		}}
		c := NewProposalController(testLogger, svc)

		req := authedRequest(http.MethodPost, "/proposals/p-1/claim_grocery", "")
		req.SetPathValue("proposalID", "p-1")
		rec := httptest.NewRecorder()
		c.ClaimGrocery(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.DutyGrocery, svc.lastToggleKind)
		env := decodeEnvelope(t, rec)
		data := env["data"].(map[string]any)
		assert.Equal(t, "claimed", data["outcome"])
	})

	t.Run("held by someone else returns 409", func(t *testing.T) {
		svc := &fakeProposalService{toggleResult: &domain.DutyChange{
			Outcome:  domain.DutyRejected,
			Proposal: &domain.Proposal{ID: "p-1", CookUserID: &holder},
			HeldBy:   &holder,
		}}
		c := NewProposalController(testLogger, svc)

		req := authedRequest(http.MethodPost, "/proposals/p-1/claim_cook", "")
		req.SetPathValue("proposalID", "p-1")
		rec := httptest.NewRecorder()
		c.ClaimCook(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, domain.DutyCook, svc.lastToggleKind)
		env := decodeEnvelope(t, rec)
		errObj := env["error"].(map[string]any)
		assert.Equal(t, "conflict", errObj["code"])
	})
}

func TestProposalController_ChangeStartTime(t *testing.T) {
	t.Run("null clears", func(t *testing.T) {
		svc := &fakeProposalService{changeTimeResult: &domain.Proposal{ID: "p-1"}}
		c := NewProposalController(testLogger, svc)

		req := authedRequest(http.MethodPost, "/proposals/p-1/start_time", `{"start_time":null}`)
		req.SetPathValue("proposalID", "p-1")
		rec := httptest.NewRecorder()
		c.ChangeStartTime(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, svc.lastStartTime)
	})

	t.Run("forbidden for non-proposer", func(t *testing.T) {
		svc := &fakeProposalService{changeTimeErr: domain.ErrForbidden}
		c := NewProposalController(testLogger, svc)

		req := authedRequest(http.MethodPost, "/proposals/p-1/start_time", `{"start_time":"19:00"}`)
		req.SetPathValue("proposalID", "p-1")
		rec := httptest.NewRecorder()
		c.ChangeStartTime(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestProposalController_PostMessage(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeProposalService{postResult: &domain.Message{ID: "m-1", Content: "hello"}}
		c := NewProposalController(testLogger, svc)

		req := authedRequest(http.MethodPost, "/proposals/p-1/messages", `{"content":"hello"}`)
		req.SetPathValue("proposalID", "p-1")
		rec := httptest.NewRecorder()
		c.PostMessage(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "hello", svc.lastContent)
	})

	t.Run("empty content", func(t *testing.T) {
		svc := &fakeProposalService{postErr: domain.ErrInvalidInput}
		c := NewProposalController(testLogger, svc)

		req := authedRequest(http.MethodPost, "/proposals/p-1/messages", `{"content":"   "}`)
		req.SetPathValue("proposalID", "p-1")
		rec := httptest.NewRecorder()
		c.PostMessage(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProposalController_List(t *testing.T) {
	t.Run("missing range params", func(t *testing.T) {
		c := NewProposalController(testLogger, &fakeProposalService{})
		rec := httptest.NewRecorder()
		c.List(rec, authedRequest(http.MethodGet, "/proposals", ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		svc := &fakeProposalService{listResult: []*domain.Proposal{{ID: "p-1"}, {ID: "p-2"}}}
		c := NewProposalController(testLogger, svc)
		rec := httptest.NewRecorder()
		c.List(rec, authedRequest(http.MethodGet, "/proposals?from=2026-09-08&to=2026-09-14", ""))

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Len(t, env["data"], 2)
	})
}

func strPtrTest(s string) *string { return &s }
