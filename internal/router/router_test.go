package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/anonto42/skillpath/friend-service/internal/middleware"
	"github.com/anonto42/skillpath/friend-service/internal/models"
	"github.com/anonto42/skillpath/friend-service/internal/repositories"
	"github.com/anonto42/skillpath/friend-service/internal/services"
	"github.com/anonto42/skillpath/friend-service/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "router-test-secret"

type testServer struct {
	e *echo.Echo
}

// memoryActivities is an in-process journal with the same visibility rules as the
// Mongo repository.
type memoryActivities struct {
	mu      sync.Mutex
	entries []models.Activity
}

func (m *memoryActivities) Record(_ context.Context, a *models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *a)
	return nil
}

func (m *memoryActivities) ListByUser(_ context.Context, userID string, skip, limit int64) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Activity{}
	for i := len(m.entries) - 1; i >= 0; i-- {
		a := m.entries[i]
		if a.ActorID == userID || (a.TargetID == userID && a.Type.VisibleToTarget()) {
			out = append(out, a)
		}
	}
	if skip >= int64(len(out)) {
		return []models.Activity{}, nil
	}
	out = out[skip:]
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryActivities) DeleteByUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	for _, a := range m.entries {
		if a.ActorID != userID && a.TargetID != userID {
			kept = append(kept, a)
		}
	}
	deleted := int64(len(m.entries) - len(kept))
	m.entries = kept
	return deleted, nil
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithActivities(t, repositories.NopActivityRepository{})
}

func newTestServerWithActivities(t *testing.T, activities repositories.ActivityRepository) *testServer {
	t.Helper()
	cfg := &config.Config{
		Env:            "test",
		DatabaseDriver: "sqlite",
		SQLitePath:     filepath.Join(t.TempDir(), "friends.db"),
	}
	db, err := config.OpenSQL(cfg)
	require.NoError(t, err)
	require.NoError(t, repositories.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := zap.NewNop()
	store := repositories.NewStore(db)

	e := echo.New()
	SetupRoutes(e, Dependencies{
		Friendships: services.NewFriendshipService(store, activities, log),
		Directory:   services.NewDirectoryService(store, activities, log),
		Verifier:    middleware.NewJWTVerifier(testSecret),
	}, log)
	return &testServer{e: e}
}

func tokenFor(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestFriendsRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/friends/list", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[errorBody](t, rec).Code)

	rec = s.do(t, http.MethodGet, "/friends/list", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFriendshipLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := tokenFor(t, jwt.MapClaims{"user_id": 1})
	bob := tokenFor(t, jwt.MapClaims{"user_id": 2})

	rec := s.do(t, http.MethodPost, "/friends/request", alice, `{"receiverId": 2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.FriendRequest](t, rec)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, "1", created.SenderID)
	assert.Equal(t, "2", created.ReceiverID)

	rec = s.do(t, http.MethodGet, "/friends/received", bob, "")
	require.Equal(t, http.StatusOK, rec.Code)
	received := decode[[]models.FriendRequest](t, rec)
	require.Len(t, received, 1)
	assert.Equal(t, "1", received[0].SenderID)

	rec = s.do(t, http.MethodPost, "/friends/accept", alice, `{"requestId": "`+created.ID+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "forbidden", decode[errorBody](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/friends/accept", bob, `{"requestId": "`+created.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Friend request accepted", decode[errorBody](t, rec).Message)

	for _, token := range []string{alice, bob} {
		rec = s.do(t, http.MethodGet, "/friends/list", token, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]models.Friendship](t, rec), 1)
	}

	rec = s.do(t, http.MethodPost, "/friends/unfriend", alice, `{"friendId": "2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Unfriended successfully", decode[errorBody](t, rec).Message)

	rec = s.do(t, http.MethodGet, "/friends/list", bob, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSendRequestErrors(t *testing.T) {
	s := newTestServer(t)
	alice := tokenFor(t, jwt.MapClaims{"user_id": 1})
	bob := tokenFor(t, jwt.MapClaims{"user_id": 2})

	rec := s.do(t, http.MethodPost, "/friends/request", alice, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errorBody{Message: "receiverId is required", Code: "invalid_argument"}, decode[errorBody](t, rec))

	rec = s.do(t, http.MethodPost, "/friends/request", alice, `{"receiverId": "1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_operation", decode[errorBody](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/friends/request", alice, `{"receiverId": {}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/friends/block", bob, `{"blockedId": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User blocked successfully", decode[errorBody](t, rec).Message)

	rec = s.do(t, http.MethodPost, "/friends/block", bob, `{"blockedId": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User already blocked", decode[errorBody](t, rec).Message)

	rec = s.do(t, http.MethodPost, "/friends/request", alice, `{"receiverId": 2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "forbidden", decode[errorBody](t, rec).Code)

	rec = s.do(t, http.MethodGet, "/friends/blocked", bob, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Block](t, rec), 1)

	rec = s.do(t, http.MethodPost, "/friends/unblock", bob, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/friends/unblock", bob, `{"blockedId": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User unblocked successfully", decode[errorBody](t, rec).Message)
}

func TestOppositeRequestAutoAccepts(t *testing.T) {
	s := newTestServer(t)
	alice := tokenFor(t, jwt.MapClaims{"user_id": 1})
	bob := tokenFor(t, jwt.MapClaims{"user_id": 2})

	rec := s.do(t, http.MethodPost, "/friends/request", alice, `{"receiverId": 2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/friends/request", bob, `{"receiverId": 1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["autoAccepted"])

	rec = s.do(t, http.MethodGet, "/friends/sent", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRejectAndActivity(t *testing.T) {
	s := newTestServer(t)
	alice := tokenFor(t, jwt.MapClaims{"user_id": 1})
	bob := tokenFor(t, jwt.MapClaims{"user_id": 2})

	rec := s.do(t, http.MethodPost, "/friends/request", alice, `{"receiverId": 2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.FriendRequest](t, rec)

	rec = s.do(t, http.MethodPost, "/friends/reject", bob, `{"requestId": "`+created.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusRejected, decode[models.FriendRequest](t, rec).Status)

	rec = s.do(t, http.MethodPost, "/friends/reject", bob, `{"requestId": "missing"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rec).Code)

	rec = s.do(t, http.MethodGet, "/friends/mutual/2", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/friends/activity?skip=0&limit=5", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/friends/activity?limit=abc", alice, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserDirectory(t *testing.T) {
	s := newTestServer(t)
	ada := tokenFor(t, jwt.MapClaims{"user_id": 7, "username": "ada", "email": "ada@example.com"})
	bob := tokenFor(t, jwt.MapClaims{"user_id": 8, "username": "bob"})

	rec := s.do(t, http.MethodPost, "/users/sync", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/users/sync", ada, `{"fullName": "Ada Lovelace"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := decode[models.User](t, rec)
	assert.Equal(t, "7", user.ExternalID)
	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada Lovelace", user.FullName)

	rec = s.do(t, http.MethodPost, "/users/sync", ada, `{"nickname": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/users/sync", ada, `{"email": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/users/sync", bob, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/users", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.User](t, rec), 2)

	rec = s.do(t, http.MethodPost, "/users/prune-orphans", ada, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/users/prune-orphans", ada, `{"validUserIds": [7, 99]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pruned := decode[map[string]any](t, rec)
	assert.Equal(t, "Orphan buddy profiles removed successfully", pruned["message"])
	assert.EqualValues(t, 1, pruned["deletedCount"])

	rec = s.do(t, http.MethodDelete, "/users/me", ada, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User social data deleted successfully", decode[errorBody](t, rec).Message)

	rec = s.do(t, http.MethodGet, "/users", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSyncUserAcceptsClientPayload(t *testing.T) {
	s := newTestServer(t)
	ada := tokenFor(t, jwt.MapClaims{"user_id": 42})

	t.Run("numeric userId", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users/sync", ada,
			`{"userId": 42, "email": "ada@example.com", "username": "ada", "fullName": "Ada Lovelace", "avatar": "https://cdn.example.com/ada.png"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		user := decode[models.User](t, rec)
		assert.Equal(t, "42", user.ExternalID)
		assert.Equal(t, "ada", user.Username)
		assert.Equal(t, "Ada Lovelace", user.FullName)
		require.NotNil(t, user.Avatar)
		assert.Equal(t, "https://cdn.example.com/ada.png", *user.Avatar)
	})

	t.Run("string and float userId", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users/sync", ada, `{"userId": "42", "fullName": "Ada King"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Ada King", decode[models.User](t, rec).FullName)

		rec = s.do(t, http.MethodPost, "/users/sync", ada, `{"userId": 42.0}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("another user's id", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users/sync", ada, `{"userId": 43, "username": "mallory"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "forbidden", decode[errorBody](t, rec).Code)

		rec = s.do(t, http.MethodGet, "/users", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		users := decode[[]models.User](t, rec)
		require.Len(t, users, 1)
		assert.Equal(t, "ada", users[0].Username)
	})
}

func TestActivityVisibilityAndPurge(t *testing.T) {
	s := newTestServerWithActivities(t, &memoryActivities{})
	alice := tokenFor(t, jwt.MapClaims{"user_id": 1, "username": "alice"})
	bob := tokenFor(t, jwt.MapClaims{"user_id": 2})
	carol := tokenFor(t, jwt.MapClaims{"user_id": 3})

	activityTypes := func(t *testing.T, token string) []models.ActivityType {
		t.Helper()
		rec := s.do(t, http.MethodGet, "/friends/activity", token, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var types []models.ActivityType
		for _, a := range decode[[]models.Activity](t, rec) {
			types = append(types, a.Type)
		}
		return types
	}

	rec := s.do(t, http.MethodPost, "/friends/request", alice, `{"receiverId": 2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, "/friends/block", alice, `{"blockedId": 2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/friends/request", carol, `{"receiverId": 2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("blocker sees the block", func(t *testing.T) {
		assert.Equal(t, []models.ActivityType{models.ActivityBlocked, models.ActivityRequestSent}, activityTypes(t, alice))
	})

	t.Run("blocked user does not", func(t *testing.T) {
		assert.Equal(t, []models.ActivityType{models.ActivityRequestSent, models.ActivityRequestSent}, activityTypes(t, bob))
	})

	t.Run("deleting a user purges their activity", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users/sync", alice, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = s.do(t, http.MethodDelete, "/users/me", alice, "")
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Empty(t, activityTypes(t, alice))
		assert.Equal(t, []models.ActivityType{models.ActivityRequestSent}, activityTypes(t, bob))
		assert.Equal(t, []models.ActivityType{models.ActivityRequestSent}, activityTypes(t, carol))
	})
}

func TestPruneOrphansMatchesNumericIDForms(t *testing.T) {
	s := newTestServer(t)
	for _, id := range []int{7, 10} {
		rec := s.do(t, http.MethodPost, "/users/sync", tokenFor(t, jwt.MapClaims{"user_id": id, "username": "u"}), "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	admin := tokenFor(t, jwt.MapClaims{"user_id": 1})

	rec := s.do(t, http.MethodPost, "/users/prune-orphans", admin, `{"validUserIds": [7.0, "1e1"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 0, decode[map[string]any](t, rec)["deletedCount"])

	rec = s.do(t, http.MethodPost, "/users/prune-orphans", admin, `{"validUserIds": ["07"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["deletedCount"])

	rec = s.do(t, http.MethodGet, "/users", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[[]models.User](t, rec)
	require.Len(t, users, 1)
	assert.Equal(t, "7", users[0].ExternalID)
}
