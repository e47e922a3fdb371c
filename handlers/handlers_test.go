package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aroti/database"
	sessionRepo "aroti/database/repository/session"
	userRepo "aroti/database/repository/user"
	"aroti/models"
	"aroti/services/booking"
	"aroti/services/cache"
	"aroti/services/catalog"
	"aroti/services/insights"
	"aroti/services/profile"
	"aroti/services/sessions"
	"aroti/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupMiniRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// asUser stands in for the bearer middleware.
func asUser(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.UserIDKey, id)
		c.Next()
	}
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSpecialistHandler(t *testing.T) {
	stores := database.MemoryStores()
	svc := catalog.NewService(stores.Specialists, cache.NewJSONCache(setupMiniRedis(t)),
		catalog.TTLs{List: time.Minute, Detail: time.Minute, Reviews: time.Minute}, nil, zap.NewNop())
	h := NewSpecialistHandler(svc, zap.NewNop())

	r := gin.New()
	r.GET("/api/specialists", h.ListSpecialists)
	r.GET("/api/specialists/:id", h.GetSpecialist)
	r.GET("/api/reviews/:specialistId", h.ListReviews)

	t.Run("list all", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/specialists", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got []models.Specialist
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Len(t, got, len(database.SeedSpecialists()))
	})

	t.Run("filters are applied", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/specialists?price_max=0", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("invalid filters", func(t *testing.T) {
		for _, q := range []string{"availability=soon", "price_min=abc", "price_min=50&price_max=10", "rating=9"} {
			w := doJSON(r, http.MethodGet, "/api/specialists?"+q, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})

	t.Run("detail", func(t *testing.T) {
		id := database.SeedSpecialists()[0].ID
		w := doJSON(r, http.MethodGet, "/api/specialists/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got models.Specialist
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, id, got.ID)
	})

	t.Run("unknown specialist", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/specialists/nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("reviews of a specialist without any is an empty list", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/reviews/nope", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})
}

func TestSessionHandler(t *testing.T) {
	repo := sessionRepo.NewMemorySessionRepo()
	ctx := context.Background()
	for _, s := range []models.Session{
		{ID: "a", SpecialistID: "1", UserID: "u1", Date: "2025-09-15", Time: "14:00", Status: models.SessionPending},
		{ID: "b", SpecialistID: "1", UserID: "u1", Date: "2025-09-15", Time: "15:00", Status: models.SessionUpcoming},
		{ID: "c", SpecialistID: "1", UserID: "u2", Date: "2025-09-16", Time: "09:00", Status: models.SessionPending},
	} {
		s := s
		_, err := repo.Upsert(ctx, &s)
		require.NoError(t, err)
	}
	svc := sessions.NewService(repo, cache.NewJSONCache(setupMiniRedis(t)), time.Minute, nil, nil, zap.NewNop())
	h := NewSessionHandler(svc, zap.NewNop())

	r := gin.New()
	api := r.Group("/api/sessions", asUser("u1"))
	api.GET("", h.ListSessions)
	api.GET("/:id", h.GetSession)
	api.PUT("/:id", h.RescheduleSession)
	api.DELETE("/:id", h.CancelSession)

	t.Run("list only shows the caller's sessions", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/sessions", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got []models.Session
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Len(t, got, 2)
	})

	t.Run("bad status filter", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/sessions?status=done", nil).Code)
	})

	t.Run("another user's session is not found", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/api/sessions/c", nil).Code)
	})

	t.Run("reschedule onto a held slot conflicts", func(t *testing.T) {
		w := doJSON(r, http.MethodPut, "/api/sessions/a", gin.H{"time": "15:00"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("reschedule validates the time", func(t *testing.T) {
		w := doJSON(r, http.MethodPut, "/api/sessions/a", gin.H{"time": "3pm"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("reschedule to a free slot", func(t *testing.T) {
		w := doJSON(r, http.MethodPut, "/api/sessions/a", gin.H{"date": "2025-09-20"})
		require.Equal(t, http.StatusOK, w.Code)
		var got models.Session
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "2025-09-20", got.Date)
		assert.Equal(t, "14:00", got.Time)
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, doJSON(r, http.MethodDelete, "/api/sessions/b", nil).Code)
		assert.Equal(t, http.StatusNoContent, doJSON(r, http.MethodDelete, "/api/sessions/b", nil).Code)

		s, err := repo.GetByID(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, models.SessionCancelled, s.Status)
	})
}

type fakeBookings struct {
	outcome    models.BookingOutcome
	enqueued   []models.BookingRequest
	runs       map[string]*models.RunRecord
	enqueueErr error
}

func (f *fakeBookings) Submit(ctx context.Context, req models.BookingRequest) models.BookingOutcome {
	out := f.outcome
	out.SessionID = req.SessionID
	return out
}

func (f *fakeBookings) Enqueue(ctx context.Context, req models.BookingRequest) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, req)
	return nil
}

func (f *fakeBookings) Status(ctx context.Context, sessionID, userID string) (*models.RunRecord, error) {
	rec, ok := f.runs[sessionID]
	if !ok || rec.UserID != userID {
		return nil, booking.ErrRunNotFound
	}
	return rec, nil
}

func bookingRouter(f *fakeBookings) *gin.Engine {
	h := NewBookingHandler(f, zap.NewNop())
	r := gin.New()
	r.Use(asUser("u1"))
	r.POST("/api/sessions", h.CreateSession)
	r.POST("/api/bookings", h.SubmitBooking)
	r.GET("/api/bookings/:id", h.GetBooking)
	return r
}

func TestCreateSessionStatusCodes(t *testing.T) {
	body := gin.H{"specialistId": "1", "date": "2025-09-15", "time": "14:00"}

	cases := []struct {
		name    string
		outcome models.BookingOutcome
		want    int
	}{
		{"success", models.BookingOutcome{Success: true, MeetingLink: "https://meet/session-x"}, http.StatusCreated},
		{"slot taken", models.BookingOutcome{Error: "not available", ErrorKind: string(booking.KindBusinessNegative)}, http.StatusConflict},
		{"session id reused", models.BookingOutcome{Error: "session id already used by another booking", ErrorKind: string(booking.KindConflict)}, http.StatusConflict},
		{"unknown specialist", models.BookingOutcome{Error: "link provisioning failed: specialist not found", ErrorKind: string(booking.KindNotFound)}, http.StatusNotFound},
		{"partial success", models.BookingOutcome{Error: "link provisioning failed: timeout", ErrorKind: string(booking.KindPartialSuccess)}, http.StatusBadGateway},
		{"transient", models.BookingOutcome{Error: "link provisioning failed: db down", ErrorKind: string(booking.KindTransient)}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(bookingRouter(&fakeBookings{outcome: tc.outcome}), http.MethodPost, "/api/sessions", body)
			require.Equal(t, tc.want, w.Code)
			var got models.BookingOutcome
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.NotEmpty(t, got.SessionID)
		})
	}
}

func TestCreateSessionValidation(t *testing.T) {
	r := bookingRouter(&fakeBookings{})
	for name, body := range map[string]gin.H{
		"missing specialist": {"date": "2025-09-15", "time": "14:00"},
		"bad date":           {"specialistId": "1", "date": "15/09/2025", "time": "14:00"},
		"bad time":           {"specialistId": "1", "date": "2025-09-15", "time": "25:00"},
		"bad session id":     {"sessionId": "x", "specialistId": "1", "date": "2025-09-15", "time": "14:00"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/api/sessions", body).Code)
		})
	}
}

func TestSubmitAndPollBooking(t *testing.T) {
	f := &fakeBookings{runs: map[string]*models.RunRecord{}}
	r := bookingRouter(f)

	sessionID := "2f1c1a3e-58a8-4b6e-9a57-6f0e9f1b2c3d"
	w := doJSON(r, http.MethodPost, "/api/bookings", gin.H{"sessionId": sessionID, "specialistId": "1", "date": "2025-09-15", "time": "14:00"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"session_id":"`+sessionID+`"}`, w.Body.String())
	require.Len(t, f.enqueued, 1)
	assert.Equal(t, "u1", f.enqueued[0].UserID)

	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/api/bookings/"+sessionID, nil).Code)

	f.runs[sessionID] = &models.RunRecord{SessionID: sessionID, UserID: "u1", State: booking.StateSessionCreated}
	w = doJSON(r, http.MethodGet, "/api/bookings/"+sessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "outcome")

	f.runs[sessionID] = &models.RunRecord{SessionID: sessionID, UserID: "u1", State: booking.StateCompleted, MeetingLink: "https://meet/session-" + sessionID}
	w = doJSON(r, http.MethodGet, "/api/bookings/"+sessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Outcome models.BookingOutcome `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Outcome.Success)
	assert.Equal(t, "https://meet/session-"+sessionID, got.Outcome.MeetingLink)

	f.runs["other"] = &models.RunRecord{SessionID: "other", UserID: "u2"}
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/api/bookings/other", nil).Code)
}

func TestSubmitBookingErrors(t *testing.T) {
	body := gin.H{"sessionId": "2f1c1a3e-58a8-4b6e-9a57-6f0e9f1b2c3d", "specialistId": "1", "date": "2025-09-15", "time": "14:00"}

	w := doJSON(bookingRouter(&fakeBookings{enqueueErr: booking.ErrSessionConflict}), http.MethodPost, "/api/bookings", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(bookingRouter(&fakeBookings{enqueueErr: errors.New("redis down")}), http.MethodPost, "/api/bookings", body)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func userRouter(t *testing.T, users *userRepo.MemoryUserRepo) *gin.Engine {
	t.Helper()
	svc := profile.NewService(users, cache.NewJSONCache(setupMiniRedis(t)), time.Minute, nil, nil, zap.NewNop())
	h := NewUserHandler(svc, zap.NewNop())
	r := gin.New()
	r.Use(asUser("u1"))
	r.GET("/api/users/me", h.GetMe)
	r.PUT("/api/users/me", h.UpdateMe)
	r.GET("/api/user/profile", h.GetProfile)
	r.PUT("/api/user/profile", h.UpdateProfile)
	r.DELETE("/api/user/account", h.DeleteAccount)
	return r
}

func TestUserHandler(t *testing.T) {
	users := userRepo.NewMemoryUserRepo()
	r := userRouter(t, users)

	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/api/users/me", nil).Code)

	w := doJSON(r, http.MethodPut, "/api/users/me", gin.H{"name": "Ana", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPut, "/api/users/me", gin.H{"name": "Ana", "email": "ana@example.com", "pushToken": "tok"})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := users.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "tok", stored.PushToken)
	assert.Equal(t, models.PushPlatformFCM, stored.PushPlatform)

	w = doJSON(r, http.MethodGet, "/api/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","name":"Ana","email":"ana@example.com","pushPlatform":"fcm","hasPushToken":true}`, w.Body.String())
}

func TestProfileHandler(t *testing.T) {
	users := userRepo.NewMemoryUserRepo()
	r := userRouter(t, users)

	w := doJSON(r, http.MethodGet, "/api/user/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"User","traits":[],"isPremium":false}`, w.Body.String())

	w = doJSON(r, http.MethodPut, "/api/user/profile", gin.H{"name": "Ana", "location": "Lisbon"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"Ana","birthLocation":"Lisbon","traits":[],"isPremium":false}`, w.Body.String())

	// The update dropped the cached default.
	w = doJSON(r, http.MethodGet, "/api/user/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Ana"`)

	assert.Equal(t, http.StatusNoContent, doJSON(r, http.MethodDelete, "/api/user/account", nil).Code)
	_, err := users.GetByID(context.Background(), "u1")
	assert.ErrorIs(t, err, userRepo.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/api/users/me", nil).Code)
}

func TestInsightHandler(t *testing.T) {
	svc := insights.NewService(cache.NewJSONCache(setupMiniRedis(t)), 24*time.Hour, time.UTC, nil, zap.NewNop())
	h := NewInsightHandler(svc, zap.NewNop())
	r := gin.New()
	r.GET("/api/daily-insights", h.DailyInsights)

	w := doJSON(r, http.MethodGet, "/api/daily-insights", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.DailyInsight
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), got.Date)
	assert.NotEmpty(t, got.Horoscope)
	require.NotNil(t, got.TarotCard)
}

func TestHealthHandler(t *testing.T) {
	healthy := true
	monitor := utils.NewHealthMonitor(zap.NewNop(), map[string]utils.HealthCheck{
		"store": func(context.Context) error {
			if healthy {
				return nil
			}
			return assert.AnError
		},
	})
	h := NewHealthHandler(monitor, nil)
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	assert.JSONEq(t, `{"status":"healthy"}`, doJSON(r, http.MethodGet, "/health", nil).Body.String())
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/ready", nil).Code)

	healthy = false
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(r, http.MethodGet, "/ready", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/health", nil).Code)
}
