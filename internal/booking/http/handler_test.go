package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavefm/station-backend/internal/auth"
	"github.com/wavefm/station-backend/internal/booking"
	"github.com/wavefm/station-backend/internal/booking/bookingtest"
	bookingHttp "github.com/wavefm/station-backend/internal/booking/http"
	"github.com/wavefm/station-backend/internal/pkg/response"
	"github.com/wavefm/station-backend/internal/user"
)

var (
	luna  = auth.Actor{ID: "0c7a3f5e-2b1d-4e8f-9a6c-5d4e3f2a1b01", DisplayName: "Luna", Role: auth.RoleDJ}
	rush  = auth.Actor{ID: "0c7a3f5e-2b1d-4e8f-9a6c-5d4e3f2a1b02", DisplayName: "Rush", Role: auth.RoleDJ}
	staff = auth.Actor{ID: "0c7a3f5e-2b1d-4e8f-9a6c-5d4e3f2a1b03", DisplayName: "Staff", Role: auth.RoleStaff}
	admin = auth.Actor{ID: "0c7a3f5e-2b1d-4e8f-9a6c-5d4e3f2a1b04", DisplayName: "Admin", Role: auth.RoleAdmin}
)

type testServer struct {
	router *gin.Engine
	repo   *bookingtest.MemoryRepository
	jwt    *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := bookingtest.NewMemoryRepository()
	dir := bookingtest.NewDirectory(
		&user.Profile{ID: luna.ID, DisplayName: luna.DisplayName, AvatarURL: "/avatars/luna.png", Role: auth.RoleDJ},
		&user.Profile{ID: rush.ID, DisplayName: rush.DisplayName, Role: auth.RoleDJ},
	)
	jwtManager := auth.NewJWTManager("handler-test-secret", time.Hour)

	r := gin.New()
	v1 := r.Group("/v1")
	bookingHttp.RegisterRoutes(v1,
		bookingHttp.NewHandler(booking.NewService(repo, dir, nil)),
		auth.AuthRequired(jwtManager),
		auth.RequireRole(auth.RoleAdmin, auth.RoleStaff),
	)

	return &testServer{router: r, repo: repo, jwt: jwtManager}
}

func (s *testServer) token(t *testing.T, actor auth.Actor) string {
	t.Helper()
	tok, err := s.jwt.GenerateAccessToken(actor)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		_ = json.NewEncoder(&buf).Encode(v)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func decodeBooking(t *testing.T, w *httptest.ResponseRecorder) bookingHttp.BookingResponse {
	t.Helper()
	var b bookingHttp.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func slot(start, end string) bookingHttp.CreateBookingRequest {
	return bookingHttp.CreateBookingRequest{Title: "Late Show", Start: start, End: end}
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	lunaToken := s.token(t, luna)
	rushToken := s.token(t, rush)
	staffToken := s.token(t, staff)

	var bookingID string

	t.Run("Create requires a token", func(t *testing.T) {
		w := s.do(http.MethodPost, "/v1/bookings", slot("2030-01-01T22:00:00Z", "2030-01-02T02:00:00Z"), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("DJ books a slot", func(t *testing.T) {
		w := s.do(http.MethodPost, "/v1/bookings", slot("2030-01-01T22:00:00Z", "2030-01-02T02:00:00Z"), lunaToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		b := decodeBooking(t, w)
		bookingID = b.ID
		assert.Equal(t, "pending", b.Status)
		assert.Equal(t, luna.ID, b.DJ.ID)
		assert.Equal(t, "/avatars/luna.png", b.DJ.Avatar)
		assert.Equal(t, luna.ID, b.CreatedBy.ID)
		assert.Nil(t, b.ActedBy)
	})

	t.Run("Public schedule lists it once", func(t *testing.T) {
		w := s.do(http.MethodGet, "/v1/bookings?statuses=pending", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var page response.PageResponse[bookingHttp.BookingResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 50, page.PageSize)
		require.Len(t, page.Items, 1)
		assert.Equal(t, bookingID, page.Items[0].ID)
	})

	t.Run("Public detail view", func(t *testing.T) {
		w := s.do(http.MethodGet, "/v1/bookings/"+bookingID, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Late Show", decodeBooking(t, w).Title)
	})

	t.Run("DJ cannot approve", func(t *testing.T) {
		w := s.do(http.MethodPatch, "/v1/bookings/"+bookingID, map[string]string{"status": "approved"}, lunaToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Staff approves", func(t *testing.T) {
		w := s.do(http.MethodPatch, "/v1/bookings/"+bookingID, map[string]string{"status": "approved"}, staffToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		b := decodeBooking(t, w)
		assert.Equal(t, "approved", b.Status)
		require.NotNil(t, b.ActedBy)
		assert.Equal(t, staff.ID, b.ActedBy.ID)
		assert.Equal(t, "Staff", b.ActedBy.Name)
	})

	t.Run("Overlapping slot for another DJ", func(t *testing.T) {
		w := s.do(http.MethodPost, "/v1/bookings", slot("2030-01-01T22:30:00Z", "2030-01-01T23:30:00Z"), rushToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, booking.ErrSlotConflict.Message, errorMessage(t, w))
	})

	t.Run("Back to back for the same DJ", func(t *testing.T) {
		w := s.do(http.MethodPost, "/v1/bookings", slot("2030-01-02T02:02:00Z", "2030-01-02T04:00:00Z"), lunaToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, booking.ErrAdjacencyViolation.Message, errorMessage(t, w))
	})

	t.Run("Staff moves the show by a minute", func(t *testing.T) {
		body := map[string]string{"start": "2030-01-01T22:01:00Z", "end": "2030-01-02T02:01:00Z"}
		w := s.do(http.MethodPatch, "/v1/bookings/"+bookingID, body, staffToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		b := decodeBooking(t, w)
		assert.Equal(t, "approved", b.Status)
		assert.True(t, b.Start.Equal(time.Date(2030, 1, 1, 22, 1, 0, 0, time.UTC)))
	})

	t.Run("Admin deletes and gets the record back", func(t *testing.T) {
		w := s.do(http.MethodDelete, "/v1/bookings/"+bookingID, nil, s.token(t, admin))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, bookingID, decodeBooking(t, w).ID)

		w = s.do(http.MethodDelete, "/v1/bookings/"+bookingID, nil, staffToken)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = s.do(http.MethodGet, "/v1/bookings/"+bookingID, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCreateValidation(t *testing.T) {
	s := newTestServer(t)
	lunaToken := s.token(t, luna)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"Inverted range", slot("2024-01-01T10:00:00Z", "2024-01-01T09:00:00Z"), booking.ErrInvalidRange.Message},
		{"Not a timestamp", slot("monday", "2024-01-01T09:00:00Z"), booking.ErrInvalidRange.Message},
		{"Missing end", map[string]string{"title": "x", "start": "2024-01-01T10:00:00Z"}, "invalid request body"},
		{"Malformed JSON", `{"title":`, "invalid request body"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/v1/bookings", tc.body, lunaToken)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.want, errorMessage(t, w))
		})
	}

	t.Run("Staff names an unknown DJ", func(t *testing.T) {
		w := s.do(http.MethodPost, "/v1/bookings", bookingHttp.CreateBookingRequest{
			DJID: "0c7a3f5e-2b1d-4e8f-9a6c-5d4e3f2a1bff", Title: "x",
			Start: "2030-01-01T10:00:00Z", End: "2030-01-01T11:00:00Z",
		}, s.token(t, staff))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, booking.ErrDJNotFound.Message, errorMessage(t, w))
	})

	t.Run("DJ books for another DJ", func(t *testing.T) {
		w := s.do(http.MethodPost, "/v1/bookings", bookingHttp.CreateBookingRequest{
			DJID: rush.ID, Title: "x",
			Start: "2030-01-01T10:00:00Z", End: "2030-01-01T11:00:00Z",
		}, lunaToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	assert.Zero(t, s.repo.Len())
}

func TestListQueryParameters(t *testing.T) {
	s := newTestServer(t)
	for day := 1; day <= 3; day++ {
		w := s.do(http.MethodPost, "/v1/bookings",
			slot(fmt.Sprintf("2030-01-0%dT10:00:00Z", day), fmt.Sprintf("2030-01-0%dT11:00:00Z", day)),
			s.token(t, luna))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("Window", func(t *testing.T) {
		w := s.do(http.MethodGet, "/v1/bookings?start=2030-01-02T00:00:00Z&end=2030-01-02T23:59:59Z", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var page response.PageResponse[bookingHttp.BookingResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, 1, page.Total)
	})

	t.Run("Pagination", func(t *testing.T) {
		w := s.do(http.MethodGet, "/v1/bookings?page=2&page_size=2&dj_id="+luna.ID, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var page response.PageResponse[bookingHttp.BookingResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, 3, page.Total)
		assert.Len(t, page.Items, 1)
	})

	for _, query := range []string{"start=yesterday", "statuses=pending,cancelled", "page_size=500", "dj_id=luna"} {
		t.Run("Rejects "+query, func(t *testing.T) {
			w := s.do(http.MethodGet, "/v1/bookings?"+query, nil, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestUpdateAndDeleteErrors(t *testing.T) {
	s := newTestServer(t)
	staffToken := s.token(t, staff)
	missing := "/v1/bookings/0c7a3f5e-2b1d-4e8f-9a6c-5d4e3f2a1bee"

	w := s.do(http.MethodPatch, missing, map[string]string{"status": "approved"}, staffToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPatch, missing, map[string]string{"status": "cancelled"}, staffToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, missing, map[string]string{}, staffToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "nothing to update", errorMessage(t, w))

	w = s.do(http.MethodPatch, "/v1/bookings/not-a-uuid", map[string]string{"status": "approved"}, staffToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, missing, nil, s.token(t, luna))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/v1/bookings/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStoreFailureIsOpaque(t *testing.T) {
	s := newTestServer(t)
	s.repo.Err = errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")

	w := s.do(http.MethodGet, "/v1/bookings", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	w = s.do(http.MethodPost, "/v1/bookings", slot("2030-01-01T10:00:00Z", "2030-01-01T11:00:00Z"), s.token(t, luna))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}
