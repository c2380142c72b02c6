package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeifHesham2/SwiftRide/internal/app"
	"github.com/SeifHesham2/SwiftRide/internal/auth"
	"github.com/SeifHesham2/SwiftRide/internal/domain"
	"github.com/SeifHesham2/SwiftRide/internal/handler"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// newTestRouter builds the HTTP API over env without Redis or New Relic.
func newTestRouter(env *Env) http.Handler {
	logger, _ := test.NewNullLogger()

	return app.NewRouter(app.RouterDeps{
		TripHandler:      handler.NewTripHandler(env.Trips),
		DriverHandler:    handler.NewDriverHandler(env.Drivers, env.Trips),
		CustomerHandler:  handler.NewCustomerHandler(env.Customers, env.Trips),
		CarHandler:       handler.NewCarHandler(env.Cars),
		PaymentHandler:   handler.NewPaymentHandler(env.Payments),
		ComplaintHandler: handler.NewComplaintHandler(env.Complaints),
		AuthService:      env.Auth,
		Logger:           logger,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// ──────────────────────────────────────────────
// 12. HTTP API
// ──────────────────────────────────────────────

func TestHTTP_BookTrip(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	env.SetDistance("A", "B", 10)
	customer := env.SeedCustomer("Http")
	router := newTestRouter(env)

	rec := doJSON(t, router, http.MethodPost, "/v1/trips", map[string]any{
		"customer_id":     customer.ID,
		"pickup_location": "A",
		"destination":     "B",
		"trip_date":       time.Now().Add(time.Hour).Format(time.RFC3339),
		"payment_method":  "CASH",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	resp := decode[handler.BookTripResponse](t, rec)
	assert.Equal(t, "REQUESTED", resp.Trip.Status)
	require.NotNil(t, resp.Trip.Fare)
	assert.InDelta(t, 54.80, *resp.Trip.Fare, 0.001)
	assert.Equal(t, 25, resp.Trip.EstimatedMinutes)
	require.NotNil(t, resp.Payment)
	assert.Equal(t, "PENDING", resp.Payment.Status)
}

func TestHTTP_ErrorMapping(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Mapper")
	driver := env.SeedDriver("Mapper")
	other := env.SeedDriver("Other")
	accepted := env.SeedTrip(customer.ID, tomorrowAt(9, 0), 25, domain.TripStatusAccepted, Int64(driver.ID))
	router := newTestRouter(env)

	tests := []struct {
		name      string
		method    string
		path      string
		body      any
		wantCode  int
		wantError string
	}{
		{
			name:      "unknown trip",
			method:    http.MethodGet,
			path:      "/v1/trips/9999",
			wantCode:  http.StatusNotFound,
			wantError: "trip not found",
		},
		{
			name:     "malformed id",
			method:   http.MethodGet,
			path:     "/v1/trips/abc",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing body",
			method:   http.MethodPost,
			path:     "/v1/trips",
			body:     map[string]any{"customer_id": customer.ID},
			wantCode: http.StatusBadRequest,
		},
		{
			name:      "trip already taken",
			method:    http.MethodPost,
			path:      fmt.Sprintf("/v1/trips/%d/accept", accepted.ID),
			body:      map[string]any{"driver_id": other.ID},
			wantCode:  http.StatusConflict,
			wantError: "trip is not available for acceptance",
		},
		{
			name:     "wrong driver",
			method:   http.MethodPost,
			path:     fmt.Sprintf("/v1/trips/%d/cancel-by-driver", accepted.ID),
			body:     map[string]any{"driver_id": other.ID},
			wantCode: http.StatusForbidden,
		},
		{
			name:     "rating out of range",
			method:   http.MethodPost,
			path:     fmt.Sprintf("/v1/trips/%d/rate", accepted.ID),
			body:     map[string]any{"driver_id": driver.ID, "rating": 9},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unsupported payment method",
			method:   http.MethodPost,
			path:     "/v1/trips",
			body: map[string]any{
				"customer_id":     customer.ID,
				"pickup_location": "A",
				"destination":     "B",
				"trip_date":       time.Now().Add(time.Hour).Format(time.RFC3339),
				"payment_method":  "BITCOIN",
			},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decode[handler.ErrorResponse](t, rec).Error)
			}
		})
	}
}

func TestHTTP_RequestedTripsIsEmptyArray(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	router := newTestRouter(env)

	rec := doJSON(t, router, http.MethodGet, "/v1/trips/requested", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHTTP_CustomerTripsRequireOwnToken(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Owner")
	stranger := env.SeedCustomer("Stranger")
	env.SeedTrip(customer.ID, tomorrowAt(9, 0), 25, domain.TripStatusRequested, nil)
	router := newTestRouter(env)
	path := fmt.Sprintf("/v1/customers/%d/trips", customer.ID)

	bearer := func(subject int64, role auth.Role) string {
		token, err := env.Auth.GenerateToken(subject, role)
		require.NoError(t, err)
		return "Bearer " + token
	}

	rec := doJSON(t, router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, path, nil, "Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, path, nil, "Authorization", bearer(customer.ID, auth.RoleDriver))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodGet, path, nil, "Authorization", bearer(stranger.ID, auth.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodGet, path, nil, "Authorization", bearer(customer.ID, auth.RoleCustomer))
	require.Equal(t, http.StatusOK, rec.Code)
	trips := decode[[]handler.TripResponse](t, rec)
	require.Len(t, trips, 1)
	assert.Equal(t, customer.ID, trips[0].CustomerID)
}

func TestHTTP_DriverFlow(t *testing.T) {
	t.Parallel()

	env := NewEnv()
	customer := env.SeedCustomer("Flow")
	driver := env.SeedDriver("Flow")
	trip := env.SeedTrip(customer.ID, time.Now().Add(5*time.Minute), 25, domain.TripStatusRequested, nil)
	router := newTestRouter(env)
	body := map[string]any{"driver_id": driver.ID}

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/trips/%d/accept", trip.ID), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ACCEPTED", decode[handler.TripResponse](t, rec).Status)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/drivers/%d/active-trips", driver.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]handler.TripResponse](t, rec), 1)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/trips/%d/start", trip.ID), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/trips/%d/end", trip.ID), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ended := decode[handler.EndTripResponse](t, rec)
	assert.Equal(t, "COMPLETED", ended.Trip.Status)
	assert.Equal(t, "PAID", ended.Payment.Status)
	require.NotNil(t, ended.Receipt)
	assert.InDelta(t, 54.80, ended.Receipt.TotalFare, 0.001)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/payments/trip/%d", trip.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PAID", decode[handler.PaymentResponse](t, rec).Status)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/trips/%d/rate", trip.ID), map[string]any{"driver_id": driver.ID, "rating": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, decode[handler.DriverResponse](t, rec).Rating)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/trips/%d/rate", trip.ID), map[string]any{"driver_id": driver.ID, "rating": 4})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHTTP_PaymentMethods(t *testing.T) {
	t.Parallel()
	env := NewEnv()
	router := newTestRouter(env)

	rec := doJSON(t, router, http.MethodGet, "/v1/payments/methods", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[handler.PaymentMethodsResponse](t, rec)
	assert.Equal(t, []string{"CASH", "CREDIT_CARD"}, resp.Methods)
}
