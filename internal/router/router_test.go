package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iliyamo/desk-seat-reservation/internal/handler"
	"github.com/iliyamo/desk-seat-reservation/internal/metrics"
	"github.com/iliyamo/desk-seat-reservation/internal/middleware"
	"github.com/iliyamo/desk-seat-reservation/internal/model"
	"github.com/iliyamo/desk-seat-reservation/internal/repository"
	"github.com/iliyamo/desk-seat-reservation/internal/service"
	"github.com/iliyamo/desk-seat-reservation/internal/utils"
)

const secret = "router-test-secret"

type testServer struct {
	e     *echo.Echo
	clock *service.FixedClock
	reg   *prometheus.Registry
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	store := repository.NewMemoryStore()
	for _, s := range []model.Seat{
		{ID: "S1", Label: "8-A01", Floor: "8", Rank: 2},
		{ID: "S2", Label: "8-A02", Floor: "8", Rank: 1},
		{ID: "S3", Label: "empty", Floor: "8", Rank: 5},
	} {
		store.PutSeat(s)
	}
	for _, id := range []string{"A", "B", "admin"} {
		store.PutPerson(model.Person{ID: id, Name: "name-" + id, Department: "Eng"})
	}

	clock := &service.FixedClock{T: time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)}
	reg := prometheus.NewRegistry()
	svc := service.NewReservationService(store.People(), service.Options{Metrics: metrics.NewCollector(reg)})
	dir := service.NewDirectory(store.Seats(), store.People(), time.Second)
	retry := handler.NewRetrier(1)

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(zap.NewNop())
	RegisterRoutes(e, reg)
	seats := handler.NewSeatHandler(dir, clock, retry)
	noop := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	RegisterPublic(e, seats, noop)
	RegisterMember(e, seats, handler.NewReservationHandler(svc, clock, retry), secret, noop)
	RegisterAdmin(e, handler.NewAdminSeatHandler(svc, clock, retry), secret)
	RegisterInternal(e, handler.NewSweepHandler(svc, clock))
	return &testServer{e: e, clock: clock, reg: reg}
}

func (s *testServer) do(t *testing.T, method, path, user, role, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		tok, err := utils.NewAccessToken(secret, user, role, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	var out map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func errCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	s, _ := e["code"].(string)
	return s
}

func TestReserveFlow(t *testing.T) {
	s := newServer(t)

	rec, body := s.do(t, http.MethodPost, "/v1/seats/reserve", "A", middleware.RoleMember, `{"seat_id":"S1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("reserve: %d %s", rec.Code, rec.Body.String())
	}
	if body["expires_at"] != "2024-05-06T13:00:00Z" {
		t.Fatalf("expires_at = %v", body["expires_at"])
	}

	rec, body = s.do(t, http.MethodPost, "/v1/seats/reserve", "B", middleware.RoleMember, `{"seat_id":"S1"}`)
	if rec.Code != http.StatusConflict || errCode(body) != "SEAT_CONFLICT" {
		t.Fatalf("second reserve: %d %s", rec.Code, rec.Body.String())
	}

	rec, body = s.do(t, http.MethodPost, "/v1/seats/reserve", "A", middleware.RoleMember, `{"seat_id":"S2"}`)
	if rec.Code != http.StatusConflict || errCode(body) != "ALREADY_HOLDING" {
		t.Fatalf("already holding: %d %s", rec.Code, rec.Body.String())
	}

	rec, body = s.do(t, http.MethodGet, "/v1/floors/8/occupancy", "B", middleware.RoleMember, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("occupancy: %d", rec.Code)
	}
	items := body["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("placeholder seat must be hidden, got %d items", len(items))
	}
	first := items[0].(map[string]any)
	if first["status"] != "HELD" || first["kind"] != "TEMPORARY" || first["holder"].(map[string]any)["id"] != "A" {
		t.Fatalf("unexpected first item %v", first)
	}

	rec, body = s.do(t, http.MethodGet, "/v1/me/hold", "A", middleware.RoleMember, "")
	hold, _ := body["temporary_hold"].(map[string]any)
	if rec.Code != http.StatusOK || hold == nil || hold["remaining_minutes"] != float64(240) {
		t.Fatalf("me/hold: %d %s", rec.Code, rec.Body.String())
	}

	for i := 0; i < 2; i++ {
		rec, body = s.do(t, http.MethodPost, "/v1/seats/cancel", "A", middleware.RoleMember, "")
		if rec.Code != http.StatusOK || body["ok"] != true {
			t.Fatalf("cancel #%d: %d %s", i, rec.Code, rec.Body.String())
		}
	}

	rec, _ = s.do(t, http.MethodPost, "/v1/seats/reserve", "B", middleware.RoleMember, `{"seat_id":"S1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seat should be free after cancel: %d", rec.Code)
	}
}

func TestReserveRequiresAuthAndSeat(t *testing.T) {
	s := newServer(t)
	rec, body := s.do(t, http.MethodPost, "/v1/seats/reserve", "", "", `{"seat_id":"S1"}`)
	if rec.Code != http.StatusUnauthorized || errCode(body) != "UNAUTHENTICATED" {
		t.Fatalf("anonymous: %d %s", rec.Code, rec.Body.String())
	}
	rec, body = s.do(t, http.MethodPost, "/v1/seats/reserve", "A", middleware.RoleMember, `{}`)
	if rec.Code != http.StatusBadRequest || errCode(body) != "VALIDATION_FAILED" {
		t.Fatalf("missing seat: %d %s", rec.Code, rec.Body.String())
	}
	rec, body = s.do(t, http.MethodPost, "/v1/seats/reserve", "A", middleware.RoleMember, `{"seat_id":"S3"}`)
	if rec.Code != http.StatusNotFound || errCode(body) != "NOT_FOUND" {
		t.Fatalf("placeholder seat: %d %s", rec.Code, rec.Body.String())
	}
}

func TestSweepEndpointClearsLapsedHolds(t *testing.T) {
	s := newServer(t)
	if rec, _ := s.do(t, http.MethodPost, "/v1/seats/reserve", "A", middleware.RoleMember, `{"seat_id":"S1"}`); rec.Code != http.StatusCreated {
		t.Fatalf("reserve: %d", rec.Code)
	}
	s.clock.T = s.clock.T.Add(4 * time.Hour)

	rec, body := s.do(t, http.MethodPost, "/internal/sweep", "", "", "")
	if rec.Code != http.StatusOK || body["cleared_count"] != float64(1) {
		t.Fatalf("sweep: %d %s", rec.Code, rec.Body.String())
	}
	rec, body = s.do(t, http.MethodPost, "/internal/sweep", "", "", "")
	if rec.Code != http.StatusOK || body["cleared_count"] != float64(0) {
		t.Fatalf("second sweep: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRoutes(t *testing.T) {
	s := newServer(t)

	rec, _ := s.do(t, http.MethodPut, "/v1/admin/people/B/assigned-seat", "A", middleware.RoleMember, `{"seat_id":"S2"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member must be forbidden: %d", rec.Code)
	}

	rec, _ = s.do(t, http.MethodPut, "/v1/admin/people/B/assigned-seat", "admin", middleware.RoleAdmin, `{"seat_id":"S2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("assign: %d %s", rec.Code, rec.Body.String())
	}
	rec, body := s.do(t, http.MethodPost, "/v1/seats/reserve", "A", middleware.RoleMember, `{"seat_id":"S2"}`)
	if rec.Code != http.StatusConflict || errCode(body) != "SEAT_CONFLICT" {
		t.Fatalf("assigned seat must conflict: %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = s.do(t, http.MethodPost, "/v1/admin/people/A/hold", "admin", middleware.RoleAdmin, `{"seat_id":"S1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("hold for: %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = s.do(t, http.MethodDelete, "/v1/admin/people/A/hold", "admin", middleware.RoleAdmin, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("clear hold: %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = s.do(t, http.MethodPut, "/v1/admin/people/B/assigned-seat", "admin", middleware.RoleAdmin, `{"seat_id":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unassign: %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = s.do(t, http.MethodPost, "/v1/seats/reserve", "A", middleware.RoleMember, `{"seat_id":"S2"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("seat should be free after unassign: %d %s", rec.Code, rec.Body.String())
	}
}

func TestPublicSeatsAndMetrics(t *testing.T) {
	s := newServer(t)
	rec, body := s.do(t, http.MethodGet, "/v1/floors/8/seats", "", "", "")
	if rec.Code != http.StatusOK || len(body["items"].([]any)) != 2 {
		t.Fatalf("seats: %d %s", rec.Code, rec.Body.String())
	}

	s.do(t, http.MethodPost, "/v1/seats/reserve", "A", middleware.RoleMember, `{"seat_id":"S1"}`)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	s.e.ServeHTTP(mrec, req)
	if !strings.Contains(mrec.Body.String(), `desk_hold_acquire_total{result="ok"} 1`) {
		t.Fatalf("metrics missing acquire counter:\n%s", mrec.Body.String())
	}

	rec, _ = s.do(t, http.MethodGet, "/healthz", "", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
}
