package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-dashboard/internal/cache"
	"github.com/BruksfildServices01/barber-dashboard/internal/config"
	"github.com/BruksfildServices01/barber-dashboard/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-dashboard/internal/httperr"
	"github.com/BruksfildServices01/barber-dashboard/internal/infra/backend/fake"
	"github.com/BruksfildServices01/barber-dashboard/internal/metrics"
	"github.com/BruksfildServices01/barber-dashboard/internal/models"
	"github.com/BruksfildServices01/barber-dashboard/internal/timezone"
)

var (
	loc   = time.FixedZone("ART", -3*60*60)
	jun9  = civil.Date{Year: 2025, Month: time.June, Day: 9}
	jun10 = civil.Date{Year: 2025, Month: time.June, Day: 10}
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	r  *gin.Engine
	be *fake.Backend
}

func newEnv(t *testing.T, loginRate int) *env {
	t.Helper()

	be := fake.New()
	be.Users["juan"] = "secreto"

	reg := prometheus.NewRegistry()
	r := gin.New()
	shutdown := RegisterRoutes(r, Infra{
		Config: &config.Config{
			PollInterval:    time.Hour,
			JWTSecret:       "test-secret",
			JWTTTL:          time.Hour,
			LoginRatePerMin: loginRate,
		},
		Backend:  be,
		Cache:    cache.NewMemoryStore(),
		Sessions: cache.NewMemoryStore(),
		Clock:    timezone.Fixed{At: models.MustTime("12:00").On(jun9, loc)},
		Hours:    schedule.DefaultBusinessHours(),
		Log:      zap.NewNop(),
		Metrics:  metrics.New("test", reg),
		Gatherer: reg,
	})
	t.Cleanup(shutdown)

	return &env{r: r, be: be}
}

func (e *env) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (e *env) login(t *testing.T) string {
	t.Helper()
	w, body := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "juan", "password": "secreto"})
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d %s", w.Code, w.Body)
	}
	return body["token"].(string)
}

func TestLogin(t *testing.T) {
	e := newEnv(t, 100)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing fields", map[string]string{"username": "juan"}, http.StatusBadRequest, "invalid_request"},
		{"wrong password", map[string]string{"username": "juan", "password": "x"}, http.StatusBadRequest, "invalid_credentials"},
		{"ok", map[string]string{"username": "juan", "password": "secreto"}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := e.do(http.MethodPost, "/api/auth/login", "", tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, body %s", w.Code, w.Body)
			}
			if tt.code != "" && body["error_code"] != tt.code {
				t.Fatalf("error_code = %v", body["error_code"])
			}
			if tt.code == "" && body["token"] == "" {
				t.Fatal("missing token")
			}
		})
	}
}

func TestLoginRateLimit(t *testing.T) {
	e := newEnv(t, 2)
	creds := map[string]string{"username": "juan", "password": "x"}

	for i := 0; i < 2; i++ {
		if w, _ := e.do(http.MethodPost, "/api/auth/login", "", creds); w.Code == http.StatusTooManyRequests {
			t.Fatalf("attempt %d limited too early", i+1)
		}
	}
	if w, _ := e.do(http.MethodPost, "/api/auth/login", "", creds); w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSecuredRoutesNeedSession(t *testing.T) {
	e := newEnv(t, 100)

	for _, token := range []string{"", "not-a-jwt"} {
		if w, _ := e.do(http.MethodGet, "/api/me", token, nil); w.Code != http.StatusUnauthorized {
			t.Fatalf("token %q: status = %d", token, w.Code)
		}
	}

	token := e.login(t)
	if w, body := e.do(http.MethodGet, "/api/me", token, nil); w.Code != http.StatusOK || body["session_id"] == "" {
		t.Fatalf("me = %d %s", w.Code, w.Body)
	}

	if w, _ := e.do(http.MethodPost, "/api/auth/logout", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("logout = %d", w.Code)
	}
	if w, _ := e.do(http.MethodGet, "/api/me", token, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("after logout = %d", w.Code)
	}
}

func TestBackendUnauthorizedDropsSession(t *testing.T) {
	e := newEnv(t, 100)
	token := e.login(t)

	e.be.SetFail("list_appointments", httperr.ErrAuth(""))
	if w, body := e.do(http.MethodGet, "/api/appointments?date=2025-06-10", token, nil); w.Code != http.StatusUnauthorized || body["error_kind"] != string(httperr.KindAuth) {
		t.Fatalf("appointments = %d %s", w.Code, w.Body)
	}

	e.be.SetFail("list_appointments", nil)
	if w, _ := e.do(http.MethodGet, "/api/me", token, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("session should be gone, got %d", w.Code)
	}
}

func TestDashboardRefresh(t *testing.T) {
	e := newEnv(t, 100)
	e.be.AddAppointment(models.Appointment{ID: 1, Date: jun9, StartTime: models.MustTime("15:00"), EndTime: models.MustTime("15:30"), Status: string(schedule.StatusPending)})
	e.be.Notifications = []models.Notification{{ID: 3, Title: "Nuevo turno"}}
	token := e.login(t)

	w, body := e.do(http.MethodPost, "/api/dashboard/refresh", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh = %d %s", w.Code, w.Body)
	}
	if aps := body["appointments"].([]any); len(aps) != 1 {
		t.Fatalf("appointments = %v", aps)
	}
	if n := body["notifications"].([]any); len(n) != 1 {
		t.Fatalf("notifications = %v", n)
	}

	w, body = e.do(http.MethodPost, "/api/notifications/read", token, nil)
	if w.Code != http.StatusOK || len(body["notifications"].([]any)) != 0 {
		t.Fatalf("mark read = %d %s", w.Code, w.Body)
	}
}

func TestCancelNeedsConfirmFlag(t *testing.T) {
	e := newEnv(t, 100)
	e.be.AddAppointment(models.Appointment{ID: 1, Date: jun10, StartTime: models.MustTime("10:00"), EndTime: models.MustTime("10:30"), Status: string(schedule.StatusPending)})
	token := e.login(t)

	w, body := e.do(http.MethodPatch, "/api/appointments/1/cancel?date=2025-06-10", token, nil)
	if w.Code != http.StatusPreconditionRequired || len(body["prompts"].([]any)) != 1 {
		t.Fatalf("unconfirmed = %d %s", w.Code, w.Body)
	}

	w, body = e.do(http.MethodPatch, "/api/appointments/1/cancel?date=2025-06-10&confirm=true", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("confirmed = %d %s", w.Code, w.Body)
	}
	if aff := body["affected"].(map[string]any); aff["from"] != "2025-06-10" || aff["to"] != "2025-06-10" {
		t.Fatalf("affected = %v", aff)
	}
	if e.be.CallCount("cancel_appointment") != 1 {
		t.Fatal("backend cancel not called")
	}

	if w, _ := e.do(http.MethodPatch, "/api/appointments/1/cancel", token, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing date = %d", w.Code)
	}
}

func TestBookingWizard(t *testing.T) {
	e := newEnv(t, 100)
	token := e.login(t)

	w, body := e.do(http.MethodPost, "/api/bookings", token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("open = %d %s", w.Code, w.Body)
	}
	base := "/api/bookings/" + body["id"].(string)

	steps := []struct {
		path   string
		body   any
		status int
	}{
		{"/date", map[string]string{"date": "2025-06-08"}, http.StatusConflict},
		{"/date", map[string]string{"date": "2025-06-10"}, http.StatusOK},
		{"/next", nil, http.StatusOK},
		{"/time", map[string]string{"time": "22:00"}, http.StatusBadRequest},
		{"/time", map[string]string{"time": "15:00"}, http.StatusOK},
		{"/next", nil, http.StatusOK},
		{"/contact", map[string]any{"name": "Luis", "last_name": "Paz", "phone": "1144445555", "service_id": 1}, http.StatusOK},
		{"/submit", nil, http.StatusCreated},
	}
	for _, s := range steps {
		if w, _ := e.do(http.MethodPost, base+s.path, token, s.body); w.Code != s.status {
			t.Fatalf("%s = %d %s", s.path, w.Code, w.Body)
		}
	}

	if e.be.CallCount("create_appointment") != 1 {
		t.Fatal("appointment not created")
	}
	if w, _ := e.do(http.MethodGet, base, token, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("submitted form should be gone, got %d", w.Code)
	}
}

func TestBlockingForm(t *testing.T) {
	e := newEnv(t, 100)
	token := e.login(t)

	w, body := e.do(http.MethodPost, "/api/blockings", token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("open = %d %s", w.Code, w.Body)
	}
	base := "/api/blockings/" + body["id"].(string)

	if w, _ := e.do(http.MethodPatch, base, token, map[string]any{"full_day": true}); w.Code != http.StatusBadRequest {
		t.Fatalf("full day today = %d", w.Code)
	}
	w, _ = e.do(http.MethodPatch, base, token, map[string]any{"date": "2025-06-10", "full_day": true, "reason": "Feriado"})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d %s", w.Code, w.Body)
	}
	if w, _ := e.do(http.MethodPost, base+"/submit", token, nil); w.Code != http.StatusCreated {
		t.Fatalf("submit = %d %s", w.Code, w.Body)
	}

	w, body = e.do(http.MethodGet, "/api/availability?date=2025-06-10", token, nil)
	if w.Code != http.StatusOK || body["classification"] != string(schedule.ClassFullyBlocked) {
		t.Fatalf("availability = %d %s", w.Code, w.Body)
	}
}

func TestBlockingPatchLeavesDraftOnError(t *testing.T) {
	e := newEnv(t, 100)
	token := e.login(t)

	_, body := e.do(http.MethodPost, "/api/blockings", token, nil)
	base := "/api/blockings/" + body["id"].(string)

	if w, _ := e.do(http.MethodPatch, base, token, map[string]any{"date": "2025-06-10", "reason": "Trámite"}); w.Code != http.StatusOK {
		t.Fatalf("first update = %d %s", w.Code, w.Body)
	}
	w, body := e.do(http.MethodPatch, base, token, map[string]any{"date": "2025-06-09", "full_day": true, "reason": "Feriado"})
	if w.Code != http.StatusBadRequest || body["error_code"] != "full_day_today" {
		t.Fatalf("second update = %d %s", w.Code, w.Body)
	}

	_, body = e.do(http.MethodGet, base, token, nil)
	draft := body["draft"].(map[string]any)
	if draft["date"] != "2025-06-10" || draft["reason"] != "Trámite" || draft["full_day"] != false {
		t.Fatalf("draft = %v", draft)
	}
}

func TestAvailabilityForDuration(t *testing.T) {
	e := newEnv(t, 100)
	e.be.AddAppointment(models.Appointment{ID: 1, Date: jun10, StartTime: models.MustTime("10:30"), EndTime: models.MustTime("11:00"), Status: string(schedule.StatusConfirmed)})
	token := e.login(t)

	offers := func(body map[string]any, start string) bool {
		for _, s := range body["bookable"].([]any) {
			if s == start {
				return true
			}
		}
		return false
	}

	_, body := e.do(http.MethodGet, "/api/availability?date=2025-06-10", token, nil)
	if !offers(body, "10:00") {
		t.Fatal("a single slot fits at 10:00")
	}
	_, body = e.do(http.MethodGet, "/api/availability?date=2025-06-10&duration=60", token, nil)
	if offers(body, "10:00") {
		t.Fatal("an hour does not fit at 10:00")
	}
	if w, _ := e.do(http.MethodGet, "/api/availability?date=2025-06-10&duration=x", token, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad duration = %d", w.Code)
	}
}

func TestServicesFallback(t *testing.T) {
	e := newEnv(t, 100)
	token := e.login(t)

	w, body := e.do(http.MethodGet, "/api/services", token, nil)
	if w.Code != http.StatusOK || body["fallback"] != true {
		t.Fatalf("services = %d %s", w.Code, w.Body)
	}
}

func TestAuditLogsWithoutDatabase(t *testing.T) {
	e := newEnv(t, 100)
	token := e.login(t)

	if w, _ := e.do(http.MethodGet, "/api/audit-logs", token, nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t, 100)

	if w, _ := e.do(http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health = %d", w.Code)
	}
	w, _ := e.do(http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("test_http_requests_total")) {
		t.Fatalf("metrics = %d", w.Code)
	}
}
