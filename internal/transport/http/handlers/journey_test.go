package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"hrsaas/internal/app/server"
	"hrsaas/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Flash   *struct {
		Success string `json:"success"`
		Error   string `json:"error"`
	} `json:"flash"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

type journey struct {
	t   *testing.T
	app *server.App
	ts  *httptest.Server
	cfg config.Config
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testConfig(t *testing.T, dbURL string) config.Config {
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "journey-secret",
		Environment:        "test",
		SaaSMode:           true,
		RunMigrations:      true,
		RunSeed:            true,
		SuperAdminEmail:    envOr("TEST_SUPERADMIN_EMAIL", "superadmin@example.com"),
		SuperAdminPassword: envOr("TEST_SUPERADMIN_PASSWORD", "password"),
		CompanyEmail:       "company@example.com",
		CompanyPassword:    "password",
		MaxBodyBytes:       1 << 20,
		RateLimitPerMinute: 10000,
		Storage:            config.StorageConfig{Driver: config.StorageLocal, LocalDir: t.TempDir()},
	}
}

func startJourney(t *testing.T) *journey {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	cfg := testConfig(t, dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	ts := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		ts.Close()
		app.Close()
	})
	return &journey{t: t, app: app, ts: ts, cfg: cfg}
}

func unique(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func (j *journey) call(method, path, token string, body any, headers map[string]string) (int, envelope) {
	j.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			j.t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, j.ts.URL+"/api/v1"+path, &buf)
	if err != nil {
		j.t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := j.ts.Client().Do(req)
	if err != nil {
		j.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		j.t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func (j *journey) expect(want int, method, path, token string, body any) envelope {
	j.t.Helper()
	status, env := j.call(method, path, token, body, nil)
	if status != want {
		j.t.Fatalf("%s %s: expected %d, got %d (%+v)", method, path, want, status, env.Error)
	}
	return env
}

func decode(t *testing.T, env envelope, out any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
}

func (j *journey) login(email, password string) string {
	j.t.Helper()
	env := j.expect(http.StatusOK, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	var out struct {
		Token string `json:"token"`
	}
	decode(j.t, env, &out)
	if out.Token == "" {
		j.t.Fatalf("empty token for %s", email)
	}
	return out.Token
}

func (j *journey) admin() string {
	return j.login(j.cfg.SuperAdminEmail, j.cfg.SuperAdminPassword)
}

// company creates a fresh tenant and returns its id and token.
func (j *journey) company(adminToken string) (string, string) {
	j.t.Helper()
	email := unique("company") + "@example.com"
	env := j.expect(http.StatusCreated, http.MethodPost, "/companies", adminToken, map[string]string{
		"name": "Journey Co", "email": email, "password": "journey-pass-1",
	})
	var out struct {
		ID string `json:"id"`
	}
	decode(j.t, env, &out)
	return out.ID, j.login(email, "journey-pass-1")
}

func (j *journey) employee(companyToken string) (string, string) {
	j.t.Helper()
	email := unique("employee") + "@example.com"
	env := j.expect(http.StatusCreated, http.MethodPost, "/staff", companyToken, map[string]string{
		"name": "Journey Employee", "email": email, "password": "journey-pass-2", "type": "employee",
	})
	var out struct {
		ID string `json:"id"`
	}
	decode(j.t, env, &out)
	return out.ID, email
}

func (j *journey) count(sql string, args ...any) int {
	j.t.Helper()
	var n int
	if err := j.app.Pool.QueryRow(context.Background(), sql, args...).Scan(&n); err != nil {
		j.t.Fatalf("count query failed: %v", err)
	}
	return n
}

type order struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	FinalPrice string `json:"finalPrice"`
}

func TestCheckoutReplaysAndCouponRedemptionsAreLimited(t *testing.T) {
	j := startJourney(t)
	adminToken := j.admin()
	companyID, companyToken := j.company(adminToken)

	j.expect(http.StatusOK, http.MethodPut, "/payment-settings", adminToken, map[string]string{
		"bank_transfer_enabled": "on",
		"bank_transfer_details": "IBAN DE00 1234",
	})

	var plan struct {
		ID string `json:"id"`
	}
	decode(t, j.expect(http.StatusCreated, http.MethodPost, "/plans", adminToken, map[string]any{
		"name": unique("Growth"), "monthlyPrice": "100", "yearlyPrice": "1000", "maxEmployees": 50, "status": "active",
	}), &plan)

	code := fmt.Sprintf("ONCE%d", time.Now().UnixNano()%1_000_000_000)
	j.expect(http.StatusCreated, http.MethodPost, "/coupons", adminToken, map[string]any{
		"name": "One shot", "code": code, "type": "flat", "value": "10", "usageLimit": 1, "status": "active",
	})
	usedCount := func() int {
		return j.count("SELECT used_count FROM coupons WHERE upper(code) = upper($1)", code)
	}

	checkout := map[string]string{
		"planId": plan.ID, "duration": "monthly", "couponCode": code, "paymentMethod": "bank_transfer",
	}
	keyed := func(key string) map[string]string { return map[string]string{"Idempotency-Key": key} }

	status, first := j.call(http.MethodPost, "/billing/checkout", companyToken, checkout, keyed(unique("first")+"-a"))
	if status != http.StatusCreated {
		t.Fatalf("expected 201 for checkout, got %d (%+v)", status, first.Error)
	}
	var placed order
	decode(t, first, &placed)
	if placed.Status != "pending" {
		t.Fatalf("expected pending bank transfer order, got %s", placed.Status)
	}
	if usedCount() != 1 {
		t.Fatalf("expected coupon to be redeemed once, got %d", usedCount())
	}

	replayKey := unique("replay")
	status, _ = j.call(http.MethodPost, "/billing/checkout", companyToken, checkout, keyed(replayKey))
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected exhausted coupon to be rejected, got %d", status)
	}

	j.expect(http.StatusOK, http.MethodPost, "/billing/orders/"+placed.ID+"/reject", adminToken, nil)
	if usedCount() != 0 {
		t.Fatalf("expected rejected order to release its coupon, got used_count %d", usedCount())
	}

	status, second := j.call(http.MethodPost, "/billing/checkout", companyToken, checkout, keyed(replayKey+"-ok"))
	if status != http.StatusCreated {
		t.Fatalf("expected checkout after release to succeed, got %d (%+v)", status, second.Error)
	}
	var again order
	decode(t, second, &again)

	status, replay := j.call(http.MethodPost, "/billing/checkout", companyToken, checkout, keyed(replayKey+"-ok"))
	if status != http.StatusCreated {
		t.Fatalf("expected replay to answer 201, got %d", status)
	}
	var replayed order
	decode(t, replay, &replayed)
	if replayed.ID != again.ID {
		t.Fatalf("expected replay of order %s, got %s", again.ID, replayed.ID)
	}
	if replay.Flash == nil || second.Flash == nil || replay.Flash.Success != second.Flash.Success {
		t.Fatalf("expected replay to carry the original flash message")
	}
	if n := j.count("SELECT COUNT(1) FROM plan_orders WHERE company_id = $1", companyID); n != 2 {
		t.Fatalf("expected two orders for the company, got %d", n)
	}

	checkout["duration"] = "yearly"
	status, conflict := j.call(http.MethodPost, "/billing/checkout", companyToken, checkout, keyed(replayKey+"-ok"))
	if status != http.StatusConflict || conflict.Error == nil || conflict.Error.Code != "idempotency_conflict" {
		t.Fatalf("expected idempotency conflict for a changed body, got %d", status)
	}
}

func TestTrainingCapacityAndTenantScoping(t *testing.T) {
	j := startJourney(t)
	adminToken := j.admin()
	_, acmeToken := j.company(adminToken)
	_, otherToken := j.company(adminToken)

	ann, _ := j.employee(acmeToken)
	bob, _ := j.employee(acmeToken)
	outsider, _ := j.employee(otherToken)

	start := time.Now().Add(48 * time.Hour).UTC()
	var session struct {
		ID string `json:"id"`
	}
	decode(t, j.expect(http.StatusCreated, http.MethodPost, "/training/sessions", acmeToken, map[string]any{
		"title":    "Fire safety",
		"startAt":  start.Format(time.RFC3339),
		"endAt":    start.Add(2 * time.Hour).Format(time.RFC3339),
		"capacity": 1,
	}), &session)
	enroll := "/training/sessions/" + session.ID + "/enrollments"
	enrolled := func() int {
		return j.count("SELECT COUNT(1) FROM training_attendances WHERE session_id = $1", session.ID)
	}

	j.expect(http.StatusConflict, http.MethodPost, enroll, acmeToken, map[string]any{"employeeIds": []string{ann, bob}})
	if enrolled() != 0 {
		t.Fatalf("expected rejected batch to enroll nobody, got %d", enrolled())
	}
	j.expect(http.StatusOK, http.MethodPost, enroll, acmeToken, map[string]any{"employeeIds": []string{ann}})
	j.expect(http.StatusOK, http.MethodPost, enroll, acmeToken, map[string]any{"employeeIds": []string{ann}})
	j.expect(http.StatusConflict, http.MethodPost, enroll, acmeToken, map[string]any{"employeeIds": []string{bob}})
	if enrolled() != 1 {
		t.Fatalf("expected exactly one enrollment, got %d", enrolled())
	}

	env := j.expect(http.StatusUnprocessableEntity, http.MethodPost, enroll, acmeToken, map[string]any{"employeeIds": []string{outsider}})
	if env.Error == nil || env.Error.Fields["employeeIds"] == "" {
		t.Fatalf("expected employeeIds field error for another tenant's employee, got %+v", env.Error)
	}

	complaint := map[string]string{
		"employeeId": outsider, "complaintType": "conduct", "subject": "Noise", "complaintDate": "2026-03-01",
	}
	env = j.expect(http.StatusUnprocessableEntity, http.MethodPost, "/complaints", acmeToken, complaint)
	if env.Error == nil || env.Error.Fields["employeeId"] == "" {
		t.Fatalf("expected employeeId field error for another tenant's employee, got %+v", env.Error)
	}
	complaint["employeeId"] = ann
	j.expect(http.StatusCreated, http.MethodPost, "/complaints", acmeToken, complaint)
	j.expect(http.StatusNotFound, http.MethodGet, "/training/sessions/"+session.ID, otherToken, nil)
}

func TestSettingsResolveThroughTheTenantHierarchy(t *testing.T) {
	j := startJourney(t)
	adminToken := j.admin()
	_, companyToken := j.company(adminToken)
	_, employeeEmail := j.employee(companyToken)
	employeeToken := j.login(employeeEmail, "journey-pass-2")

	resolved := func(token string) map[string]string {
		var out map[string]string
		decode(t, j.expect(http.StatusOK, http.MethodGet, "/settings", token, nil), &out)
		return out
	}

	j.expect(http.StatusOK, http.MethodPut, "/settings", adminToken, map[string]string{"timeFormat": "G:i"})
	t.Cleanup(func() {
		j.call(http.MethodPut, "/settings", adminToken, map[string]string{"timeFormat": "H:i"}, nil)
	})
	if got := resolved(companyToken)["timeFormat"]; got != "G:i" {
		t.Fatalf("expected company to inherit platform time format, got %q", got)
	}

	j.expect(http.StatusOK, http.MethodPut, "/settings", companyToken, map[string]string{"timeFormat": "h:i A", "defaultCurrency": "EUR"})
	company := resolved(companyToken)
	if company["timeFormat"] != "h:i A" || company["defaultCurrency"] != "EUR" {
		t.Fatalf("expected company values to win, got %v", company)
	}
	employee := resolved(employeeToken)
	if employee["timeFormat"] != "h:i A" || employee["defaultCurrency"] != "EUR" {
		t.Fatalf("expected employee to see company settings, got %v", employee)
	}

	env := j.expect(http.StatusUnprocessableEntity, http.MethodPut, "/settings", companyToken, map[string]string{"defaultCurrency": "ZZZ"})
	if env.Error == nil || env.Error.Fields["defaultCurrency"] == "" {
		t.Fatalf("expected defaultCurrency field error, got %+v", env.Error)
	}
}

func TestJobRunsRecordTheirOutcome(t *testing.T) {
	j := startJourney(t)
	ctx := context.Background()
	jobType := unique("journey")

	if _, err := j.app.Jobs.RunNow(ctx, jobType, "", func(context.Context) (any, error) {
		return map[string]int{"processed": 3}, nil
	}); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if _, err := j.app.Jobs.RunNow(ctx, jobType, "", func(context.Context) (any, error) {
		return nil, errors.New("upstream unavailable")
	}); err == nil {
		t.Fatalf("expected failing job to return its error")
	}

	if n := j.count("SELECT COUNT(1) FROM job_runs WHERE job_type = $1 AND status = 'succeeded' AND completed_at IS NOT NULL", jobType); n != 1 {
		t.Fatalf("expected one succeeded run, got %d", n)
	}
	if n := j.count("SELECT COUNT(1) FROM job_runs WHERE job_type = $1 AND status = 'failed'", jobType); n != 1 {
		t.Fatalf("expected one failed run, got %d", n)
	}
}
