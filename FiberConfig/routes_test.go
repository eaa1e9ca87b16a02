package FiberConfig

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"TaskLedger/Config"
	"TaskLedger/Controllers"
	"TaskLedger/Models"
	"TaskLedger/Services"
	"TaskLedger/Storage"
	"TaskLedger/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t       *testing.T
	app     *fiber.App
	ledger  *Services.Ledger
	tokens  middleware.Tokens
	manager *Models.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	db, err := Models.Connect("sqlite", filepath.Join(dir, "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	ledger := Services.New(db, Services.Options{
		RatePerHour: 15,
		Location:    time.UTC,
		Now:         func() time.Time { return now },
	})
	manager, err := ledger.Users.EnsureManager(context.Background(), "boss", "boss-pass")
	require.NoError(t, err)

	cfg, err := Config.FromEnv(func(string) string { return "" })
	require.NoError(t, err)
	cfg.LogDir = ""

	tokens := middleware.Tokens{Secret: []byte("api-test"), TTL: time.Hour}
	app := New(cfg, &Controllers.Handler{
		Ledger: ledger,
		Proofs: Storage.NewProofStore(filepath.Join(dir, "uploads"), 800),
		Tokens: tokens,
	})
	return &testServer{t: t, app: app, ledger: ledger, tokens: tokens, manager: manager}
}

func (s *testServer) token(user *Models.User) string {
	s.t.Helper()
	raw, _, err := s.tokens.Sign(*user)
	require.NoError(s.t, err)
	return raw
}

func (s *testServer) employee(username string) (*Models.User, string) {
	s.t.Helper()
	var created struct {
		User     Models.User `json:"user"`
		Password string      `json:"password"`
	}
	resp := s.do("POST", "/api/employees", s.token(s.manager), fiber.Map{"username": username})
	require.Equal(s.t, fiber.StatusCreated, resp.StatusCode)
	decode(s.t, resp, &created)
	return &created.User, created.Password
}

func (s *testServer) do(method, path, token string, body interface{}) *http.Response {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, token)
}

func (s *testServer) send(req *http.Request, token string) *http.Response {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func errorOf(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	var body map[string]string
	decode(t, resp, &body)
	return body
}

func multipartClaim(t *testing.T, fields map[string]string, withScreenshot bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if withScreenshot {
		part, err := w.CreateFormFile("screenshot", "proof.png")
		require.NoError(t, err)
		img := image.NewRGBA(image.Rect(0, 0, 32, 16))
		img.Set(1, 1, color.RGBA{G: 255, A: 255})
		require.NoError(t, png.Encode(part, img))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp := s.do("GET", "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLoginAndSession(t *testing.T) {
	s := newTestServer(t)
	_, password := s.employee("charles")

	resp := s.do("POST", "/api/login", "", fiber.Map{"username": "charles", "password": password + "!"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = s.do("POST", "/api/login", "", fiber.Map{"username": "charles", "password": password})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	var login struct {
		Token string `json:"token"`
	}
	decode(t, resp, &login)
	require.NotEmpty(t, login.Token)

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: cookie.Value})
	resp = s.send(req, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me map[string]interface{}
	decode(t, resp, &me)
	assert.Equal(t, "charles", me["username"])
	assert.Equal(t, "employee", me["role"])

	assert.Equal(t, fiber.StatusUnauthorized, s.do("GET", "/api/me", "", nil).StatusCode)
	assert.Equal(t, fiber.StatusForbidden, s.do("GET", "/api/payroll", login.Token, nil).StatusCode)
}

func TestClaimToPayrollFlow(t *testing.T) {
	s := newTestServer(t)
	managerToken := s.token(s.manager)
	charles, _ := s.employee("charles")
	dana, _ := s.employee("dana")
	charlesToken := s.token(charles)
	danaToken := s.token(dana)

	resp := s.do("POST", "/api/accounts", managerToken, fiber.Map{
		"account_name":  "brownhandshake",
		"login_details": "user/pass",
		"browser_type":  "GoLogin",
		"employee_id":   charles.ID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body, contentType := multipartClaim(t, map[string]string{
		"platform":         "Outlier AI",
		"account_name":     "brownhandshake",
		"task_external_id": "TASK-123",
		"time_spent_hours": "4.00",
	}, true)
	req := httptest.NewRequest("POST", "/api/claims", body)
	req.Header.Set("Content-Type", contentType)
	resp = s.send(req, charlesToken)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var claim Models.TaskClaim
	decode(t, resp, &claim)
	assert.Equal(t, Models.ClaimPending, claim.Status)
	assert.True(t, strings.HasPrefix(claim.ScreenshotRef, "proofs/"))

	resp = s.do("POST", "/api/claims", charlesToken, fiber.Map{
		"platform":         "Outlier AI",
		"account_name":     "brownhandshake",
		"task_external_id": "TASK-123",
		"time_spent_hours": "1",
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "This task has already been claimed.", errorOf(t, resp)["error"])

	claimPath := fmt.Sprintf("/api/claims/%d", claim.ID)
	resp = s.do("GET", claimPath+"/screenshot", charlesToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, fiber.StatusForbidden, s.do("GET", claimPath+"/screenshot", danaToken, nil).StatusCode)

	assert.Equal(t, fiber.StatusForbidden, s.do("GET", "/api/claims/pending", charlesToken, nil).StatusCode)
	resp = s.do("GET", "/api/claims/pending", managerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var groups []Services.EmployeeClaims
	decode(t, resp, &groups)
	require.Len(t, groups, 1)
	assert.Equal(t, "charles", groups[0].Username)

	resp = s.do("POST", claimPath+"/approve", managerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = s.do("GET", "/api/payroll", managerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var summary struct {
		Rows []struct {
			Username string  `json:"username"`
			TotalPay float64 `json:"total_pay"`
		} `json:"rows"`
	}
	decode(t, resp, &summary)
	require.Len(t, summary.Rows, 1)
	assert.Equal(t, "charles", summary.Rows[0].Username)
	assert.Equal(t, 60.0, summary.Rows[0].TotalPay)

	resp = s.do("GET", "/api/payroll/export", managerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "payroll-")

	resp = s.do("POST", "/api/payroll/mark-paid", managerToken, fiber.Map{"employee_id": charles.ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var paid map[string]int64
	decode(t, resp, &paid)
	assert.Equal(t, int64(1), paid["updated"])

	resp = s.do("GET", "/api/payroll", managerToken, nil)
	decode(t, resp, &summary)
	assert.Empty(t, summary.Rows)

	resp = s.do("GET", fmt.Sprintf("/api/employees/%d/history?date=garbage", charles.ID), managerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var history struct {
		SelectedDate string `json:"selected_date"`
		TaskCount    int    `json:"task_count"`
	}
	decode(t, resp, &history)
	assert.Equal(t, "2026-10-14", history.SelectedDate)
	assert.Equal(t, 1, history.TaskCount)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	managerToken := s.token(s.manager)
	charles, _ := s.employee("charles")
	charlesToken := s.token(charles)

	resp := s.do("POST", "/api/claims", charlesToken, fiber.Map{
		"platform":         "Outlier AI",
		"account_name":     "not-mine",
		"task_external_id": "T-1",
		"time_spent_hours": "1",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "account_name", errorOf(t, resp)["field"])

	resp = s.do("POST", "/api/claims/999/reject", managerToken, fiber.Map{"reason": " "})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "reason", errorOf(t, resp)["field"])

	assert.Equal(t, fiber.StatusNotFound, s.do("POST", "/api/claims/999/approve", managerToken, nil).StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, s.do("POST", "/api/claims/abc/approve", managerToken, nil).StatusCode)
	assert.Equal(t, fiber.StatusNotFound, s.do("POST", "/api/accounts/42/accept", charlesToken, nil).StatusCode)
	assert.Equal(t, fiber.StatusNotFound, s.do("POST", "/api/payroll/mark-paid", managerToken, fiber.Map{"employee_id": 404}).StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, s.do("GET", "/api/claims/mine", "", nil).StatusCode)

	body, contentType := multipartClaim(t, map[string]string{
		"platform":         "Handshake",
		"account_name":     "x",
		"task_external_id": "T-2",
		"time_spent_hours": "lots",
	}, false)
	req := httptest.NewRequest("POST", "/api/claims", body)
	req.Header.Set("Content-Type", contentType)
	resp = s.send(req, charlesToken)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "time_spent_hours", errorOf(t, resp)["field"])
}

func TestAccountLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	managerToken := s.token(s.manager)
	charles, _ := s.employee("charles")
	charlesToken := s.token(charles)

	resp := s.do("POST", "/api/accounts", managerToken, fiber.Map{
		"account_name": "acct-7",
		"browser_type": "MoreLogin",
		"employee_id":  charles.ID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var account Models.WorkAccount
	decode(t, resp, &account)
	path := fmt.Sprintf("/api/accounts/%d", account.ID)

	require.Equal(t, fiber.StatusOK, s.do("POST", path+"/pause", charlesToken, nil).StatusCode)
	resp = s.do("POST", path+"/accept", charlesToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &account)
	assert.True(t, account.RecentlyUnpaused)

	resp = s.do("GET", "/api/accounts/notifications", managerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var notes Services.AccountNotifications
	decode(t, resp, &notes)
	require.Len(t, notes.Unpaused, 1)

	resp = s.do("POST", path+"/dismiss", managerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &account)
	assert.False(t, account.RecentlyUnpaused)

	assert.Equal(t, fiber.StatusForbidden, s.do("POST", path+"/dismiss", charlesToken, nil).StatusCode)

	resp = s.do("PUT", path+"/assignee", managerToken, fiber.Map{"employee_id": nil})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decode(t, resp, &account)
	assert.Nil(t, account.EmployeeID)

	resp = s.do("GET", "/api/accounts/mine", charlesToken, nil)
	var mine []Models.WorkAccount
	decode(t, resp, &mine)
	assert.Empty(t, mine)
}
