package bootstrap

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/familyhub/internal/app/store/audit"
	"github.com/dalemusser/familyhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
)

// client is a tiny cookie-carrying driver for the root handler.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies []*http.Cookie
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	if set := rec.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return rec
}

func (c *client) json(rec *httptest.ResponseRecorder, dst any) {
	c.t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		c.t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func buildTestHandler(t *testing.T, devLogin bool) (http.Handler, DBDeps) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	deps := DBDeps{FamilyHubMongoClient: db.Client(), FamilyHubMongoDatabase: db}
	cfg := validConfig()
	cfg.DevLogin = devLogin

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	t.Cleanup(closeLimiters)
	return h, deps
}

func TestBuildHandler_PublicAndProtectedRoutes(t *testing.T) {
	h, _ := buildTestHandler(t, false)
	c := &client{t: t, h: h}

	if rec := c.do("GET", "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("/health = %d", rec.Code)
	}
	if rec := c.do("GET", "/api/workspaces", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("/api/workspaces anonymous = %d, want 401", rec.Code)
	}
	if rec := c.do("POST", "/auth/dev-login", `{"email":"a@example.com"}`); rec.Code != http.StatusNotFound {
		t.Errorf("dev-login without flag = %d, want 404", rec.Code)
	}
}

func TestBuildHandler_SharingFlow(t *testing.T) {
	h, deps := buildTestHandler(t, true)
	owner := &client{t: t, h: h}
	guest := &client{t: t, h: h}

	if rec := owner.do("POST", "/auth/dev-login", `{"email":"parent@example.com","display_name":"Parent"}`); rec.Code != http.StatusOK {
		t.Fatalf("owner login = %d %s", rec.Code, rec.Body.String())
	}
	if rec := guest.do("POST", "/auth/dev-login", `{"email":"kid@example.com"}`); rec.Code != http.StatusOK {
		t.Fatalf("guest login = %d", rec.Code)
	}

	var me struct {
		Authenticated bool   `json:"authenticated"`
		Name          string `json:"name"`
	}
	owner.json(owner.do("GET", "/api/me", ""), &me)
	if !me.Authenticated || me.Name != "Parent" {
		t.Fatalf("/api/me = %+v", me)
	}

	var ws struct {
		ID string `json:"id"`
	}
	rec := owner.do("POST", "/api/workspaces", `{"name":"Family","color":"#64b5f6"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	owner.json(rec, &ws)

	var invite struct {
		URL string `json:"url"`
	}
	owner.json(owner.do("GET", "/api/workspaces/"+ws.ID+"/invite", ""), &invite)
	if !strings.HasPrefix(invite.URL, "familyhub://join/") {
		t.Fatalf("invite url = %q", invite.URL)
	}

	if rec := guest.do("POST", "/api/join", `{"link":"`+invite.URL+`"}`); rec.Code != http.StatusOK {
		t.Fatalf("join = %d %s", rec.Code, rec.Body.String())
	}

	var members []struct {
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
	}
	owner.json(owner.do("GET", "/api/workspaces/"+ws.ID+"/members", ""), &members)
	if len(members) != 2 || members[0].Role != "owner" || members[1].DisplayName != "kid" {
		t.Fatalf("members = %+v", members)
	}

	var activity struct {
		Items []struct {
			EventType string `json:"event_type"`
		} `json:"items"`
	}
	rec = owner.do("GET", "/api/workspaces/"+ws.ID+"/activity", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("activity = %d %s", rec.Code, rec.Body.String())
	}
	owner.json(rec, &activity)
	joined := false
	for _, it := range activity.Items {
		joined = joined || it.EventType == "member_joined"
	}
	if !joined {
		t.Errorf("activity lacks member_joined: %+v", activity.Items)
	}

	if rec := owner.do("POST", "/auth/logout", ""); rec.Code != http.StatusNoContent {
		t.Errorf("logout = %d", rec.Code)
	}
	if rec := owner.do("GET", "/api/workspaces", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("after logout = %d, want 401", rec.Code)
	}

	// The change feed reaches the audit collection.
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := audit.New(deps.FamilyHubMongoDatabase).CountByFilter(ctx, audit.QueryFilter{Category: audit.CategorySharing})
	if err != nil {
		t.Fatalf("CountByFilter: %v", err)
	}
	if n < 2 {
		t.Errorf("sharing audit events = %d, want at least 2", n)
	}
}
