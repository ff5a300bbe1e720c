package sharing_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/familyhub/internal/app/features/sharing"
	"github.com/dalemusser/familyhub/internal/app/policy/workspacepolicy"
	"github.com/dalemusser/familyhub/internal/app/system/auth"
	"github.com/dalemusser/familyhub/internal/app/system/colors"
	"github.com/dalemusser/familyhub/internal/app/system/invitelink"
	"github.com/dalemusser/familyhub/internal/app/system/membership"
	"github.com/dalemusser/familyhub/internal/app/system/notify"
	"github.com/dalemusser/familyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"github.com/dalemusser/familyhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type harness struct {
	store  *testutil.MemStore
	router chi.Router
	owner  models.User
	ws     models.Workspace
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, nil)
}

func newHarnessWith(t *testing.T, configure func(*sharing.Handler)) *harness {
	t.Helper()
	logger := zap.NewNop()
	store := testutil.NewMemStore()
	hub := notify.NewHub(logger)
	invites := invitelink.New(store, hub, invitelink.Config{}, logger)
	svc := membership.New(store, store.Users(), invites, hub, logger)

	sm, err := auth.NewSessionManager(auth.EphemeralKey(), "", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	h := sharing.NewHandler(svc, colors.NewResolver(logger), store, logger)
	if configure != nil {
		configure(h)
	}

	owner := store.PutUser(models.User{DisplayName: "Owner", Email: "owner@example.com"})
	ws := store.Put(models.Workspace{
		Name:    "Family",
		Kind:    models.KindShared,
		OwnerID: owner.ID,
		Color:   "#64B5F6",
		Members: []models.Member{workspacepolicy.NewMember(owner.ID, models.RoleOwner, time.Now().UTC())},
	})
	return &harness{store: store, router: sharing.Routes(h, sm), owner: owner, ws: ws}
}

func (hs *harness) do(t *testing.T, method, target string, as *models.User, body any) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.JSONRequest(t, method, target, body)
	if as != nil {
		req = testutil.AsUser(req, *as)
	}
	rec := testutil.NewRecorder()
	hs.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *testutil.ResponseRecorder) T {
	t.Helper()
	var v T
	rec.Decode(t, &v)
	return v
}

type errBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func TestRoutes_RequireSignIn(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(t, http.MethodGet, "/workspaces", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := decode[errBody](t, rec).Error; got != "not_authenticated" {
		t.Errorf("error = %q", got)
	}
}

func TestCreateAndList(t *testing.T) {
	hs := newHarness(t)
	u := hs.store.PutUser(models.User{DisplayName: "Sam"})

	rec := hs.do(t, http.MethodPost, "/workspaces", &u, map[string]string{
		"name": "<b>Soccer</b> Team", "color": "#abc",
	})
	rec.AssertStatus(t, http.StatusCreated)
	created := decode[map[string]any](t, rec)
	if created["name"] != "Soccer Team" {
		t.Errorf("name = %v", created["name"])
	}
	if created["kind"] != "shared" || created["role"] != "owner" {
		t.Errorf("kind/role = %v/%v", created["kind"], created["role"])
	}
	perms, _ := created["permissions"].(map[string]any)
	if perms["can_invite_members"] != true {
		t.Errorf("owner should be able to invite: %v", perms)
	}

	rec = hs.do(t, http.MethodGet, "/workspaces", &u, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decode[[]map[string]any](t, rec)
	if len(list) != 1 || list[0]["name"] != "Soccer Team" {
		t.Errorf("list = %v", list)
	}
}

func TestCreate_RejectsBadInput(t *testing.T) {
	hs := newHarness(t)
	cases := []struct {
		name string
		body any
	}{
		{"empty name", map[string]string{"name": "  "}},
		{"bad color", map[string]string{"name": "X", "color": "blue"}},
		{"bad kind", map[string]string{"name": "X", "kind": "team"}},
		{"unknown field", map[string]string{"name": "X", "owner": "me"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := hs.do(t, http.MethodPost, "/workspaces", &hs.owner, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", rec.Code, rec.Body.String())
			}
			if got := decode[errBody](t, rec).Error; got != "invalid_input" {
				t.Errorf("error = %q", got)
			}
		})
	}
}

func TestWorkspace_HiddenFromNonMembers(t *testing.T) {
	hs := newHarness(t)
	stranger := hs.store.PutUser(models.User{DisplayName: "Stranger"})

	rec := hs.do(t, http.MethodGet, "/workspaces/"+hs.ws.ID.Hex(), &stranger, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("stranger status = %d, want 404", rec.Code)
	}
	rec = hs.do(t, http.MethodGet, "/workspaces/not-an-id", &hs.owner, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
	rec = hs.do(t, http.MethodGet, "/workspaces/"+hs.ws.ID.Hex(), &hs.owner, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("owner status = %d, want 200", rec.Code)
	}
}

func TestInviteAndJoin(t *testing.T) {
	hs := newHarness(t)
	joiner := hs.store.PutUser(models.User{DisplayName: "Joiner"})

	rec := hs.do(t, http.MethodGet, "/workspaces/"+hs.ws.ID.Hex()+"/invite", &hs.owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("invite status = %d body=%s", rec.Code, rec.Body.String())
	}
	inv := decode[map[string]any](t, rec)
	url, _ := inv["url"].(string)
	if !strings.HasPrefix(url, "familyhub://join/") {
		t.Fatalf("url = %q", url)
	}

	// Asking again returns the same still-valid link.
	rec = hs.do(t, http.MethodGet, "/workspaces/"+hs.ws.ID.Hex()+"/invite", &hs.owner, nil)
	if again := decode[map[string]any](t, rec); again["url"] != url {
		t.Errorf("second url = %v, want %v", again["url"], url)
	}

	rec = hs.do(t, http.MethodPost, "/join", &joiner, map[string]string{"link": url})
	if rec.Code != http.StatusOK {
		t.Fatalf("join status = %d body=%s", rec.Code, rec.Body.String())
	}
	joined := decode[map[string]any](t, rec)
	if joined["role"] != "editor" || joined["member_count"] != float64(2) {
		t.Errorf("joined = %v", joined)
	}

	// Joining twice is harmless.
	code := strings.TrimPrefix(url, "familyhub://join/")
	rec = hs.do(t, http.MethodPost, "/join/"+code, &joiner, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("rejoin status = %d", rec.Code)
	}
	ws, _ := hs.store.GetByID(t.Context(), hs.ws.ID)
	if len(ws.Members) != 2 {
		t.Errorf("members = %d, want 2", len(ws.Members))
	}
}

func TestJoin_Errors(t *testing.T) {
	hs := newHarness(t)
	joiner := hs.store.PutUser(models.User{DisplayName: "Joiner"})

	rec := hs.do(t, http.MethodPost, "/join/nope", &joiner, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown code status = %d, want 404", rec.Code)
	}

	ws := hs.ws
	ws.InviteLink = &models.InviteLink{
		Code:      "old-code",
		CreatedAt: time.Now().Add(-10 * 24 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	hs.store.Put(ws)
	rec = hs.do(t, http.MethodPost, "/join/old-code", &joiner, nil)
	if rec.Code != http.StatusGone {
		t.Errorf("expired status = %d, want 410", rec.Code)
	}
	if got := decode[errBody](t, rec).Error; got != "invite_link_expired" {
		t.Errorf("error = %q", got)
	}

	rec = hs.do(t, http.MethodPost, "/join", &joiner, map[string]string{"link": "https://example.com/x"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign link status = %d, want 404", rec.Code)
	}
}

func TestInvite_PersonalWorkspaceHasNoLink(t *testing.T) {
	hs := newHarness(t)
	personal := hs.store.Put(models.Workspace{
		Name:    "Me",
		Kind:    models.KindPersonal,
		OwnerID: hs.owner.ID,
		Members: []models.Member{workspacepolicy.NewMember(hs.owner.ID, models.RoleOwner, time.Now())},
	})
	rec := hs.do(t, http.MethodGet, "/workspaces/"+personal.ID.Hex()+"/invite", &hs.owner, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestRotateInvite_ViewerForbidden(t *testing.T) {
	hs := newHarness(t)
	viewer := hs.store.PutUser(models.User{DisplayName: "Viewer"})
	ws := hs.ws
	ws.Members = append(ws.Members, workspacepolicy.NewMember(viewer.ID, models.RoleViewer, time.Now()))
	hs.store.Put(ws)

	rec := hs.do(t, http.MethodPost, "/workspaces/"+hs.ws.ID.Hex()+"/invite", &viewer, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	rec = hs.do(t, http.MethodPost, "/workspaces/"+hs.ws.ID.Hex()+"/invite", &hs.owner, nil)
	if rec.Code != http.StatusCreated {
		t.Errorf("owner status = %d, want 201", rec.Code)
	}
}

func TestMembers(t *testing.T) {
	hs := newHarness(t)
	editor := hs.store.PutUser(models.User{DisplayName: "Editor"})
	ws := hs.ws
	ws.Members = append(ws.Members, workspacepolicy.NewMember(editor.ID, models.RoleEditor, time.Now().Add(time.Minute)))
	hs.store.Put(ws)
	base := "/workspaces/" + hs.ws.ID.Hex() + "/members"

	rec := hs.do(t, http.MethodGet, base, &editor, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decode[[]map[string]any](t, rec)
	if len(list) != 2 || list[0]["is_owner"] != true || list[1]["display_name"] != "Editor" {
		t.Fatalf("members = %v", list)
	}

	t.Run("editor cannot change roles", func(t *testing.T) {
		rec := hs.do(t, http.MethodPut, base+"/"+editor.ID.Hex()+"/role", &editor, map[string]string{"role": "admin"})
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
	t.Run("owner changes role", func(t *testing.T) {
		rec := hs.do(t, http.MethodPut, base+"/"+editor.ID.Hex()+"/role", &hs.owner, map[string]string{"role": "viewer"})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
		}
		got, _ := hs.store.GetByID(t.Context(), hs.ws.ID)
		m, _ := got.Member(editor.ID)
		if m.Role != models.RoleViewer {
			t.Errorf("role = %q", m.Role)
		}
	})
	t.Run("unknown role", func(t *testing.T) {
		rec := hs.do(t, http.MethodPut, base+"/"+editor.ID.Hex()+"/role", &hs.owner, map[string]string{"role": "boss"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
	t.Run("member sets own color", func(t *testing.T) {
		rec := hs.do(t, http.MethodPut, base+"/me/color", &editor, map[string]string{"color": "#ff0000"})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
		}
		got, _ := hs.store.GetByID(t.Context(), hs.ws.ID)
		m, _ := got.Member(editor.ID)
		if m.CustomColor != "#FF0000" {
			t.Errorf("custom color = %q", m.CustomColor)
		}
	})
	t.Run("owner cannot be removed", func(t *testing.T) {
		rec := hs.do(t, http.MethodDelete, base+"/"+hs.owner.ID.Hex(), &hs.owner, nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})
	t.Run("owner removes member", func(t *testing.T) {
		rec := hs.do(t, http.MethodDelete, base+"/"+editor.ID.Hex(), &hs.owner, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}
		got, _ := hs.store.GetByID(t.Context(), hs.ws.ID)
		if got.HasMember(editor.ID) {
			t.Error("editor still a member")
		}
	})
}

func TestArchive(t *testing.T) {
	hs := newHarness(t)
	path := "/workspaces/" + hs.ws.ID.Hex() + "/archive"

	rec := hs.do(t, http.MethodPost, path, &hs.owner, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("archive status = %d", rec.Code)
	}
	rec = hs.do(t, http.MethodGet, "/workspaces", &hs.owner, nil)
	if list := decode[[]map[string]any](t, rec); len(list) != 0 {
		t.Errorf("archived workspace listed: %v", list)
	}
	rec = hs.do(t, http.MethodGet, "/workspaces?archived=true", &hs.owner, nil)
	if list := decode[[]map[string]any](t, rec); len(list) != 1 {
		t.Errorf("archived=true list = %v", list)
	}
	rec = hs.do(t, http.MethodDelete, path, &hs.owner, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("unarchive status = %d", rec.Code)
	}
}

func TestResolveColors(t *testing.T) {
	hs := newHarness(t)
	editor := hs.store.PutUser(models.User{DisplayName: "Editor", PersonalColor: "#111111"})
	ws := hs.ws
	m := workspacepolicy.NewMember(editor.ID, models.RoleEditor, time.Now())
	m.CustomColor = "#222222"
	ws.Members = append(ws.Members, m)
	hs.store.Put(ws)
	personal := hs.store.Put(models.Workspace{
		Name:    "Mine",
		Kind:    models.KindPersonal,
		OwnerID: editor.ID,
		Members: []models.Member{workspacepolicy.NewMember(editor.ID, models.RoleOwner, time.Now())},
	})

	rec := hs.do(t, http.MethodPost, "/colors/resolve", &editor, map[string]any{
		"items": []map[string]string{
			{"kind": "event", "color": "#333333", "workspace_id": hs.ws.ID.Hex()},
			{"kind": "todo", "workspace_id": hs.ws.ID.Hex()},
			{"kind": "note", "workspace_id": personal.ID.Hex()},
			{"kind": "todo", "workspace_id": "deadbeef"},
			{"kind": "note"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[struct {
		Colors []string `json:"colors"`
	}](t, rec).Colors
	want := []string{
		"#333333",
		"#222222",
		"#111111",
		colors.Fallback(models.ItemTodo),
		colors.Fallback(models.ItemNote),
	}
	if len(got) != len(want) {
		t.Fatalf("colors = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("colors[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResolveColors_NonMemberGetsFallback(t *testing.T) {
	hs := newHarness(t)
	stranger := hs.store.PutUser(models.User{DisplayName: "Stranger"})

	rec := hs.do(t, http.MethodPost, "/colors/resolve", &stranger, map[string]any{
		"items": []map[string]string{
			{"kind": "todo", "workspace_id": hs.ws.ID.Hex()},
			{"kind": "todo", "workspace_id": primitive.NewObjectID().Hex()},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[struct {
		Colors []string `json:"colors"`
	}](t, rec).Colors
	want := colors.Fallback(models.ItemTodo)
	if len(got) != 2 || got[0] != want || got[1] != want {
		t.Errorf("colors = %v, want both %s", got, want)
	}

	// A member still sees the workspace color.
	rec = hs.do(t, http.MethodPost, "/colors/resolve", &hs.owner, map[string]any{
		"items": []map[string]string{{"kind": "todo", "workspace_id": hs.ws.ID.Hex()}},
	})
	got = decode[struct {
		Colors []string `json:"colors"`
	}](t, rec).Colors
	if len(got) != 1 || got[0] != "#64B5F6" {
		t.Errorf("member colors = %v, want [#64B5F6]", got)
	}
}

func TestResolveColors_UnknownKind(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(t, http.MethodPost, "/colors/resolve", &hs.owner, map[string]any{
		"items": []map[string]string{{"kind": "reminder"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSetPersonalColor(t *testing.T) {
	hs := newHarness(t)
	rec := hs.do(t, http.MethodPut, "/me/color", &hs.owner, map[string]string{"color": "#00aa00"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	u, _ := hs.store.Users().GetByID(t.Context(), hs.owner.ID)
	if u.PersonalColor != "#00AA00" {
		t.Errorf("personal color = %q", u.PersonalColor)
	}
}

func TestJoin_RateLimited(t *testing.T) {
	limiter := ratelimit.New(2, time.Minute)
	t.Cleanup(limiter.Close)
	hs := newHarnessWith(t, func(h *sharing.Handler) { h.JoinLimiter = limiter })
	guesser := hs.store.PutUser(models.User{DisplayName: "Guesser"})
	other := hs.store.PutUser(models.User{DisplayName: "Other"})

	hs.do(t, http.MethodPost, "/join/nope-1", &guesser, nil).AssertStatus(t, http.StatusNotFound)
	hs.do(t, http.MethodPost, "/join/nope-2", &guesser, nil).AssertStatus(t, http.StatusNotFound)
	rec := hs.do(t, http.MethodPost, "/join", &guesser, map[string]string{"link": "nope-3"})
	rec.AssertStatus(t, http.StatusTooManyRequests)
	rec.AssertContains(t, "rate_limited")

	// Other users have their own budget.
	hs.do(t, http.MethodPost, "/join/nope-4", &other, nil).AssertStatus(t, http.StatusNotFound)
}
