package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"filmdb.org/internal/audit"
	"filmdb.org/internal/auth"
	"filmdb.org/internal/catalog"
	"filmdb.org/internal/store/mem"
	"filmdb.org/internal/stream"
)

type fakeCatalog struct {
	statuses  map[int64]catalog.FilmStatus
	writes    []string
	locations []catalog.NewLocation
}

func (f *fakeCatalog) Summary(ctx context.Context) (catalog.Summary, error) {
	return catalog.Summary{Films: 4, Actors: 12, ByStatus: map[string]int64{"Released": 2}}, nil
}

func (f *fakeCatalog) View(ctx context.Context, view string, limit int) (catalog.Table, error) {
	return catalog.Table{Columns: []string{"view"}, Rows: []map[string]any{{"view": view}}}, nil
}

func (f *fakeCatalog) CallProcedure(ctx context.Context, name string, args ...any) (catalog.Table, error) {
	return catalog.Table{Columns: []string{"name"}, Rows: []map[string]any{{"name": name}}}, nil
}

func (f *fakeCatalog) CallFunction(ctx context.Context, fn catalog.Function, id int64) (any, error) {
	return 7, nil
}

func (f *fakeCatalog) AuditTrail(ctx context.Context, kind catalog.AuditKind, limit int) (catalog.Table, error) {
	return catalog.Table{Columns: []string{"kind"}, Rows: []map[string]any{{"kind": string(kind)}}}, nil
}

func (f *fakeCatalog) UpdateFilmStatus(ctx context.Context, filmID int64, status catalog.FilmStatus) error {
	if f.statuses == nil {
		f.statuses = map[int64]catalog.FilmStatus{}
	}
	f.statuses[filmID] = status
	return nil
}

func (f *fakeCatalog) AddFilm(ctx context.Context, nf catalog.NewFilm) (catalog.Table, error) {
	return catalog.Table{Columns: []string{"film_id"}, Rows: []map[string]any{{"film_id": 1}}}, nil
}

func (f *fakeCatalog) UpdateFilm(ctx context.Context, u catalog.FilmUpdate, status catalog.FilmStatus) error {
	f.writes = append(f.writes, "update_film")
	return nil
}

func (f *fakeCatalog) AddActor(ctx context.Context, a catalog.NewActor) (int64, error) {
	f.writes = append(f.writes, "add_actor")
	return 41, nil
}

func (f *fakeCatalog) CastActor(ctx context.Context, c catalog.Casting) error {
	f.writes = append(f.writes, "cast_actor")
	return nil
}

func (f *fakeCatalog) AllocateCrew(ctx context.Context, c catalog.CrewAllocation) error {
	f.writes = append(f.writes, "allocate_crew")
	return nil
}

func (f *fakeCatalog) AddEquipment(ctx context.Context, e catalog.NewEquipment) (int64, error) {
	f.writes = append(f.writes, "add_equipment")
	return 8, nil
}

func (f *fakeCatalog) AddLocation(ctx context.Context, l catalog.NewLocation, totalCost float64) (int64, error) {
	f.writes = append(f.writes, "add_location")
	f.locations = append(f.locations, l)
	return 5, nil
}

type apiClient struct {
	baseURL string
	client  *http.Client
	store   *mem.Store
	films   *fakeCatalog
	t       *testing.T
}

func newTestAPI(t *testing.T, withCatalog bool) *apiClient {
	t.Helper()

	store, err := mem.New(mem.Options{MaxFailedAttempts: 3})
	if err != nil {
		t.Fatalf("mem store: %v", err)
	}
	for _, nu := range []auth.NewUser{
		{Username: "mona", Password: "manager-pass", FullName: "Mona Manager", Email: "mona@example.com", Role: auth.RoleManager},
		{Username: "vic", Password: "viewer-pass", FullName: "Vic Viewer", Email: "vic@example.com", Role: auth.RoleViewer},
	} {
		if _, err := store.Seed(nu); err != nil {
			t.Fatalf("seed %s: %v", nu.Username, err)
		}
	}
	hub := stream.New(16)
	record := audit.Recorder(hub)
	authn, err := auth.NewAuthenticator(store, auth.WithAudit(record))
	if err != nil {
		t.Fatalf("authenticator: %v", err)
	}
	admin, err := auth.NewUserAdmin(store, auth.WithAudit(record))
	if err != nil {
		t.Fatalf("user admin: %v", err)
	}
	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}
	films := &fakeCatalog{}
	var cs catalog.Store
	if withCatalog {
		cs = films
	}
	api, err := New(Deps{
		Auth:     authn,
		Admin:    admin,
		Catalog:  catalog.NewService(cs, record),
		Sessions: auth.NewSessions(time.Hour),
		Tokens:   tokens,
		Events:   hub,
	}, Limits{LoginPerSecond: 100, LoginBurst: 100}, "test")
	if err != nil {
		t.Fatalf("new api: %v", err)
	}

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{baseURL: srv.URL, client: srv.Client(), store: store, films: films, t: t}
}

func (c *apiClient) do(method, path, token string, body any) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (c *apiClient) login(username, password string) string {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"username": username, "password": password})
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("login %s: expected 200, got %d", username, resp.StatusCode)
	}
	out := decode[loginResponse](c.t, resp)
	if out.Token == "" {
		c.t.Fatalf("login %s: empty token", username)
	}
	return out.Token
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func expectError(t *testing.T, resp *http.Response, code int, kind string) errorBody {
	t.Helper()
	if resp.StatusCode != code {
		resp.Body.Close()
		t.Fatalf("expected %d, got %d", code, resp.StatusCode)
	}
	body := decode[errorBody](t, resp)
	if body.Kind != kind {
		t.Fatalf("expected kind %q, got %q (%s)", kind, body.Kind, body.Error)
	}
	if body.RequestID == "" {
		t.Fatalf("expected request_id in error body")
	}
	return body
}

func TestLoginReturnsTokenAndMenu(t *testing.T) {
	api := newTestAPI(t, true)

	resp := api.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": mem.DefaultAdminUsername,
		"password": mem.DefaultAdminPassword,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	out := decode[loginResponse](t, resp)
	if out.User.Role != auth.RoleAdmin || out.User.Username != mem.DefaultAdminUsername {
		t.Fatalf("unexpected user: %+v", out.User)
	}
	if len(out.Pages) != 11 {
		t.Fatalf("admin should see 11 pages, got %d", len(out.Pages))
	}
	if out.Pages[0].Slug != "dashboard" || out.Pages[10].Slug != "audit" {
		t.Fatalf("unexpected menu order: %+v", out.Pages)
	}
	if !out.ExpiresAt.After(time.Now()) {
		t.Fatalf("token already expired: %v", out.ExpiresAt)
	}

	session := decode[sessionResponse](t, api.do(http.MethodGet, "/v1/session", out.Token, nil))
	if !session.Permissions[auth.OpDelete] {
		t.Fatalf("admin should be allowed to delete: %+v", session.Permissions)
	}
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	api := newTestAPI(t, true)

	wrong := expectError(t, api.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "vic", "password": "nope",
	}), http.StatusUnauthorized, "invalid_credentials")
	unknown := expectError(t, api.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "ghost", "password": "nope",
	}), http.StatusUnauthorized, "invalid_credentials")
	if wrong.Error != unknown.Error {
		t.Fatalf("messages differ: %q vs %q", wrong.Error, unknown.Error)
	}
	if wrong.Error != "Invalid username or password." {
		t.Fatalf("unexpected message: %q", wrong.Error)
	}
}

func TestLoginLockoutAndInactive(t *testing.T) {
	api := newTestAPI(t, true)

	for i := 0; i < 3; i++ {
		resp := api.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "mona", "password": "bad"})
		resp.Body.Close()
	}
	expectError(t, api.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "mona", "password": "manager-pass",
	}), http.StatusUnauthorized, "account_locked")

	admin := api.login(mem.DefaultAdminUsername, mem.DefaultAdminPassword)
	resp := api.do(http.MethodPatch, "/v1/users/3/status", admin, map[string]bool{"active": false})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deactivate: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()
	expectError(t, api.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "vic", "password": "viewer-pass",
	}), http.StatusUnauthorized, "account_inactive")
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	api := newTestAPI(t, true)
	expectError(t, api.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"user": "admin"}),
		http.StatusBadRequest, "invalid_input")
}

func TestPrivateRoutesNeedToken(t *testing.T) {
	api := newTestAPI(t, true)

	expectError(t, api.do(http.MethodGet, "/v1/session", "", nil), http.StatusUnauthorized, "not_authenticated")
	expectError(t, api.do(http.MethodGet, "/v1/dashboard", "garbage", nil), http.StatusUnauthorized, "invalid_token")
}

func TestLogoutInvalidatesToken(t *testing.T) {
	api := newTestAPI(t, true)
	token := api.login("vic", "viewer-pass")

	resp := api.do(http.MethodPost, "/v1/auth/logout", token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	expectError(t, api.do(http.MethodGet, "/v1/session", token, nil), http.StatusUnauthorized, "invalid_token")
}

func TestViewerPageAndActionGuards(t *testing.T) {
	api := newTestAPI(t, true)
	token := api.login("vic", "viewer-pass")

	resp := api.do(http.MethodGet, "/v1/pages/dashboard", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard page: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	expectError(t, api.do(http.MethodGet, "/v1/pages/users", token, nil), http.StatusForbidden, "permission_denied")
	expectError(t, api.do(http.MethodGet, "/v1/pages/audit", token, nil), http.StatusForbidden, "permission_denied")
	expectError(t, api.do(http.MethodGet, "/v1/pages/nowhere", token, nil), http.StatusNotFound, "not_found")
	expectError(t, api.do(http.MethodGet, "/v1/users", token, nil), http.StatusForbidden, "permission_denied")
	expectError(t, api.do(http.MethodPatch, "/v1/films/4/status", token, map[string]string{"status": "Released"}),
		http.StatusForbidden, "permission_denied")
	if len(api.films.statuses) != 0 {
		t.Fatalf("store must not be touched on denial: %v", api.films.statuses)
	}
}

func TestManagerCannotEnterAdminPages(t *testing.T) {
	api := newTestAPI(t, true)
	token := api.login("mona", "manager-pass")

	resp := api.do(http.MethodGet, "/v1/pages/operations", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("operations page: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()
	expectError(t, api.do(http.MethodGet, "/v1/audit/film", token, nil), http.StatusForbidden, "permission_denied")
	expectError(t, api.do(http.MethodGet, "/v1/users/activity", token, nil), http.StatusForbidden, "permission_denied")

	resp = api.do(http.MethodPatch, "/v1/films/4/status", token, map[string]string{"status": "Released"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("film status: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()
	if api.films.statuses[4] != catalog.StatusReleased {
		t.Fatalf("status not forwarded: %v", api.films.statuses)
	}
}

func TestAdminUserLifecycle(t *testing.T) {
	api := newTestAPI(t, true)
	token := api.login(mem.DefaultAdminUsername, mem.DefaultAdminPassword)

	nu := map[string]string{
		"username":  "newbie",
		"password":  "long-enough",
		"full_name": "New Bie",
		"email":     "newbie@example.com",
		"role":      "viewer",
	}
	resp := api.do(http.MethodPost, "/v1/users", token, nu)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decode[auth.User](t, resp)
	if created.ID == 0 || !created.Active {
		t.Fatalf("unexpected user: %+v", created)
	}

	expectError(t, api.do(http.MethodPost, "/v1/users", token, nu), http.StatusConflict, "duplicate_identity")

	nu["username"] = "x"
	nu["email"] = "other@example.com"
	expectError(t, api.do(http.MethodPost, "/v1/users", token, nu), http.StatusBadRequest, "invalid_input")

	list := decode[map[string][]auth.User](t, api.do(http.MethodGet, "/v1/users", token, nil))
	if len(list["users"]) != 4 {
		t.Fatalf("expected 4 users, got %d", len(list["users"]))
	}

	resp = api.do(http.MethodDelete, "/v1/users/4", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	expectError(t, api.do(http.MethodDelete, "/v1/users/1", token, nil), http.StatusConflict, "last_admin_protected")
	expectError(t, api.do(http.MethodPatch, "/v1/users/1/status", token, map[string]bool{"active": false}),
		http.StatusConflict, "last_admin_protected")
	expectError(t, api.do(http.MethodDelete, "/v1/users/99", token, nil), http.StatusNotFound, "not_found")
	expectError(t, api.do(http.MethodPatch, "/v1/users/2/status", token, map[string]any{}), http.StatusBadRequest, "invalid_input")

	activity := decode[map[string][]auth.UserActivity](t, api.do(http.MethodGet, "/v1/users/activity", token, nil))
	if len(activity["activity"]) == 0 {
		t.Fatal("expected activity rows")
	}
}

func TestCatalogRoutes(t *testing.T) {
	api := newTestAPI(t, true)
	token := api.login(mem.DefaultAdminUsername, mem.DefaultAdminPassword)

	sum := decode[catalog.Summary](t, api.do(http.MethodGet, "/v1/dashboard", token, nil))
	if sum.Films != 4 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	table := decode[catalog.Table](t, api.do(http.MethodGet, "/v1/reports/view_film_basic", token, nil))
	if table.Len() != 1 || table.Rows[0]["view"] != "view_film_basic" {
		t.Fatalf("unexpected report: %+v", table)
	}
	expectError(t, api.do(http.MethodGet, "/v1/reports/pg_shadow", token, nil), http.StatusNotFound, "not_found")

	proc := decode[catalog.Table](t, api.do(http.MethodGet, "/v1/procedures/sp_get_actor_filmography?id=3", token, nil))
	if proc.Rows[0]["name"] != "sp_get_actor_filmography" {
		t.Fatalf("unexpected procedure result: %+v", proc)
	}
	expectError(t, api.do(http.MethodGet, "/v1/procedures/sp_get_actor_filmography", token, nil),
		http.StatusBadRequest, "invalid_input")

	fn := decode[map[string]any](t, api.do(http.MethodGet, "/v1/functions/fn_get_actor_age/3", token, nil))
	if fn["value"] != float64(7) {
		t.Fatalf("unexpected function result: %v", fn)
	}

	trail := decode[catalog.Table](t, api.do(http.MethodGet, "/v1/audit/film", token, nil))
	if trail.Rows[0]["kind"] != "film" {
		t.Fatalf("unexpected audit trail: %+v", trail)
	}

	resp := api.do(http.MethodPost, "/v1/films", token, map[string]any{
		"title": "Night Train", "budget": 250000, "duration_minutes": 110, "director_id": 2,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add film: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

var catalogWrites = []struct {
	method, path string
	body         map[string]any
}{
	{http.MethodPut, "/v1/films/4", map[string]any{"boxoffice_collection": 1200000, "rating": 7.5, "status": "Released"}},
	{http.MethodPost, "/v1/actors", map[string]any{
		"first_name": "Ada", "last_name": "Lane", "dob": "1980-02-29", "gender": "F", "languages": []string{"English", "French"},
	}},
	{http.MethodPost, "/v1/films/4/cast", map[string]any{
		"actor_id": 3, "character_name": "Conductor", "screen_time": 40, "importance": "Lead", "salary": 50000,
	}},
	{http.MethodPost, "/v1/films/4/crew", map[string]any{"crew_id": 9, "start_date": "2024-03-01", "end_date": "2024-04-01"}},
	{http.MethodPost, "/v1/equipment", map[string]any{
		"name": "Arri Alexa", "type": "Camera", "cost": 65000, "purchase_date": "2023-01-10",
	}},
	{http.MethodPost, "/v1/films/4/locations", map[string]any{
		"name": "Union Station", "city": "Los Angeles", "cost_per_day": 2500,
		"shooting_start": "2024-05-01", "shooting_end": "2024-05-03",
	}},
}

func TestCatalogWritesDeniedToViewers(t *testing.T) {
	api := newTestAPI(t, true)
	token := api.login("vic", "viewer-pass")

	for _, tc := range catalogWrites {
		expectError(t, api.do(tc.method, tc.path, token, tc.body), http.StatusForbidden, "permission_denied")
	}
	if len(api.films.writes) != 0 {
		t.Fatalf("store must not be touched on denial: %v", api.films.writes)
	}
}

func TestCatalogWritesForManagers(t *testing.T) {
	api := newTestAPI(t, true)
	token := api.login("mona", "manager-pass")

	for _, tc := range catalogWrites {
		resp := api.do(tc.method, tc.path, token, tc.body)
		want := http.StatusCreated
		if tc.method == http.MethodPut {
			want = http.StatusOK
		}
		if resp.StatusCode != want {
			resp.Body.Close()
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, want, resp.StatusCode)
		}
		resp.Body.Close()
	}
	want := []string{"update_film", "add_actor", "cast_actor", "allocate_crew", "add_equipment", "add_location"}
	if strings.Join(api.films.writes, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected store calls: %v", api.films.writes)
	}

	booking := decode[catalog.Booking](t, api.do(http.MethodPost, "/v1/films/7/locations", token, map[string]any{
		"name": "Pier 39", "city": "San Francisco", "cost_per_day": 1000,
		"shooting_start": "2024-06-10", "shooting_end": "2024-06-12",
	}))
	if booking.LocationID != 5 || booking.FilmID != 7 || booking.Days != 3 || booking.TotalCost != 3000 {
		t.Fatalf("unexpected booking: %+v", booking)
	}
	if got := api.films.locations[len(api.films.locations)-1]; got.FilmID != 7 || got.Country != "USA" {
		t.Fatalf("film id or default country not applied: %+v", got)
	}
}

func TestCatalogRejectionsAreBadRequests(t *testing.T) {
	api := newTestAPI(t, true)
	token := api.login("mona", "manager-pass")

	body := expectError(t, api.do(http.MethodPost, "/v1/films", token, map[string]any{
		"title": "Shoestring", "budget": 5000, "duration_minutes": 90, "director_id": 2,
	}), http.StatusBadRequest, "invalid_input")
	if body.Error != "Minimum film budget is $100,000" {
		t.Fatalf("unexpected message: %q", body.Error)
	}

	body = expectError(t, api.do(http.MethodPost, "/v1/films/4/cast", token, map[string]any{
		"actor_id": 3, "character_name": "Extra", "importance": "Cameo", "salary": -1,
	}), http.StatusBadRequest, "invalid_input")
	if body.Error != "Salary cannot be negative" {
		t.Fatalf("unexpected message: %q", body.Error)
	}
	if len(api.films.writes) != 0 {
		t.Fatalf("rejected writes reached the store: %v", api.films.writes)
	}
}

func TestCatalogWithoutDatabase(t *testing.T) {
	api := newTestAPI(t, false)
	token := api.login(mem.DefaultAdminUsername, mem.DefaultAdminPassword)

	expectError(t, api.do(http.MethodGet, "/v1/dashboard", token, nil), http.StatusServiceUnavailable, "store_unavailable")
}

func TestUnknownRouteIsJSON(t *testing.T) {
	api := newTestAPI(t, true)
	expectError(t, api.do(http.MethodGet, "/v2/nothing", "", nil), http.StatusNotFound, "not_found")
}

func TestHealthAndReady(t *testing.T) {
	api := newTestAPI(t, true)

	health := decode[map[string]any](t, api.do(http.MethodGet, "/healthz", "", nil))
	if health["status"] != "ok" || health["version"] != "test" {
		t.Fatalf("unexpected health: %v", health)
	}
	ready := decode[map[string]any](t, api.do(http.MethodGet, "/readyz", "", nil))
	if ready["status"] != "ready" {
		t.Fatalf("unexpected readiness: %v", ready)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Deps{}, Limits{}, "x"); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func readEvent(t *testing.T, r *bufio.Reader, name string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("waiting for %s: %v", name, err)
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var evt stream.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if evt.Name == name {
			return
		}
	}
}

func TestAuditStreamDeliversEvents(t *testing.T) {
	api := newTestAPI(t, true)
	token := api.login(mem.DefaultAdminUsername, mem.DefaultAdminPassword)

	viewer := api.login("vic", "viewer-pass")
	expectError(t, api.do(http.MethodGet, "/v1/audit/stream", viewer, nil), http.StatusForbidden, "permission_denied")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api.baseURL+"/v1/audit/stream", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := api.client.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader, "auth.login.succeeded")

	created := api.do(http.MethodPost, "/v1/users", token, map[string]string{
		"username":  "streamed",
		"password":  "long-enough",
		"full_name": "Streamed User",
		"email":     "streamed@example.com",
		"role":      "viewer",
	})
	created.Body.Close()
	readEvent(t, reader, "users.created")
}
