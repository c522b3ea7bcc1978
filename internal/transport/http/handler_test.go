package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/fomomon/admin/internal/application"
	"github.com/fomomon/admin/internal/infrastructure/memory"
)

func newTestRouter(t *testing.T, secret string) (*echo.Echo, *application.Service) {
	t.Helper()
	svc := application.NewService(application.Providers{
		Directory:  memory.NewDirectory(),
		Federation: memory.NewFederation(),
		Roles:      memory.NewRoles(),
		Store:      memory.NewStore(),
	}, application.ServiceConfig{
		App:           "fomomon",
		Type:          "phone",
		Region:        "ap-south-1",
		Bucket:        "fomomon",
		AutoProvision: true,
		WriteAccess:   true,
	})
	return NewRouter(NewHandler(svc), secret), svc
}

func doJSON(e *echo.Echo, method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return out
}

func TestHealthIsOpen(t *testing.T) {
	e, _ := newTestRouter(t, "some-secret")

	rec := doJSON(e, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
}

func TestAddUserEndpoint(t *testing.T) {
	e, _ := newTestRouter(t, "")

	rec := doJSON(e, http.MethodPost, "/api/orgs/acme/users", map[string]string{
		"org": "acme", "name": "Ann Lee", "email": "ann@acme.org", "password": "s3cret-pw",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add user = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["ok"] != true || body["created"] != true {
		t.Errorf("unexpected body: %v", body)
	}

	rec = doJSON(e, http.MethodGet, "/api/orgs/acme/users", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("org users = %d", rec.Code)
	}
	var listing struct {
		Users []struct {
			Username string `json:"username"`
		} `json:"users"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatal(err)
	}
	if len(listing.Users) != 1 || listing.Users[0].Username != "ann lee" {
		t.Errorf("unexpected listing: %s", rec.Body.String())
	}
}

func TestAddUserRejectsOrgMismatch(t *testing.T) {
	e, _ := newTestRouter(t, "")

	rec := doJSON(e, http.MethodPost, "/api/orgs/acme/users", map[string]string{
		"org": "globex", "name": "Ann Lee", "password": "s3cret-pw",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("org mismatch = %d, want 400", rec.Code)
	}
}

func TestAddUserSurfacesProviderRejection(t *testing.T) {
	e, _ := newTestRouter(t, "")

	rec := doJSON(e, http.MethodPost, "/api/orgs/acme/users", map[string]string{
		"org": "acme", "name": "Ann Lee", "password": "short",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("weak password = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "InvalidPasswordException") {
		t.Errorf("provider code missing from response: %s", rec.Body.String())
	}
}

func TestProvisionThenAuthConfig(t *testing.T) {
	e, _ := newTestRouter(t, "")

	rec := doJSON(e, http.MethodGet, "/api/auth_config", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("auth config before provision = %d, want 404", rec.Code)
	}

	rec = doJSON(e, http.MethodPost, "/api/provision", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("provision = %d: %s", rec.Code, rec.Body.String())
	}
	tenant := decode(t, rec)
	for _, field := range []string{"userPoolId", "clientId", "identityPoolId", "roleArn"} {
		if s, _ := tenant[field].(string); s == "" {
			t.Errorf("provision response missing %s: %v", field, tenant)
		}
	}

	rec = doJSON(e, http.MethodGet, "/api/auth_config", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("auth config after provision = %d", rec.Code)
	}
	cfg := decode(t, rec)
	if cfg["region"] != "ap-south-1" || cfg["userPoolId"] != tenant["userPoolId"] {
		t.Errorf("unexpected auth config: %v", cfg)
	}
}

func TestDeleteUserEndpoint(t *testing.T) {
	e, _ := newTestRouter(t, "")

	rec := doJSON(e, http.MethodPost, "/api/orgs/acme/users", map[string]string{
		"org": "acme", "name": "Ann Lee", "password": "s3cret-pw",
	})
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Body.String())
	}

	rec = doJSON(e, http.MethodDelete, "/api/orgs/acme/users/ann%20lee", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodGet, "/api/orgs/acme/users", nil)
	var listing struct {
		Users []any `json:"users"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatal(err)
	}
	if len(listing.Users) != 0 {
		t.Errorf("user survived delete: %s", rec.Body.String())
	}
}

func TestSitesRoundTrip(t *testing.T) {
	e, _ := newTestRouter(t, "")

	rec := doJSON(e, http.MethodGet, "/api/orgs/acme/sites", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get sites = %d", rec.Code)
	}
	if body := decode(t, rec); body["sites_json"] != nil {
		t.Errorf("expected null sites_json, got %v", body["sites_json"])
	}

	rec = doJSON(e, http.MethodPut, "/api/orgs/acme/sites", map[string]any{
		"sites_json": map[string]any{"sites": []map[string]string{{"site_id": "site-7"}}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put sites = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodGet, "/api/orgs/acme/sites", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get sites = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "site-7") {
		t.Errorf("sites document not returned: %s", rec.Body.String())
	}
}

func TestUploadGhostEndpoint(t *testing.T) {
	e, _ := newTestRouter(t, "")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("site_id", "site-7")
	_ = w.WriteField("orientation", "portrait")
	part, err := w.CreateFormFile("image", "Ghost Frame.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("jpeg-bytes")); err != nil {
		t.Fatal(err)
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/orgs/acme/ghosts", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("upload = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	key, _ := body["key"].(string)
	relative, _ := body["relative_path"].(string)
	if !strings.HasPrefix(key, "acme/site-7/") || !strings.HasSuffix(key, ".jpg") {
		t.Errorf("unexpected key %q", key)
	}
	if !strings.HasPrefix(relative, "site-7/") {
		t.Errorf("unexpected relative path %q", relative)
	}
}

func TestUploadGhostValidatesForm(t *testing.T) {
	e, _ := newTestRouter(t, "")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("site_id", "site-7")
	_ = w.WriteField("orientation", "diagonal")
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/orgs/acme/ghosts", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad orientation = %d, want 400", rec.Code)
	}
}

func TestAdminAuthGuardsAPI(t *testing.T) {
	const secret = "test-admin-secret"
	e, _ := newTestRouter(t, secret)

	rec := doJSON(e, http.MethodGet, "/api/orgs", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/orgs", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token = %d, want 401", rec.Code)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops@fomomon",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/orgs", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminAuthRejectsWrongKey(t *testing.T) {
	e, _ := newTestRouter(t, "test-admin-secret")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ops@fomomon"})
	signed, err := token.SignedString([]byte("a-different-secret"))
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/orgs", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("forged token = %d, want 401", rec.Code)
	}
}
