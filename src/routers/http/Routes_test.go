package http

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"
	"github.com/tevino/abool"

	"github.com/kanikamera/agent/src/config"
	"github.com/kanikamera/agent/src/models"
)

// chdir switches to dir for the duration of the test, standing in for
// t.Chdir which needs a newer Go release than this toolchain provides.
func chdir(t *testing.T, dir string) {
	t.Helper()
	previous, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(previous); err != nil {
			t.Fatal(err)
		}
	})
}

func testCommunication() *models.Communication {
	return &models.Communication{
		HandleBootstrap: make(chan string, 1),
		HandleSnapshot:  make(chan string, 1),
		IsRunning:       abool.New(),
		IsRecording:     abool.New(),
		IsConfiguring:   abool.New(),
	}
}

// newTestAPI builds the full route table in a temporary working
// directory, so the user file lookup falls back to the defaults.
func newTestAPI(t *testing.T, communication *models.Communication) (*gin.Engine, *models.Configuration) {
	t.Helper()
	chdir(t, t.TempDir())
	os.Unsetenv("AGENT_USERNAME")
	os.Unsetenv("AGENT_PASSWORD")
	gin.SetMode(gin.TestMode)

	configuration := &models.Configuration{
		Name:   "kanikamera",
		Port:   "8080",
		Config: config.Defaults(),
	}

	r := gin.New()
	middleWare := JWTMiddleWare(".", configuration)
	authMiddleware, err := jwt.New(&middleWare)
	if err != nil {
		t.Fatalf("could not build the jwt middleware: %v", err)
	}
	AddRoutes(r, authMiddleware, ".", configuration, communication)
	return r, configuration
}

func login(t *testing.T, r *gin.Engine, username string, password string) (int, models.Authorization) {
	t.Helper()
	body, _ := json.Marshal(models.Authentication{Username: username, Password: password})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var auth models.Authorization
	json.Unmarshal(w.Body.Bytes(), &auth)
	return w.Code, auth
}

func authenticated(t *testing.T, r *gin.Engine) string {
	t.Helper()
	code, auth := login(t, r, "root", "kanikamera")
	if code != 200 {
		t.Fatalf("login failed with status %d", code)
	}
	if auth.Token == "" {
		t.Fatal("expected a token after login")
	}
	return auth.Token
}

func TestLoginIssuesToken(t *testing.T) {
	r, _ := newTestAPI(t, testCommunication())

	code, auth := login(t, r, "root", "kanikamera")
	if code != 200 {
		t.Fatalf("expected status 200, got %d", code)
	}
	if auth.Token == "" {
		t.Fatal("expected a token")
	}
	if auth.Username != "root" {
		t.Errorf("expected username root in the response, got %q", auth.Username)
	}
	if auth.Expire == "" {
		t.Error("expected an expiry timestamp")
	}
	if _, err := time.Parse(time.RFC3339, auth.Expire); err != nil {
		t.Errorf("expiry is not RFC3339: %v", err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	r, _ := newTestAPI(t, testCommunication())

	code, auth := login(t, r, "root", "wrong")
	if code != 401 {
		t.Fatalf("expected status 401, got %d", code)
	}
	if auth.Token != "" {
		t.Error("expected no token for a failed login")
	}
}

func TestConfigRequiresToken(t *testing.T) {
	r, _ := newTestAPI(t, testCommunication())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/config", nil)
	r.ServeHTTP(w, req)

	if w.Code != 401 {
		t.Fatalf("expected status 401 without a token, got %d", w.Code)
	}
}

func TestGetConfigReturnsConfig(t *testing.T) {
	r, _ := newTestAPI(t, testCommunication())
	token := authenticated(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/config", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response struct {
		Config models.Config `json:"config"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("could not decode the response: %v", err)
	}
	if response.Config.Capture.Interval == 0 {
		t.Error("expected the default capture interval in the response")
	}
}

func TestUpdateConfigPersistsAndRestarts(t *testing.T) {
	communication := testCommunication()
	r, configuration := newTestAPI(t, communication)
	token := authenticated(t, r)

	update := map[string]interface{}{
		"type":    "agent",
		"name":    "shed-camera",
		"offline": "true",
		"capture": map[string]interface{}{
			"interval": 120,
		},
	}
	body, _ := json.Marshal(update)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/config", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if configuration.Config.Name != "shed-camera" {
		t.Errorf("expected the name to be merged, got %q", configuration.Config.Name)
	}
	if configuration.Config.Capture.Interval != 120 {
		t.Errorf("expected the interval to be merged, got %d", configuration.Config.Capture.Interval)
	}

	select {
	case status := <-communication.HandleBootstrap:
		if status != "restart" {
			t.Errorf("expected a restart signal, got %q", status)
		}
	default:
		t.Error("expected a bootstrap signal after the update")
	}

	if _, err := os.Stat("data/config/config.json"); err != nil {
		t.Errorf("expected the config to be persisted: %v", err)
	}
}

func TestStatusEndpoint(t *testing.T) {
	r, _ := newTestAPI(t, testCommunication())
	token := authenticated(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var heartbeat models.Heartbeat
	if err := json.Unmarshal(w.Body.Bytes(), &heartbeat); err != nil {
		t.Fatalf("could not decode the response: %v", err)
	}
	if heartbeat.Version == "" {
		t.Error("expected a version in the status")
	}
	if heartbeat.Name != "kanikamera" {
		t.Errorf("expected the agent name, got %q", heartbeat.Name)
	}
	if heartbeat.Recording {
		t.Error("expected the recording flag to be off")
	}
}

func TestSnapshotEndpointSignalsStillTask(t *testing.T) {
	communication := testCommunication()
	r, _ := newTestAPI(t, communication)
	token := authenticated(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/camera/snapshot", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	select {
	case <-communication.HandleSnapshot:
	default:
		t.Error("expected a snapshot request on the channel")
	}
}

func TestRestartEndpoint(t *testing.T) {
	communication := testCommunication()
	r, _ := newTestAPI(t, communication)
	token := authenticated(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/restart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	select {
	case status := <-communication.HandleBootstrap:
		if status != "restart" {
			t.Errorf("expected restart, got %q", status)
		}
	default:
		t.Error("expected a bootstrap signal")
	}
}

func TestMediaDaysEmpty(t *testing.T) {
	r, _ := newTestAPI(t, testCommunication())
	token := authenticated(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/days", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response models.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("could not decode the response: %v", err)
	}
	days, ok := response.Data.([]interface{})
	if !ok {
		t.Fatalf("expected a list of days, got %T", response.Data)
	}
	if len(days) != 0 {
		t.Errorf("expected no days in a fresh directory, got %d", len(days))
	}
}
