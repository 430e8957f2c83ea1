package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"companion/internal/announcements"
	"companion/internal/content"
	"companion/internal/devices"
	"companion/internal/models"
	"companion/internal/reminders"
	"companion/internal/schedule"
	"companion/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func testServer(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	backend := store.NewMemoryBackend()
	prefs := store.NewPrefs(backend, logger)
	index := schedule.NewIndex(time.UTC)
	index.Swap([]models.Day{
		{Day: 1, Date: "2026-03-10", Sessions: []models.Session{
			{Time: "09:00", End: "10:00", Title: "Keynote", Room: "Sala A", Speakers: []string{"sp1"}},
		}},
	})

	loader := content.NewLoader(content.NewClient(content.ClientConfig{BaseURL: "http://unused", Logger: logger}), index, time.Minute, logger)
	registry := reminders.NewRegistry(prefs, index, nil, logger)
	tracker := announcements.NewTracker(prefs, logger)
	deviceService := devices.NewService(backend, logger)

	handlers := NewHandlers(loader, index, registry, tracker, deviceService, nil, prefs, logger)
	return Routes(handlers)
}

func doJSON(t *testing.T, server http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Device-ID", "dev1")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	decoded := map[string]any{}
	if recorder.Body.Len() > 0 {
		_ = json.Unmarshal(recorder.Body.Bytes(), &decoded)
	}
	return recorder, decoded
}

func TestRegisterDevice(t *testing.T) {
	server := testServer(t)

	recorder, body := doJSON(t, server, http.MethodPost, "/devices", "")
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", recorder.Code)
	}
	if id, _ := body["device_id"].(string); id == "" {
		t.Fatalf("expected a device id, got %v", body)
	}
}

func TestToggleReminder(t *testing.T) {
	server := testServer(t)

	recorder, body := doJSON(t, server, http.MethodPost, "/reminders/toggle", `{"key":"2026-03-10|09:00|Keynote"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if reminded, _ := body["reminded"].(bool); !reminded {
		t.Fatalf("expected reminded=true, got %v", body)
	}

	_, listBody := doJSON(t, server, http.MethodGet, "/reminders", "")
	keys, _ := listBody["reminders"].([]any)
	if len(keys) != 1 || keys[0] != "2026-03-10|09:00|Keynote" {
		t.Fatalf("unexpected reminder list: %v", listBody)
	}
}

func TestToggleReminder_RequiresDevice(t *testing.T) {
	server := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/reminders/toggle", strings.NewReader(`{"key":"k"}`))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without device id, got %d", recorder.Code)
	}
}

func TestFollowSpeakerEndpoint(t *testing.T) {
	server := testServer(t)

	recorder, _ := doJSON(t, server, http.MethodPost, "/speakers/sp1/follow", "")
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}

	_, body := doJSON(t, server, http.MethodGet, "/reminders", "")
	keys, _ := body["reminders"].([]any)
	if len(keys) != 1 {
		t.Fatalf("expected one derived reminder, got %v", body)
	}

	_, followedBody := doJSON(t, server, http.MethodGet, "/speakers/followed", "")
	followed, _ := followedBody["followed"].([]any)
	if len(followed) != 1 || followed[0] != "sp1" {
		t.Fatalf("unexpected followed list: %v", followedBody)
	}
}

func TestSessionICS(t *testing.T) {
	server := testServer(t)

	recorder, _ := doJSON(t, server, http.MethodGet, "/sessions/ics?date=2026-03-10&time=09:00&title=Keynote", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "SUMMARY:Keynote") {
		t.Errorf("expected an ICS body, got %q", recorder.Body.String())
	}

	recorder, _ = doJSON(t, server, http.MethodGet, "/sessions/ics?date=2026-03-10&time=09:00&title=Nope", "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", recorder.Code)
	}
}

func TestClaimsUnavailableWithoutDatabase(t *testing.T) {
	server := testServer(t)

	recorder, _ := doJSON(t, server, http.MethodPost, "/claims", `{"account_id":"acc1","speaker_id":"sp1"}`)
	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a claims backend, got %d", recorder.Code)
	}

	recorder, body := doJSON(t, server, http.MethodGet, "/claims", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if claimed, ok := body["claimed"].([]any); !ok || len(claimed) != 0 {
		t.Fatalf("expected empty claimed list, got %v", body)
	}
}
