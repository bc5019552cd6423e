package device

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jypelle/heatbox/apimodel"
	"github.com/jypelle/heatbox/internal/srv/config"
	"github.com/jypelle/heatbox/internal/srv/event"
)

const testApiKey = "secret"

type fakeScreen struct {
	img image.Image
}

func (f *fakeScreen) LastImage() image.Image {
	return f.img
}

func newTestApi(t *testing.T, simulation bool, screen ImageSource) (*Api, chan interface{}) {
	t.Helper()
	sc := &config.ServerConfig{
		SimulationMode: simulation,
		ServerParam: &config.ServerParam{
			ApiParam: config.ApiParam{Enabled: true, SslPort: 8443, ApiKey: testApiKey},
		},
	}
	if screen == nil {
		screen = &fakeScreen{}
	}
	api := NewApi(sc, screen)

	// stands in for the event loop
	received := make(chan interface{}, 10)
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	go func() {
		for {
			select {
			case ev := <-api.EventChannel():
				received <- ev.Data
				res := event.ApiResult{}
				if _, ok := ev.Data.(event.ApiEventStatusData); ok {
					res.Status = &apimodel.Status{TargetFanPercent: 50, Menu: apimodel.Menu{Mode: "browsing"}}
				}
				ev.Result <- res
			case <-done:
				return
			}
		}
	}()
	return api, received
}

func do(t *testing.T, api *Api, method, path string, withKey bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if withKey {
		req.Header.Set("x-api-key", testApiKey)
	}
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func TestApiRequiresKey(t *testing.T) {
	api, _ := newTestApi(t, false, nil)
	rec := do(t, api, "GET", "/api/is_alive", false)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}

	var msg apimodel.ErrorMessage
	if err := json.NewDecoder(rec.Body).Decode(&msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.ErrStatusCode != http.StatusForbidden || msg.ErrMessage != "Forbidden" {
		t.Errorf("unexpected error body %+v", msg)
	}
}

func TestApiIsAlive(t *testing.T) {
	api, _ := newTestApi(t, false, nil)
	if rec := do(t, api, "GET", "/api/is_alive", true); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestApiStatus(t *testing.T) {
	api, received := newTestApi(t, false, nil)
	rec := do(t, api, "GET", "/api/status", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status apimodel.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.TargetFanPercent != 50 || status.Menu.Mode != "browsing" {
		t.Errorf("unexpected status %+v", status)
	}
	if _, ok := (<-received).(event.ApiEventStatusData); !ok {
		t.Error("expected a status event")
	}
}

func TestApiKnobOnlyInSimulation(t *testing.T) {
	api, _ := newTestApi(t, false, nil)
	if rec := do(t, api, "POST", "/api/knob/press", true); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 outside simulation, got %d", rec.Code)
	}
	if rec := do(t, api, "POST", "/api/knob/rotate/2", true); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 outside simulation, got %d", rec.Code)
	}
}

func TestApiKnobEvents(t *testing.T) {
	api, received := newTestApi(t, true, nil)

	if rec := do(t, api, "POST", "/api/knob/rotate/-3", true); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ev, ok := (<-received).(event.ApiEventKnobRotateData); !ok || ev.Detents != -3 {
		t.Errorf("expected rotate -3, got %+v", ev)
	}

	if rec := do(t, api, "POST", "/api/knob/press", true); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, ok := (<-received).(event.ApiEventKnobPressData); !ok {
		t.Error("expected a press event")
	}

	if rec := do(t, api, "POST", "/api/knob/rotate/left", true); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad delta, got %d", rec.Code)
	}
	if rec := do(t, api, "GET", "/api/knob/press", true); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestApiDisplay(t *testing.T) {
	screen := &fakeScreen{}
	api, _ := newTestApi(t, true, screen)
	if rec := do(t, api, "GET", "/api/display", true); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before the first frame, got %d", rec.Code)
	}

	screen.img = image.NewRGBA(image.Rect(0, 0, 128, 64))
	rec := do(t, api, "GET", "/api/display", true)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("expected a png frame, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestApiNotFound(t *testing.T) {
	api, _ := newTestApi(t, false, nil)
	if rec := do(t, api, "GET", "/api/unknown", true); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestMetricsAreServedWithoutKey(t *testing.T) {
	api, _ := newTestApi(t, false, nil)
	if rec := do(t, api, "GET", "/metrics", false); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestApiRejectsEverythingWithoutConfiguredKey(t *testing.T) {
	sc := &config.ServerConfig{
		ServerParam: &config.ServerParam{ApiParam: config.ApiParam{Enabled: true, SslPort: 8443}},
	}
	api := NewApi(sc, &fakeScreen{})

	for _, withKey := range []bool{false, true} {
		if rec := do(t, api, "GET", "/api/is_alive", withKey); rec.Code != http.StatusForbidden {
			t.Errorf("withKey=%v: expected 403, got %d", withKey, rec.Code)
		}
	}
}

func TestApiKnobWithoutLoop(t *testing.T) {
	sc := &config.ServerConfig{
		SimulationMode: true,
		ServerParam:    &config.ServerParam{ApiParam: config.ApiParam{Enabled: true, SslPort: 8443, ApiKey: testApiKey}},
	}
	api := NewApi(sc, &fakeScreen{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, path := range []string{"/api/knob/press", "/api/knob/rotate/1"} {
		req := httptest.NewRequest("POST", path, nil).WithContext(ctx)
		req.Header.Set("x-api-key", testApiKey)
		rec := httptest.NewRecorder()
		api.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, rec.Code)
		}
	}
}
