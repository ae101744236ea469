package hass

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, states map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/states/", func(w http.ResponseWriter, r *http.Request) {
		entity := r.URL.Path[len("/api/states/"):]
		state, ok := states[entity]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(stateResponse{EntityId: entity, State: state})
	})
	mux.HandleFunc("/api/services/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return httptest.NewServer(mux)
}

func TestReadNumeric(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"sensor.grid_power":  "2340.5",
		"sensor.battery_soc": "unavailable",
	})
	defer srv.Close()

	c := New(srv.URL, "token")
	ctx := context.Background()

	if got := c.ReadNumeric(ctx, "sensor.grid_power"); !got.IsValid() || got.Value() != 2340.5 {
		t.Errorf("expected 2340.5, got %+v", got)
	}
	if got := c.ReadNumeric(ctx, "sensor.battery_soc"); got.IsValid() {
		t.Errorf("expected None for unavailable sensor, got %f", got.Value())
	}
	if got := c.ReadNumeric(ctx, "sensor.missing"); got.IsValid() {
		t.Errorf("expected None for missing sensor, got %f", got.Value())
	}
	if got := c.ReadNumeric(ctx, ""); got.IsValid() {
		t.Errorf("expected None for empty ref")
	}
}

func TestReadState(t *testing.T) {
	srv := newTestServer(t, map[string]string{"switch.pool_pump": "on"})
	defer srv.Close()

	c := New(srv.URL, "token")

	if got := c.ReadState(context.Background(), "switch.pool_pump"); !got.IsValid() || got.Value() != "on" {
		t.Errorf("expected on, got %+v", got)
	}
}

func TestCommands(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	c := New(srv.URL, "token")
	ctx := context.Background()

	if !c.TurnOn(ctx, "switch.pool_pump") {
		t.Errorf("expected TurnOn to succeed")
	}
	if !c.TurnOff(ctx, "switch.pool_pump") {
		t.Errorf("expected TurnOff to succeed")
	}
	if !c.SetNumber(ctx, "number.battery_target_soc", 80) {
		t.Errorf("expected SetNumber to succeed")
	}
	if c.TurnOn(ctx, "noentity") {
		t.Errorf("expected TurnOn to fail for ref without domain")
	}
}

func TestRefDomain(t *testing.T) {
	tests := []struct {
		ref      string
		expected string
	}{
		{"switch.pool_pump", "switch"},
		{"number.target", "number"},
		{"nodot", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := refDomain(tt.ref); got != tt.expected {
			t.Errorf("refDomain(%q) expected %q, got %q", tt.ref, tt.expected, got)
		}
	}
}
