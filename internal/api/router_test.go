package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthzHandlerHealthy(t *testing.T) {
	sp := NewStatusPublisher()
	sp.Publish(Status{CurrentFrame: 10, ConnectedPlayers: 2})
	r := NewRouter(RouterConfig{Status: sp})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !resp.OK || resp.CurrentFrame != 10 || resp.ConnectedPlayers != 2 {
		t.Fatalf("unexpected healthResponse: %+v", resp)
	}
}

func TestHealthzHandlerReportsStalled(t *testing.T) {
	sp := NewStatusPublisher()
	sp.Publish(Status{Stalled: true})
	r := NewRouter(RouterConfig{Status: sp})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when stalled", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.OK || !resp.Stalled {
		t.Fatalf("unexpected healthResponse: %+v", resp)
	}
}

func TestHealthzHandlerReportsDesync(t *testing.T) {
	sp := NewStatusPublisher()
	sp.Publish(Status{DesyncDetected: true, DesyncFrame: 77})
	r := NewRouter(RouterConfig{Status: sp})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when desynced", rec.Code)
	}
}

func TestDebugSnapshotHandlerEncodesSnapshot(t *testing.T) {
	sp := NewStatusPublisher()
	raw := []byte{1, 2, 3, 4}
	sp.Publish(Status{CurrentFrame: 5, SnapshotHash: 0x0123456789ABCDEF, Snapshot: raw})
	r := NewRouter(RouterConfig{Status: sp})

	req := httptest.NewRequest(http.MethodGet, "/debugz/snapshot", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp debugSnapshotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.SnapshotHash != "0123456789abcdef" {
		t.Fatalf("SnapshotHash = %q", resp.SnapshotHash)
	}
	decoded, err := base64.StdEncoding.DecodeString(resp.SnapshotGobB64)
	if err != nil || string(decoded) != string(raw) {
		t.Fatalf("SnapshotGobB64 round-trip failed: %v decoded=%v", err, decoded)
	}
}

func TestFormatHex64PadsLeadingZeros(t *testing.T) {
	if got := formatHex64(0xFF); got != "00000000000000ff" {
		t.Fatalf("formatHex64(0xFF) = %q", got)
	}
}
