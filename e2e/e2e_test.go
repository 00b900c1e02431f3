package e2e

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/wire"
	"github.com/ayusman/mudra/testdata"
)

func TestE2E_PhoneToPresence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "hand.yaml"), testdata.HandRigYAML(), 0o644); err != nil {
		t.Fatalf("write rig: %v", err)
	}

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()
	if err := s.HandModels().Ensure(&store.HandModel{ID: store.DefaultModelID, Name: "Default", Path: "hand.yaml", BoneAxis: "y"}); err != nil {
		t.Fatalf("ensure default model: %v", err)
	}

	file := config.Defaults()
	file.DataDir = tmpDir
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := app.New(app.Config{
		File:     file,
		Store:    s,
		Camera:   capture.NewMockCamera(nil, false),
		Detector: detector.NewMockDetector(),
		Logger:   log,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	srv := server.New(server.Config{Store: s, App: a, Logger: log})
	defer srv.Close()
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()
	ws := "ws" + strings.TrimPrefix(ts.URL, "http")

	t.Run("DefaultModelInstalled", func(t *testing.T) {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			resp, err := client.Get(ts.URL + "/api/health")
			if err != nil {
				t.Fatalf("health: %v", err)
			}
			var health map[string]any
			json.NewDecoder(resp.Body).Decode(&health)
			resp.Body.Close()
			if health["model"] == store.DefaultModelID {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
		t.Fatal("default model never installed")
	})

	t.Run("UpdateSettings", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", strings.NewReader(`{"lerp": 0.4}`))
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("put settings: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if a.Settings().LerpFactor != 0.4 {
			t.Errorf("lerp = %v, want 0.4", a.Settings().LerpFactor)
		}
	})

	presence, _, err := websocket.DefaultDialer.Dial(ws+"/api/presence", nil)
	if err != nil {
		t.Fatalf("dial presence: %v", err)
	}
	defer presence.Close()

	t.Run("PhoneDrivesHostSnapshot", func(t *testing.T) {
		phone, _, err := websocket.DefaultDialer.Dial(ws+"/api/phone?code="+a.ControllerCode(), nil)
		if err != nil {
			t.Fatalf("dial phone: %v", err)
		}
		defer phone.Close()

		msg := `{"type":"handTracking","hand":"left","pos":{"x":0.1,"y":0.1,"z":0},"anim":"Fist"}`
		presence.SetReadDeadline(time.Now().Add(5 * time.Second))
		for {
			phone.WriteMessage(websocket.TextMessage, []byte(msg))
			mt, data, err := presence.ReadMessage()
			if err != nil {
				t.Fatalf("read presence: %v", err)
			}
			p, err := wire.DecodePresence(data, mt == websocket.BinaryMessage)
			if err != nil {
				t.Fatalf("decode presence: %v", err)
			}
			if p.Type == wire.TypeState && p.Peer == server.HostPeer && p.Snapshot.LAnim == "Fist" {
				if p.Snapshot.ControllerCode != a.ControllerCode() {
					t.Errorf("controller code = %q, want %q", p.Snapshot.ControllerCode, a.ControllerCode())
				}
				return
			}
		}
	})

	t.Run("PeerMirrored", func(t *testing.T) {
		var snap wire.Snapshot
		snap.RAnim = "Point"
		data, _ := wire.EncodePresence(wire.Presence{Type: wire.TypeState, Peer: "me", Snapshot: &snap})
		if err := presence.WriteMessage(websocket.BinaryMessage, data); err != nil {
			t.Fatalf("write presence: %v", err)
		}

		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if slices.ContainsFunc(a.Peers(), func(id string) bool { return id != "me" && id != "" }) {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
		t.Fatal("peer never mirrored")
	})
}
