// Package app wires the hand pipeline together: the camera tracking
// session, the inbound phone and peer mailboxes, model loading, persisted
// settings and the frame loop that owns all pose state.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/avatar"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/fusion"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/replica"
	"github.com/ayusman/mudra/internal/scene"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracker"
	"github.com/ayusman/mudra/internal/wire"
)

var (
	// ErrDetectorUnavailable is returned by StartCamera when no hand
	// detector could be created.
	ErrDetectorUnavailable = errors.New("hand detector unavailable")
	// ErrCameraUnavailable is returned by StartCamera when the device
	// cannot be opened.
	ErrCameraUnavailable = errors.New("camera unavailable")
)

// MaxFrameStep bounds the time step of one frame so a stall does not fling
// the hands.
const MaxFrameStep = 100 * time.Millisecond

// Config holds the collaborators of an App. Nil fields get defaults.
type Config struct {
	File     config.File
	Store    *store.Store
	Camera   capture.Camera
	Detector detector.Detector
	Assets   scene.AssetLoader
	Logger   *slog.Logger
	Now      func() time.Time
}

type modelResult struct {
	id     string
	loaded *avatar.Loaded
	err    error
}

// App is the running hand pipeline.
type App struct {
	log   *slog.Logger
	file  config.File
	store *store.Store
	live  *config.Live
	now   func() time.Time
	code  string

	settingsMu sync.Mutex

	camera   capture.Camera
	detector detector.Detector
	loader   *avatar.Loader

	loop    *fusion.Loop
	replica *replica.Replicator

	camMu      sync.Mutex
	session    *session
	camStopped atomic.Bool

	camFrames mailbox[cameraFrame]
	phone     [len(hand.Sides)]mailbox[wire.PhoneRequest]
	commands  chan func(*fusion.Loop)
	views     chan view
	models    chan modelResult

	peerMu     sync.Mutex
	peerSnaps  map[string]wire.Snapshot
	peerGone   map[string]bool
	peerSet    []string
	peerSetNew bool

	subMu sync.Mutex
	subs  map[chan wire.Snapshot]struct{}
	last  wire.Snapshot

	preview preview
}

// New builds an App. Persisted settings override the file's tunables.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("app: store is required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	tunables := cfg.File.Retarget
	var saved config.Retarget
	switch err := cfg.Store.Settings().GetJSON(store.RetargetSettingsKey, &saved); {
	case err == nil:
		if verr := saved.Validate(); verr != nil {
			log.Warn("app: ignoring persisted settings", "error", verr)
		} else {
			tunables = saved
		}
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("load settings: %w", err)
	}
	live := config.NewLive(tunables)

	cam := cfg.Camera
	if cam == nil {
		cam = capture.NewCamera(capture.Config{Device: cfg.File.Camera.Device, FPS: cfg.File.Camera.FPS})
	}
	det := cfg.Detector
	if det == nil {
		mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
		if err != nil {
			log.Warn("app: hand detector not available", "error", err)
		} else {
			det = mp
		}
	}
	assets := cfg.Assets
	if assets == nil {
		assets = scene.FileLoader{Dir: cfg.File.DataDir}
	}
	loader := &avatar.Loader{Models: cfg.Store.HandModels(), Assets: assets}

	a := &App{
		log:       log,
		file:      cfg.File,
		store:     cfg.Store,
		live:      live,
		now:       now,
		code:      strconv.Itoa(1000 + rand.Intn(9000)),
		camera:    cam,
		detector:  det,
		loader:    loader,
		commands:  make(chan func(*fusion.Loop), 64),
		views:     make(chan view, 8),
		models:    make(chan modelResult, 4),
		peerSnaps: make(map[string]wire.Snapshot),
		peerGone:  make(map[string]bool),
		subs:      make(map[chan wire.Snapshot]struct{}),
	}
	a.loop = fusion.New(live, tracker.New(), avatar.NewPlayer(), fusion.Options{Logger: log})
	a.replica = replica.New(live, loader, replica.Options{Logger: log})
	return a, nil
}

// Live returns the holder of the current tunables.
func (a *App) Live() *config.Live {
	return a.live
}

// ControllerCode returns the pairing code a phone must present.
func (a *App) ControllerCode() string {
	return a.code
}

// Settings returns the current tunables.
func (a *App) Settings() config.Retarget {
	return a.live.Get()
}

// UpdateSettings applies fn to the tunables, persists the result and starts
// or stops camera tracking when HandTracking changed. A camera start error
// is returned after the other settings have been stored. When storing
// fails nothing changes.
func (a *App) UpdateSettings(fn func(*config.Retarget)) (config.Retarget, error) {
	a.settingsMu.Lock()
	defer a.settingsMu.Unlock()

	before := a.live.Get()
	after, err := a.live.Update(fn)
	if err != nil {
		return after, err
	}
	if err := a.saveSettings(after); err != nil {
		_ = a.live.Set(before)
		return before, err
	}

	if before.HandTracking != after.HandTracking {
		if after.HandTracking {
			if err := a.StartCamera(); err != nil {
				off, _ := a.live.Update(func(r *config.Retarget) { r.HandTracking = false })
				if serr := a.saveSettings(off); serr != nil {
					a.log.Warn("app: store hand tracking off", "error", serr)
				}
				return off, err
			}
		} else {
			a.StopCamera()
		}
	}
	return after, nil
}

func (a *App) saveSettings(r config.Retarget) error {
	if err := a.store.Settings().SetJSON(store.RetargetSettingsKey, r); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// LoadModel fetches a hand model in the background. The frame loop
// installs it when ready; on failure the current rig is kept.
func (a *App) LoadModel(ctx context.Context, id string) {
	go func() {
		loaded, err := a.loader.Load(ctx, id)
		select {
		case a.models <- modelResult{id: id, loaded: loaded, err: err}:
		case <-ctx.Done():
		}
	}()
}

// ModelID returns the id of the installed hand model.
func (a *App) ModelID() string {
	return a.Snapshot().HandModel
}

// SubmitPhone hands a phone request to the frame loop. Tracking requests
// are last-value-wins per side; they are ignored while phone input is off.
func (a *App) SubmitPhone(ctx context.Context, req wire.PhoneRequest) error {
	if !a.live.Get().PhoneInput {
		return nil
	}
	switch req.Type {
	case wire.PhoneHandTracking:
		side, err := req.Side()
		if err != nil {
			return err
		}
		a.phone[side].Put(req)
	case wire.PhoneChangeModel:
		a.LoadModel(ctx, req.Model)
	}
	return nil
}

// SubmitPeer records a snapshot from a remote peer. Updates merge until
// the next frame drains them.
func (a *App) SubmitPeer(id string, snap wire.Snapshot) {
	a.peerMu.Lock()
	defer a.peerMu.Unlock()
	delete(a.peerGone, id)
	cur := a.peerSnaps[id]
	cur.Merge(snap)
	a.peerSnaps[id] = cur
}

// RemovePeer forgets a peer on the next frame.
func (a *App) RemovePeer(id string) {
	a.peerMu.Lock()
	defer a.peerMu.Unlock()
	delete(a.peerSnaps, id)
	a.peerGone[id] = true
}

// SyncPeers removes every peer not in ids on the next frame.
func (a *App) SyncPeers(ids []string) {
	a.peerMu.Lock()
	defer a.peerMu.Unlock()
	a.peerSet = append([]string(nil), ids...)
	a.peerSetNew = true
}

// Peers returns the ids of the peers currently mirrored.
func (a *App) Peers() []string {
	ids := make(chan []string, 1)
	if !a.do(func(*fusion.Loop) { ids <- a.replica.Peers() }) {
		return nil
	}
	select {
	case v := <-ids:
		return v
	case <-time.After(time.Second):
		return nil
	}
}

// Subscribe returns a channel receiving the local snapshot after every
// frame. Slow subscribers miss frames. Call cancel to unsubscribe.
func (a *App) Subscribe() (<-chan wire.Snapshot, func()) {
	ch := make(chan wire.Snapshot, 1)
	a.subMu.Lock()
	a.subs[ch] = struct{}{}
	a.subMu.Unlock()
	return ch, func() {
		a.subMu.Lock()
		delete(a.subs, ch)
		a.subMu.Unlock()
	}
}

// Snapshot returns the snapshot published by the last frame.
func (a *App) Snapshot() wire.Snapshot {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	return a.last
}

func (a *App) publish(s wire.Snapshot) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	a.last = s
	for ch := range a.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// do queues fn to run on the frame loop. It reports false when the queue
// is full.
func (a *App) do(fn func(*fusion.Loop)) bool {
	select {
	case a.commands <- fn:
		return true
	default:
		a.log.Warn("app: frame loop command queue full")
		return false
	}
}

// BeginVR moves the hands into the body frame for a VR session.
func (a *App) BeginVR() {
	a.do(func(l *fusion.Loop) {
		if err := l.BeginVR(); err != nil {
			a.log.Warn("app: begin vr", "error", err)
		}
	})
}

// EndVR returns the hands to the head frame.
func (a *App) EndVR() {
	a.do(func(l *fusion.Loop) {
		if err := l.EndVR(); err != nil {
			a.log.Warn("app: end vr", "error", err)
		}
	})
}

// SubmitController records a VR controller pose, timestamped on the frame
// loop.
func (a *App) SubmitController(side hand.Side, obs tracker.Observation) {
	a.do(func(l *fusion.Loop) {
		l.SetController(side, obs.Position, obs.Rotation, obs.Landmarks, a.now())
	})
}

// ToggleManual flips manual control of side.
func (a *App) ToggleManual(side hand.Side) {
	a.do(func(l *fusion.Loop) { l.ToggleManual(side) })
}

// DragManual moves the manually controlled hand by a pointer delta.
func (a *App) DragManual(dx, dy float64) {
	a.do(func(l *fusion.Loop) { l.DragManual(dx, dy) })
}

// SelectClip picks the 1-based clip for the manually controlled hand.
func (a *App) SelectClip(index int) {
	a.do(func(l *fusion.Loop) { l.SelectManualClip(index) })
}

// Close stops the camera, model loads and the detector.
func (a *App) Close() error {
	a.StopCamera()
	a.replica.Close()
	if a.detector != nil {
		return a.detector.Close()
	}
	return nil
}
