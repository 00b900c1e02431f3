package app

import (
	"context"
	"errors"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracker"
	"github.com/ayusman/mudra/internal/wire"
)

// frameState is owned by the frame goroutine.
type frameState struct {
	last    time.Time
	fingers bool
	yaw     float64
	pitch   float64
}

// Run loads the configured hand model, starts camera tracking when enabled
// and drives the frame loop until ctx is done.
func (a *App) Run(ctx context.Context) error {
	model := a.file.Model
	if model == "" {
		model = store.DefaultModelID
	}
	a.LoadModel(ctx, model)

	if a.live.Get().HandTracking {
		if err := a.StartCamera(); err != nil {
			a.log.Warn("app: camera tracking not started", "error", err)
			a.live.Update(func(r *config.Retarget) { r.HandTracking = false })
		}
	}

	fs := &frameState{last: a.now(), fingers: a.live.Get().FingerTracking}
	tick := time.NewTicker(a.file.FrameInterval())
	defer tick.Stop()

	a.log.Info("app: frame loop running", "interval", a.file.FrameInterval(), "controller_code", a.code)
	for {
		select {
		case <-ctx.Done():
			a.log.Info("app: frame loop stopped")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-tick.C:
			a.step(fs)
		}
	}
}

// step runs one frame: drain inbound state, fuse, replicate and publish.
func (a *App) step(fs *frameState) {
	now := a.now()
	dt := max(0, min(now.Sub(fs.last), MaxFrameStep))
	fs.last = now

	if a.camStopped.Swap(false) {
		a.loop.StopCamera()
	}
	a.drainCommands(fs)
	a.drainModels()

	cfg := a.live.Get()
	if fs.fingers && !cfg.FingerTracking {
		a.loop.StopFingers()
	}
	fs.fingers = cfg.FingerTracking

	a.drainCamera(now)
	a.drainPhone(now, cfg.FingerTracking)
	a.drainPeers(now)

	a.loop.Update(now, dt)
	a.replica.Update(now, dt)

	snap := a.loop.Snapshot(fs.yaw, fs.pitch)
	snap.ControllerCode = a.code
	a.publish(snap)
}

func (a *App) drainCommands(fs *frameState) {
	for {
		select {
		case fn := <-a.commands:
			fn(a.loop)
		case v := <-a.views:
			a.loop.Player().SetView(v.pos, v.yaw, v.pitch)
			fs.yaw, fs.pitch = v.yaw, v.pitch
		default:
			return
		}
	}
}

func (a *App) drainModels() {
	for {
		select {
		case res := <-a.models:
			if res.err != nil {
				a.log.Warn("app: hand model load failed", "model", res.id, "error", res.err)
				continue
			}
			a.loop.InstallModel(res.loaded)
		default:
			return
		}
	}
}

func (a *App) drainCamera(now time.Time) {
	f, ok := a.camFrames.Take()
	if !ok {
		return
	}
	for _, side := range hand.Sides {
		if obs := f.obs[side]; obs != nil {
			a.loop.Observe(side, hand.SourceCamera, *obs, now)
		}
	}
}

func (a *App) drainPhone(now time.Time, fingers bool) {
	for _, side := range hand.Sides {
		req, ok := a.phone[side].Take()
		if !ok {
			continue
		}
		obs := tracker.Observation{Rotation: mgl64.QuatIdent(), Animation: req.Anim}
		if req.Pos != nil {
			obs.Position, obs.HasPosition = req.Pos.Vec3(), true
		}
		if req.Rot != nil {
			obs.Rotation, obs.HasRotation = req.Rot.Quat(), true
		}
		if fingers {
			obs.Landmarks = req.Landmarks
		}
		a.loop.Observe(side, hand.SourcePhone, obs, now)
	}
}

func (a *App) drainPeers(now time.Time) {
	a.peerMu.Lock()
	snaps, gone := a.peerSnaps, a.peerGone
	set, syncSet := a.peerSet, a.peerSetNew
	a.peerSnaps = make(map[string]wire.Snapshot)
	a.peerGone = make(map[string]bool)
	a.peerSet, a.peerSetNew = nil, false
	a.peerMu.Unlock()

	for id := range gone {
		a.replica.Remove(id)
	}
	if syncSet {
		a.replica.Sync(set)
	}
	for id, s := range snaps {
		a.replica.Apply(id, s, now)
	}
}

type view struct {
	pos        mgl64.Vec3
	yaw, pitch float64
}

// SetView places the local viewer. Only the latest view before a frame is
// used.
func (a *App) SetView(pos mgl64.Vec3, yaw, pitch float64) {
	select {
	case a.views <- view{pos: pos, yaw: yaw, pitch: pitch}:
	default:
	}
}
