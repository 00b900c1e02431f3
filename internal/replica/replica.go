// Package replica mirrors the hands of remote peers from their published
// snapshots. Positions and rotations are taken verbatim; only finger
// retargeting and clip cross-fades run locally.
package replica

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/ayusman/mudra/internal/avatar"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/retarget"
	"github.com/ayusman/mudra/internal/rig"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tracker"
	"github.com/ayusman/mudra/internal/wire"
)

// ModelLoader resolves a hand model id to an installable model.
type ModelLoader interface {
	Load(ctx context.Context, id string) (*avatar.Loaded, error)
}

// Options configure a Replicator.
type Options struct {
	Logger     *slog.Logger
	Classifier rig.Classifier
}

type peer struct {
	id      string
	player  *avatar.Player
	snap    wire.Snapshot
	updated time.Time
	want    string // model the peer advertises
}

type loadResult struct {
	peer   string
	model  string
	loaded *avatar.Loaded
	err    error
}

// Replicator owns one Player per remote peer. Like the fusion loop it is
// driven from the frame goroutine only; model loads run in the background
// and are installed by Update.
type Replicator struct {
	log      *slog.Logger
	live     *config.Live
	models   ModelLoader
	classify rig.Classifier

	peers   map[string]*peer
	results chan loadResult

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a replicator that loads peer models through models.
func New(live *config.Live, models ModelLoader, opts Options) *Replicator {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Replicator{
		log:      log,
		live:     live,
		models:   models,
		classify: opts.Classifier,
		peers:    make(map[string]*peer),
		results:  make(chan loadResult, 16),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Close abandons in-flight model loads.
func (r *Replicator) Close() {
	r.cancel()
}

// Apply merges a snapshot from id into that peer's state, creating the
// peer on first sight.
func (r *Replicator) Apply(id string, snap wire.Snapshot, now time.Time) {
	p, ok := r.peers[id]
	if !ok {
		p = &peer{id: id, player: avatar.NewPlayer()}
		r.peers[id] = p
		r.log.Info("replica: peer joined", "peer", id)
	}
	p.snap.Merge(snap)
	p.updated = now

	s := &p.snap
	pos := p.player.Body.Position
	if s.Pos != nil {
		pos = s.Pos.Vec3()
	}
	var yaw, pitch float64
	if s.Yaw != nil {
		yaw = *s.Yaw
	}
	if s.Pitch != nil {
		pitch = *s.Pitch
	}
	p.player.SetView(pos, yaw, pitch)

	for _, side := range hand.Sides {
		g := p.player.Groups[side]
		if v, ok := s.Position(side); ok {
			g.Position = v
		}
		if q, ok := s.Rotation(side); ok {
			g.Rotation = q
		}
	}

	model := s.HandModel
	if model == "" {
		model = store.DefaultModelID
	}
	if model != p.want {
		p.want = model
		r.load(id, model)
	}
}

func (r *Replicator) load(id, model string) {
	go func() {
		loaded, err := r.models.Load(r.ctx, model)
		select {
		case r.results <- loadResult{peer: id, model: model, loaded: loaded, err: err}:
		case <-r.ctx.Done():
		}
	}()
}

// Sync removes every peer not in ids.
func (r *Replicator) Sync(ids []string) {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	for id := range r.peers {
		if !keep[id] {
			r.Remove(id)
		}
	}
}

// Remove drops a peer and its rig.
func (r *Replicator) Remove(id string) {
	if _, ok := r.peers[id]; !ok {
		return
	}
	delete(r.peers, id)
	r.log.Info("replica: peer left", "peer", id)
}

// Peers returns the ids of known peers in lexical order.
func (r *Replicator) Peers() []string {
	ids := make([]string, 0, len(r.peers))
	for id := range r.peers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Player returns the mirrored player of id.
func (r *Replicator) Player(id string) (*avatar.Player, bool) {
	p, ok := r.peers[id]
	if !ok {
		return nil, false
	}
	return p.player, true
}

// Update installs finished model loads and animates every peer with a rig.
func (r *Replicator) Update(now time.Time, dt time.Duration) {
	r.drain()

	opts := retarget.Options{DisableThumbBase: r.live.Get().DisableThumbBase}
	for _, p := range r.peers {
		if p.player.Rig == nil {
			continue
		}
		fresh := now.Sub(p.updated) < tracker.StaleAfter
		reference := p.player.Head.World()

		for _, side := range hand.Sides {
			h := p.player.Rig.Hand(side)
			if h == nil {
				continue
			}
			h.Mixer.Update(dt)
			h.Mixer.Apply()

			if lm := p.snap.Landmarks(side); fresh && len(lm) > 0 {
				retarget.Apply(h.Bones, lm, reference, opts)
			}
			h.Mixer.Play(p.snap.Animation(side))
		}
	}
}

// WaitLoads blocks until n model loads have finished and installs them.
// It is meant for callers that need a deterministic handoff, such as tests.
func (r *Replicator) WaitLoads(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		select {
		case res := <-r.results:
			r.install(res)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *Replicator) drain() {
	for {
		select {
		case res := <-r.results:
			r.install(res)
		default:
			return
		}
	}
}

func (r *Replicator) install(res loadResult) {
	p, ok := r.peers[res.peer]
	if !ok || p.want != res.model {
		return
	}
	if res.err != nil {
		r.log.Warn("replica: hand model load failed", "peer", res.peer, "model", res.model, "error", res.err)
		return
	}
	p.player.Install(res.loaded, r.classify)
	r.log.Info("replica: hand model installed", "peer", res.peer, "model", res.model)
}
