package qreality

import (
	"sort"
	"time"
)

const testSeed = 42

// fakeHost is an in-memory host with every optional capability.
type fakeHost struct {
	transforms map[EntityID]Transform
	alphas     map[EntityID]float64
	dead       map[EntityID]bool
	physical   float64
	writes     int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		transforms: make(map[EntityID]Transform),
		alphas:     make(map[EntityID]float64),
		dead:       make(map[EntityID]bool),
	}
}

func (h *fakeHost) spawn(id EntityID, position Vec3) {
	h.transforms[id] = Transform{Position: position, Scale: Vec3{X: 1, Y: 1, Z: 1}}
	h.alphas[id] = 1
}

func (h *fakeHost) kill(id EntityID) {
	h.dead[id] = true
	delete(h.transforms, id)
	delete(h.alphas, id)
}

func (h *fakeHost) QueryRadius(center Vec3, radius float64) []EntityID {
	var out []EntityID
	for id, t := range h.transforms {
		if t.Position.Distance(center) <= radius {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (h *fakeHost) Transform(id EntityID) (Transform, bool) {
	t, ok := h.transforms[id]
	return t, ok
}

func (h *fakeHost) SetTransform(id EntityID, t Transform) {
	if _, ok := h.transforms[id]; ok {
		h.transforms[id] = t
	}
}

func (h *fakeHost) Alpha(id EntityID) (float64, bool) {
	a, ok := h.alphas[id]
	return a, ok
}

func (h *fakeHost) SetAlpha(id EntityID, alpha float64) {
	h.alphas[id] = alpha
}

func (h *fakeHost) Valid(id EntityID) bool {
	return !h.dead[id]
}

func (h *fakeHost) SetPhysicalParameter(value float64) {
	h.physical = value
	h.writes++
}

// bareHost hides every optional capability of the wrapped host.
type bareHost struct {
	Host
}

// recordingPresenter counts notifications per kind and per state.
type recordingPresenter struct {
	NopPresenter

	created     []State
	collapsed   map[string]int
	distortions int
	removed     int
	tunnels     int
	emergencies []float64
}

func newRecordingPresenter() *recordingPresenter {
	return &recordingPresenter{collapsed: make(map[string]int)}
}

func (p *recordingPresenter) OnStateCreated(s State)         { p.created = append(p.created, s) }
func (p *recordingPresenter) OnStateCollapsed(s State)       { p.collapsed[s.ID]++ }
func (p *recordingPresenter) OnDistortionCreated(Distortion) { p.distortions++ }
func (p *recordingPresenter) OnDistortionRemoved(Distortion) { p.removed++ }
func (p *recordingPresenter) OnTunnelCreated(Tunnel)         { p.tunnels++ }
func (p *recordingPresenter) OnEmergency(stability float64)  { p.emergencies = append(p.emergencies, stability) }

// deterministicConfig disables random collapse so only coherence ends a state.
func deterministicConfig() *Config {
	cfg := NewConfig()
	cfg.ProbabilityThreshold = 0
	return cfg
}

// expire makes the state collapse on the next tick of at least a second.
func expire(e *Engine, id string) {
	if state, ok := e.states.Get(id); ok {
		state.Coherence = 0.1
	}
}

const testTimeout = 2 * time.Second
