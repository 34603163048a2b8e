package qreality

/*
resolveCollapses is the second phase of collapse: it runs once the states have
already left the store, so the entanglement search only sees live states.
Every collapse costs stability exactly once.
*/
func (e *Engine) resolveCollapses(collapsed []*State) {
	for _, state := range collapsed {
		e.dispatchCollapse(state)
		e.stability.Penalize()
		e.collapses++

		e.logger.Debug(
			"state collapsed",
			"id", state.ID,
			"variant", state.Variant,
			"coherence", state.Coherence,
			"stability", e.stability.Value(),
		)
		e.presenter.OnStateCollapsed(state.Snapshot())
	}
}

// dispatchCollapse applies the variant-specific side effect of a collapse.
func (e *Engine) dispatchCollapse(state *State) {
	switch state.Variant {
	case VariantSuperposition:
		if e.distortions == nil {
			return
		}
		d := newDistortion(e.rng, state.Position)
		if e.distortions.Add(d) {
			e.presenter.OnDistortionCreated(*d)
		}

	case VariantEntanglement:
		partners := e.states.Near(state.Position, e.cfg.EntanglementRadius, maxEntangledPartners)
		if len(partners) < maxEntangledPartners {
			return
		}
		Entangle(partners[0], partners[1], e.rng.Range(entanglementStrength))

	case VariantTunneling:
		if e.tunnels == nil {
			return
		}
		t := newTunnel(e.rng, state.Position, e.cfg.TunnelMaxOffset)
		if e.tunnels.Add(t) {
			e.presenter.OnTunnelCreated(*t)
		}

	case VariantInterference:
		e.presenter.OnInterference(state.Snapshot())
	}
}
