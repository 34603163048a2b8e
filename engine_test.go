package qreality

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func newTestEngine(cfg *Config, host Host, opts ...Option) *Engine {
	engine, err := New(cfg, host, append([]Option{WithSeed(testSeed)}, opts...)...)
	So(err, ShouldBeNil)
	return engine
}

func TestNew(t *testing.T) {
	Convey("Given a host", t, func() {
		host := newFakeHost()

		Convey("When the config is invalid", func() {
			cfg := NewConfig()
			cfg.MaxStates = 0
			engine, err := New(cfg, host)

			Convey("Then construction should fail", func() {
				So(engine, ShouldBeNil)
				So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When no host is given", func() {
			engine, err := New(NewConfig(), nil)

			Convey("Then construction should fail", func() {
				So(engine, ShouldBeNil)
				So(err, ShouldEqual, ErrNoHost)
			})
		})

		Convey("When the config is valid", func() {
			cfg := NewConfig()
			engine := newTestEngine(cfg, host)
			cfg.MaxStates = 1

			Convey("Then the physical parameter should be written at its default", func() {
				So(host.physical, ShouldAlmostEqual, -9.81, 1e-12)
				So(engine.StabilityState(), ShouldEqual, StabilityStable)
			})

			Convey("Then later changes to the config should not reach the engine", func() {
				_, first := engine.CreateState(Vec3{}, VariantSuperposition)
				_, second := engine.CreateState(Vec3{}, VariantSuperposition)
				So(first, ShouldBeTrue)
				So(second, ShouldBeTrue)
			})
		})
	})
}

func TestEngineCapacity(t *testing.T) {
	Convey("Given an engine with room for one state", t, func() {
		cfg := deterministicConfig()
		cfg.MaxStates = 1
		presenter := newRecordingPresenter()
		engine := newTestEngine(cfg, newFakeHost(), WithPresenter(presenter))

		Convey("When creating two states", func() {
			id, first := engine.CreateState(Vec3{}, VariantSuperposition)
			_, second := engine.CreateState(Vec3{X: 1}, VariantTunneling)

			Convey("Then only the first should exist", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeFalse)
				So(engine.Stats().StateCount, ShouldEqual, 1)
				So(engine.States()[0].ID, ShouldEqual, id)
				So(len(presenter.created), ShouldEqual, 1)
			})
		})
	})
}

func TestEngineCollapseEffects(t *testing.T) {
	Convey("Given an engine where only coherence ends a state", t, func() {
		cfg := deterministicConfig()
		host := newFakeHost()
		presenter := newRecordingPresenter()
		engine := newTestEngine(cfg, host, WithPresenter(presenter))

		Convey("When a superposition runs out of coherence", func() {
			id, _ := engine.CreateState(Vec3{X: 3}, VariantSuperposition)
			expire(engine, id)
			engine.Tick(1.0)

			Convey("Then it should leave exactly one distortion behind", func() {
				stats := engine.Stats()
				So(stats.StateCount, ShouldEqual, 0)
				So(stats.DistortionCount, ShouldEqual, 1)
				So(stats.Collapses, ShouldEqual, int64(1))
				So(presenter.distortions, ShouldEqual, 1)
				So(engine.Distortions()[0].Center, ShouldResemble, Vec3{X: 3})
			})

			Convey("Then stability should have paid for it and started recovering", func() {
				value := engine.Stats().Stability
				So(value, ShouldBeLessThan, 0.9)
				So(value, ShouldBeGreaterThan, 0.85)
				So(host.physical, ShouldAlmostEqual, -9.81*value/0.9, 1e-12)
			})
		})

		Convey("When a tunneling state runs out of coherence", func() {
			id, _ := engine.CreateState(Vec3{}, VariantTunneling)
			expire(engine, id)
			engine.Tick(1.0)

			Convey("Then it should open exactly one tunnel within reach", func() {
				tunnels := engine.Tunnels()
				So(len(tunnels), ShouldEqual, 1)
				So(presenter.tunnels, ShouldEqual, 1)
				So(tunnels[0].Entry, ShouldResemble, Vec3{})
				So(tunnels[0].Length(), ShouldBeLessThanOrEqualTo, cfg.TunnelMaxOffset+1e-9)
			})
		})

		Convey("When an entanglement collapses next to two live states", func() {
			id, _ := engine.CreateState(Vec3{}, VariantEntanglement)
			engine.CreateState(Vec3{X: 1}, VariantSuperposition)
			engine.CreateState(Vec3{X: 2}, VariantInterference)
			expire(engine, id)
			engine.Tick(1.0)

			Convey("Then the two partners should share one signal", func() {
				states := engine.States()
				So(len(states), ShouldEqual, 2)
				So(states[0].Wave, ShouldResemble, states[1].Wave)
				So(states[0].Wave.Magnitude(), ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		Convey("When an entanglement collapses with a single neighbour", func() {
			id, _ := engine.CreateState(Vec3{}, VariantEntanglement)
			engine.CreateState(Vec3{X: 1}, VariantSuperposition)
			expire(engine, id)

			Convey("Then nothing else should happen", func() {
				So(func() { engine.Tick(1.0) }, ShouldNotPanic)
				So(engine.Stats().StateCount, ShouldEqual, 1)
				So(engine.Stats().Collapses, ShouldEqual, int64(1))
			})
		})

		Convey("When many ticks pass", func() {
			id, _ := engine.CreateState(Vec3{}, VariantInterference)
			for i := 0; i < 40; i++ {
				engine.Tick(0.5)
			}

			Convey("Then every state should have collapsed exactly once", func() {
				So(engine.Stats().StateCount, ShouldEqual, 0)
				So(presenter.collapsed[id], ShouldEqual, 1)
			})
		})
	})
}

func TestEngineEmergency(t *testing.T) {
	Convey("Given an engine full of expiring superpositions", t, func() {
		cfg := deterministicConfig()
		host := newFakeHost()
		presenter := newRecordingPresenter()
		engine := newTestEngine(cfg, host, WithPresenter(presenter))

		spawn := func(n int) {
			for i := 0; i < n; i++ {
				id, ok := engine.CreateState(Vec3{X: float64(i)}, VariantSuperposition)
				So(ok, ShouldBeTrue)
				expire(engine, id)
			}
		}

		Convey("When thirteen collapse in the same tick", func() {
			spawn(13)
			engine.Tick(1.0)

			Convey("Then the engine should stabilize itself", func() {
				stats := engine.Stats()
				So(stats.StateCount, ShouldEqual, 0)
				So(stats.DistortionCount, ShouldEqual, 0)
				So(stats.TunnelCount, ShouldEqual, 0)
				So(stats.Stability, ShouldEqual, 0.9)
				So(stats.EmergencyResets, ShouldEqual, 1)
				So(engine.StabilityState(), ShouldEqual, StabilityStable)
				So(host.physical, ShouldAlmostEqual, -9.81, 1e-12)
			})

			Convey("Then the presenter should hear about the teardown", func() {
				So(presenter.distortions, ShouldEqual, 13)
				So(presenter.removed, ShouldEqual, 13)
				So(len(presenter.emergencies), ShouldEqual, 1)
				So(presenter.emergencies[0], ShouldBeLessThan, cfg.CriticalThreshold)
			})
		})

		Convey("When twelve collapse in the same tick", func() {
			spawn(12)
			engine.Tick(1.0)

			Convey("Then stability should recover from the threshold without a reset", func() {
				stats := engine.Stats()
				So(stats.EmergencyResets, ShouldEqual, 0)
				So(stats.DistortionCount, ShouldEqual, 12)
				So(stats.Stability, ShouldBeGreaterThan, 0.3)
				So(stats.Stability, ShouldBeLessThan, 0.4)
				So(len(presenter.emergencies), ShouldEqual, 0)
			})
		})
	})
}

func TestEngineForceCollapseAll(t *testing.T) {
	Convey("Given an engine with a mix of live states", t, func() {
		presenter := newRecordingPresenter()
		engine := newTestEngine(deterministicConfig(), newFakeHost(), WithPresenter(presenter))

		variants := []Variant{
			VariantSuperposition,
			VariantSuperposition,
			VariantTunneling,
			VariantEntanglement,
			VariantInterference,
		}
		for i, variant := range variants {
			engine.CreateState(Vec3{X: float64(i)}, variant)
		}

		Convey("When every state is forced to collapse", func() {
			collapsed := engine.ForceCollapseAll()

			Convey("Then each side effect should fire once", func() {
				stats := engine.Stats()
				So(collapsed, ShouldEqual, 5)
				So(stats.StateCount, ShouldEqual, 0)
				So(stats.DistortionCount, ShouldEqual, 2)
				So(stats.TunnelCount, ShouldEqual, 1)
				So(stats.Stability, ShouldAlmostEqual, 0.65, 1e-9)
				So(len(presenter.collapsed), ShouldEqual, 5)
			})

			Convey("Then a second call should find nothing to collapse", func() {
				So(engine.ForceCollapseAll(), ShouldEqual, 0)
				for _, count := range presenter.collapsed {
					So(count, ShouldEqual, 1)
				}
			})
		})
	})
}

func TestEngineDisabledSubsystems(t *testing.T) {
	Convey("Given an engine with distortions and tunneling off", t, func() {
		cfg := deterministicConfig()
		cfg.EnableDistortions = false
		cfg.EnableTunneling = false
		presenter := newRecordingPresenter()
		engine := newTestEngine(cfg, newFakeHost(), WithPresenter(presenter))

		Convey("When states of those variants collapse", func() {
			a, _ := engine.CreateState(Vec3{}, VariantSuperposition)
			b, _ := engine.CreateState(Vec3{}, VariantTunneling)
			expire(engine, a)
			expire(engine, b)
			engine.Tick(1.0)

			Convey("Then they should collapse without side effects", func() {
				stats := engine.Stats()
				So(stats.Collapses, ShouldEqual, int64(2))
				So(stats.DistortionCount, ShouldEqual, 0)
				So(stats.TunnelCount, ShouldEqual, 0)
				So(engine.Distortions(), ShouldBeEmpty)
				So(engine.Tunnels(), ShouldBeEmpty)
				So(presenter.distortions, ShouldEqual, 0)
				So(presenter.tunnels, ShouldEqual, 0)
			})
		})
	})
}

func TestEngineTimeManipulation(t *testing.T) {
	Convey("Given an engine with time manipulation on", t, func() {
		cfg := deterministicConfig()
		cfg.EnableTimeManipulation = true
		engine := newTestEngine(cfg, newFakeHost())

		trigger, _ := engine.CreateState(Vec3{}, VariantSuperposition)
		watched, _ := engine.CreateState(Vec3{}, VariantInterference)
		expire(engine, trigger)
		engine.Tick(1.0)
		So(engine.Stats().DistortionCount, ShouldEqual, 1)

		Convey("When a state sits inside the fresh distortion", func() {
			before := engine.states.Live()[0].Coherence
			engine.Tick(1.0)
			state, ok := engine.states.Get(watched)
			So(ok, ShouldBeTrue)

			Convey("Then its clock should run slower but not stop", func() {
				spent := before - state.Coherence
				So(spent, ShouldBeLessThan, 1.0)
				So(spent, ShouldBeGreaterThanOrEqualTo, cfg.MinTimeScale)
			})
		})
	})
}

func TestEngineInfluence(t *testing.T) {
	Convey("Given a host entity next to a state", t, func() {
		host := newFakeHost()
		host.spawn(7, Vec3{X: 2})
		engine := newTestEngine(deterministicConfig(), host)
		engine.CreateState(Vec3{}, VariantSuperposition)

		Convey("When a few ticks pass", func() {
			for i := 0; i < 3; i++ {
				engine.Tick(0.1)
			}

			Convey("Then the entity should be tracked with its original transform", func() {
				rec, ok := engine.Influence(7)
				So(ok, ShouldBeTrue)
				So(rec.Original.Position, ShouldResemble, Vec3{X: 2})
				So(rec.Influence, ShouldBeGreaterThan, 0.0)
				So(engine.Stats().AffectedEntities, ShouldEqual, 1)
			})

			Convey("Then the field should follow the state", func() {
				center, strength := engine.Field()
				So(center, ShouldResemble, Vec3{})
				So(strength, ShouldBeGreaterThan, 0.0)
			})
		})

		Convey("When the host destroys the entity", func() {
			engine.Tick(0.1)
			host.kill(7)
			engine.Tick(0.1)

			Convey("Then the engine should forget it", func() {
				_, ok := engine.Influence(7)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestEngineLifecycle(t *testing.T) {
	Convey("Given a host with a physical parameter", t, func() {
		host := newFakeHost()

		Convey("When the work fails after stability dropped", func() {
			boom := errors.New("boom")
			err := Run(deterministicConfig(), host, func(e *Engine) error {
				e.CreateState(Vec3{}, VariantSuperposition)
				e.ForceCollapseAll()
				e.Tick(0.1)
				So(host.physical, ShouldBeGreaterThan, -9.81)
				return boom
			}, WithSeed(testSeed))

			Convey("Then the error should come back and the default be restored", func() {
				So(err, ShouldEqual, boom)
				So(host.physical, ShouldEqual, -9.81)
			})
		})

		Convey("When the work panics", func() {
			run := func() {
				_ = Run(deterministicConfig(), host, func(e *Engine) error {
					e.CreateState(Vec3{}, VariantSuperposition)
					e.ForceCollapseAll()
					panic("host crashed")
				}, WithSeed(testSeed))
			}

			Convey("Then the default should still be restored", func() {
				So(run, ShouldPanic)
				So(host.physical, ShouldEqual, -9.81)
			})
		})

		Convey("When an engine is closed", func() {
			engine := newTestEngine(deterministicConfig(), host)
			engine.Close()
			writes := host.writes
			engine.Close()

			Convey("Then it should ignore further work", func() {
				_, ok := engine.CreateState(Vec3{}, VariantSuperposition)
				So(ok, ShouldBeFalse)
				engine.Tick(1.0)
				So(engine.Stats().Ticks, ShouldEqual, int64(0))
				So(engine.ForceCollapseAll(), ShouldEqual, 0)
				So(host.writes, ShouldEqual, writes)
			})
		})

		Convey("When the host has no physical parameter", func() {
			engine, err := New(deterministicConfig(), bareHost{host}, WithSeed(testSeed))

			Convey("Then the engine should run without writing one", func() {
				So(err, ShouldBeNil)
				engine.Tick(0.1)
				So(host.writes, ShouldEqual, 0)
			})
		})
	})
}

func TestEngineTick(t *testing.T) {
	Convey("Given an engine with a few states", t, func() {
		engine := newTestEngine(deterministicConfig(), newFakeHost())
		for i := 0; i < 4; i++ {
			engine.CreateState(Vec3{Y: float64(i)}, VariantInterference)
		}

		Convey("When dt is not positive", func() {
			engine.Tick(0)
			engine.Tick(-1)

			Convey("Then nothing should advance", func() {
				So(engine.Now(), ShouldEqual, 0.0)
				So(engine.Stats().Ticks, ShouldEqual, int64(0))
			})
		})

		Convey("When a tick runs", func() {
			engine.Tick(0.25)

			Convey("Then the stats should describe the live states", func() {
				stats := engine.Stats()
				So(engine.Now(), ShouldEqual, 0.25)
				So(stats.Ticks, ShouldEqual, int64(1))
				So(stats.StateCount, ShouldEqual, 4)
				So(stats.MeanProbability, ShouldBeBetweenOrEqual, 0.5, 1.0)

				exported := stats.ExportMetrics()
				So(exported["state_count"], ShouldEqual, 4)
				So(exported["stability"], ShouldEqual, stats.Stability)
			})
		})
	})
}
