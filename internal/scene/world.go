/*
Package scene is an in-memory host for the qreality engine.

It keeps entities in a uniform spatial hash so radius queries only visit the
cells overlapping the query sphere. It is what the headless simulation loop
and the integration tests run against; a real game engine would provide its
own implementation of the same capabilities.
*/
package scene

import (
	"math"
	"sort"

	"github.com/theapemachine/qreality"
)

var (
	_ qreality.Host              = (*World)(nil)
	_ qreality.VisualSurface     = (*World)(nil)
	_ qreality.EntityValidator   = (*World)(nil)
	_ qreality.PhysicalParameter = (*World)(nil)
)

// DefaultCellSize matches the engine's default influence radius.
const DefaultCellSize = 10.0

type cellKey struct {
	X, Y, Z int
}

type entity struct {
	transform  qreality.Transform
	cell       cellKey
	alpha      float64
	hasSurface bool
}

/*
World owns the entities the engine influences. It implements qreality.Host
along with every optional capability: VisualSurface, EntityValidator and
PhysicalParameter.
*/
type World struct {
	cellSize float64
	entities map[qreality.EntityID]*entity
	cells    map[cellKey][]qreality.EntityID
	nextID   qreality.EntityID
	physical float64
}

func NewWorld(cellSize float64) *World {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}

	return &World{
		cellSize: cellSize,
		entities: make(map[qreality.EntityID]*entity),
		cells:    make(map[cellKey][]qreality.EntityID),
	}
}

/*
Spawn adds an entity and returns its handle. withSurface gives it an opacity
channel, starting fully opaque.
*/
func (w *World) Spawn(t qreality.Transform, withSurface bool) qreality.EntityID {
	w.nextID++
	id := w.nextID

	e := &entity{
		transform:  t,
		cell:       w.cellOf(t.Position),
		alpha:      1,
		hasSurface: withSurface,
	}
	w.entities[id] = e
	w.cells[e.cell] = append(w.cells[e.cell], id)
	return id
}

// Destroy removes an entity. Destroying an unknown handle is a no-op.
func (w *World) Destroy(id qreality.EntityID) {
	e, ok := w.entities[id]
	if !ok {
		return
	}

	w.unlink(id, e.cell)
	delete(w.entities, id)
}

// QueryRadius returns the entities within radius of center, ordered by handle.
func (w *World) QueryRadius(center qreality.Vec3, radius float64) []qreality.EntityID {
	if radius < 0 {
		return nil
	}

	lo := w.cellOf(center.Sub(qreality.Vec3{X: radius, Y: radius, Z: radius}))
	hi := w.cellOf(center.Add(qreality.Vec3{X: radius, Y: radius, Z: radius}))
	r2 := radius * radius

	var out []qreality.EntityID
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				for _, id := range w.cells[cellKey{x, y, z}] {
					if w.entities[id].transform.Position.Sub(center).LengthSq() <= r2 {
						out = append(out, id)
					}
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (w *World) Transform(id qreality.EntityID) (qreality.Transform, bool) {
	e, ok := w.entities[id]
	if !ok {
		return qreality.Transform{}, false
	}
	return e.transform, true
}

// SetTransform moves an entity, rehashing it when it crosses a cell boundary.
func (w *World) SetTransform(id qreality.EntityID, t qreality.Transform) {
	e, ok := w.entities[id]
	if !ok {
		return
	}

	e.transform = t
	if cell := w.cellOf(t.Position); cell != e.cell {
		w.unlink(id, e.cell)
		e.cell = cell
		w.cells[cell] = append(w.cells[cell], id)
	}
}

func (w *World) Alpha(id qreality.EntityID) (float64, bool) {
	e, ok := w.entities[id]
	if !ok || !e.hasSurface {
		return 0, false
	}
	return e.alpha, true
}

func (w *World) SetAlpha(id qreality.EntityID, alpha float64) {
	if e, ok := w.entities[id]; ok && e.hasSurface {
		e.alpha = math.Max(0, math.Min(1, alpha))
	}
}

func (w *World) Valid(id qreality.EntityID) bool {
	_, ok := w.entities[id]
	return ok
}

func (w *World) SetPhysicalParameter(value float64) {
	w.physical = value
}

// PhysicalParameter returns the last value the engine wrote.
func (w *World) PhysicalParameter() float64 {
	return w.physical
}

func (w *World) Len() int {
	return len(w.entities)
}

// Entities returns every live handle, ordered.
func (w *World) Entities() []qreality.EntityID {
	out := make([]qreality.EntityID, 0, len(w.entities))
	for id := range w.entities {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (w *World) cellOf(p qreality.Vec3) cellKey {
	return cellKey{
		X: int(math.Floor(p.X / w.cellSize)),
		Y: int(math.Floor(p.Y / w.cellSize)),
		Z: int(math.Floor(p.Z / w.cellSize)),
	}
}

func (w *World) unlink(id qreality.EntityID, cell cellKey) {
	ids := w.cells[cell]
	for i, other := range ids {
		if other == id {
			ids[i] = ids[len(ids)-1]
			ids = ids[:len(ids)-1]
			break
		}
	}

	if len(ids) == 0 {
		delete(w.cells, cell)
		return
	}
	w.cells[cell] = ids
}
