package qreality

/*
EntityID is an opaque handle to an entity owned by the host. The engine never
owns entity lifetime; it only remembers handles it has influenced.
*/
type EntityID uint64

/*
Transform is the part of an entity the engine reads and writes.
Yaw is the rotation about the vertical axis, in degrees.
*/
type Transform struct {
	Position Vec3
	Scale    Vec3
	Yaw      float64
}

// SpatialQuerier finds entities within radius of center.
type SpatialQuerier interface {
	QueryRadius(center Vec3, radius float64) []EntityID
}

// TransformAccessor reads and writes entity transforms.
type TransformAccessor interface {
	Transform(id EntityID) (Transform, bool)
	SetTransform(id EntityID, t Transform)
}

/*
Host is the minimal set of capabilities the engine needs from the world it
runs in. The optional capabilities below are discovered by type assertion.
*/
type Host interface {
	SpatialQuerier
	TransformAccessor
}

// VisualSurface is implemented by hosts whose entities carry an opacity channel.
// Alpha reports false for entities without a visual surface.
type VisualSurface interface {
	Alpha(id EntityID) (float64, bool)
	SetAlpha(id EntityID, alpha float64)
}

// EntityValidator lets the host tell the engine which handles are still alive.
type EntityValidator interface {
	Valid(id EntityID) bool
}

// PhysicalParameter is the single external global scalar scaled by stability.
type PhysicalParameter interface {
	SetPhysicalParameter(value float64)
}
