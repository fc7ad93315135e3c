package actor

import "math"

// Kind tags the scheduling class of an actor. Players and bosses update every
// frame, enemies are distance-tiered, subsystems run on a fixed cadence.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindPlayer
	KindEnemy
	KindBoss
	KindSubsystem
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindEnemy:
		return "enemy"
	case KindBoss:
		return "boss"
	case KindSubsystem:
		return "subsystem"
	default:
		return "unknown"
	}
}

// Vec3 is a position in world units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo is the full Euclidean distance, matching the metric render
// distances are defined in.
func (v Vec3) DistanceTo(o Vec3) float64 {
	return v.Sub(o).Length()
}

// Normalized returns the unit vector, or the zero vector for zero input.
func (v Vec3) Normalized() Vec3 {
	length := v.Length()
	if length == 0 {
		return Vec3{}
	}
	return v.Scale(1 / length)
}

// Actor is anything the frame driver can update. Update receives the frame
// delta in seconds and must never be called more than once per frame; the
// schedulers own that guarantee.
type Actor interface {
	ID() string
	Kind() Kind
	Alive() bool
	MarkDead()
	Update(dt float64)
}

// Positioned is implemented by actors anchored in the world. The second
// return reports whether a position exists at all; an actor without one is
// never distance-culled.
type Positioned interface {
	Position() (Vec3, bool)
}

// Renderable carries the per-frame visibility flag the tiered scheduler
// writes and the rendering collaborator reads.
type Renderable interface {
	Renderable() bool
	SetRenderable(bool)
}

// Expiring is implemented by dead actors that linger for a death-animation
// countdown. The sweep removes them only once Expired reports true.
type Expiring interface {
	Expired() bool
}

// Subsystem is a fixed-cadence actor with no spatial anchor. CadenceDivisor
// reports how many frames apart its updates run; the scheduler compensates
// the delta it passes by that factor.
type Subsystem interface {
	Actor
	CadenceDivisor() int
}
