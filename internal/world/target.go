package world

import "fmt"

// EntityID uniquely identifies an entity in the world.
type EntityID string

type targetKind uint8

const (
	targetNone targetKind = iota
	targetEntity
	targetPosition
)

// Target is what an agent is working toward: nothing, an entity reference,
// or a fixed position. The zero value is "no target".
type Target struct {
	kind targetKind
	id   EntityID
	pos  Position
}

// NoTarget is the empty target.
var NoTarget = Target{}

// EntityRef targets an entity by identity.
func EntityRef(id EntityID) Target {
	if id == "" {
		return NoTarget
	}
	return Target{kind: targetEntity, id: id}
}

// At targets a fixed position.
func At(pos Position) Target {
	return Target{kind: targetPosition, pos: pos}
}

// IsZero reports whether the target is empty.
func (t Target) IsZero() bool {
	return t.kind == targetNone
}

// Entity returns the referenced entity ID, if the target is an entity.
func (t Target) Entity() (EntityID, bool) {
	return t.id, t.kind == targetEntity
}

// Position returns the fixed position, if the target is a position.
func (t Target) Position() (Position, bool) {
	return t.pos, t.kind == targetPosition
}

// Resolve returns the position the target stands for. An entity reference
// that no longer resolves is reported as ok=false, exactly like no target.
func (t Target) Resolve(w World) (Position, bool) {
	switch t.kind {
	case targetPosition:
		return t.pos, true
	case targetEntity:
		e, ok := w.Get(t.id)
		if !ok {
			return Position{}, false
		}
		return e.Pos, true
	default:
		return Position{}, false
	}
}

func (t Target) String() string {
	switch t.kind {
	case targetEntity:
		return "entity:" + string(t.id)
	case targetPosition:
		return "pos:" + t.pos.String()
	default:
		return "none"
	}
}

// TargetRecord is the flat, persistable form of a Target.
type TargetRecord struct {
	Kind string `json:"kind" db:"target_kind"`
	ID   string `json:"id,omitempty" db:"target_id"`
	X    int    `json:"x,omitempty" db:"target_x"`
	Y    int    `json:"y,omitempty" db:"target_y"`
	Room string `json:"room,omitempty" db:"target_room"`
}

// Record flattens the target for storage.
func (t Target) Record() TargetRecord {
	switch t.kind {
	case targetEntity:
		return TargetRecord{Kind: "entity", ID: string(t.id)}
	case targetPosition:
		return TargetRecord{Kind: "position", X: t.pos.X, Y: t.pos.Y, Room: t.pos.Room}
	default:
		return TargetRecord{Kind: "none"}
	}
}

// Target rebuilds a Target from its stored form.
func (r TargetRecord) Target() (Target, error) {
	switch r.Kind {
	case "", "none":
		return NoTarget, nil
	case "entity":
		return EntityRef(EntityID(r.ID)), nil
	case "position":
		return At(Position{X: r.X, Y: r.Y, Room: r.Room}), nil
	default:
		return NoTarget, fmt.Errorf("unknown target kind %q", r.Kind)
	}
}
