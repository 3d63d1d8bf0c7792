package content

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// MovementProperties is the set of traversal flags of a nav mesh triangle.
type MovementProperties uint8

const (
	MovementWater   MovementProperties = 1
	MovementJump    MovementProperties = 2
	MovementFly     MovementProperties = 4
	MovementDynamic MovementProperties = 128

	movementAll = MovementWater | MovementJump | MovementFly | MovementDynamic
)

// ParseMovementProperties validates a stored flag byte. Bits outside the
// known set are rejected.
func ParseMovementProperties(v uint8) (MovementProperties, error) {
	p := MovementProperties(v)
	if p&^movementAll != 0 {
		return 0, errors.Errorf("unknown movement properties: %#x", v)
	}
	return p, nil
}

// Has reports whether all flags in q are set.
func (p MovementProperties) Has(q MovementProperties) bool {
	return p&q == q
}

func (p MovementProperties) String() string {
	if p == 0 {
		return "Default"
	}
	var parts []string
	for _, f := range []struct {
		flag MovementProperties
		name string
	}{
		{MovementWater, "Water"},
		{MovementJump, "Jump"},
		{MovementFly, "Fly"},
		{MovementDynamic, "Dynamic"},
	} {
		if p.Has(f.flag) {
			parts = append(parts, f.name)
		}
	}
	if rest := p &^ movementAll; rest != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint8(rest)))
	}
	return strings.Join(parts, "|")
}

// CollisionMaterial is the surface type of a collision mesh.
type CollisionMaterial uint8

const (
	CollisionGeneric CollisionMaterial = iota
	CollisionGravel
	CollisionGrass
	CollisionWood
	CollisionSnow
	CollisionStone
	CollisionMud
	CollisionReflect
	CollisionWater
	CollisionLava
)

var collisionMaterialNames = [...]string{
	"Generic", "Gravel", "Grass", "Wood", "Snow",
	"Stone", "Mud", "Reflect", "Water", "Lava",
}

func (m CollisionMaterial) String() string {
	if int(m) < len(collisionMaterialNames) {
		return collisionMaterialNames[m]
	}
	return fmt.Sprintf("CollisionMaterial(%d)", uint8(m))
}

// NavMeshTriangle is one walkable triangle. Neighbours index into the
// triangle list; costs are per edge, AB, BC and CA.
type NavMeshTriangle struct {
	Vertices   [3]uint16
	Neighbors  [3]uint16
	Costs      [3]float32
	Properties MovementProperties
}

// NavMesh is the navigation mesh of a level.
type NavMesh struct {
	Vertices  []mgl32.Vec3
	Triangles []NavMeshTriangle
}

// TriangleMesh is a collision mesh.
type TriangleMesh struct {
	Vertices []mgl32.Vec3
	Indices  [][3]uint32
}

func readNavMesh(d *decoder) NavMesh {
	var m NavMesh
	nv := d.countU16("nav mesh vertex count")
	m.Vertices = make([]mgl32.Vec3, 0, d.sized(nv, 12))
	for i := 0; i < nv && d.err == nil; i++ {
		m.Vertices = append(m.Vertices, d.vec3("nav mesh vertex"))
	}

	nt := d.countU16("nav mesh triangle count")
	m.Triangles = make([]NavMeshTriangle, 0, d.sized(nt, 25))
	for i := 0; i < nt && d.err == nil; i++ {
		var t NavMeshTriangle
		for j := range t.Vertices {
			t.Vertices[j] = d.u16("triangle vertex")
		}
		for j := range t.Neighbors {
			t.Neighbors[j] = d.u16("triangle neighbor")
		}
		for j := range t.Costs {
			t.Costs[j] = d.f32("edge cost")
		}
		flags := d.u8("movement properties")
		if d.err == nil {
			p, err := ParseMovementProperties(flags)
			if err != nil {
				d.err = err
			}
			t.Properties = p
		}
		m.Triangles = append(m.Triangles, t)
	}
	return m
}

func readCollisionMaterial(d *decoder) CollisionMaterial {
	v := d.u8("collision material")
	if d.err == nil && int(v) >= len(collisionMaterialNames) {
		d.errorf("unknown collision material: %d", v)
	}
	return CollisionMaterial(v)
}

// readTriangleMesh reads a collision mesh stored through a list reader. The
// reader index is checked but not dispatched.
func readTriangleMesh(d *decoder) TriangleMesh {
	var m TriangleMesh
	id := d.int7("list reader id")
	if d.err != nil {
		return m
	}
	tr, ok := d.typeReader(id)
	if !ok {
		return m
	}
	if !strings.HasPrefix(tr.Name, ListReaderName) {
		d.errorf("expected list reader, got %q", tr.Name)
		return m
	}

	nv := d.countU32("vertex count")
	m.Vertices = make([]mgl32.Vec3, 0, d.sized(nv, 12))
	for i := 0; i < nv && d.err == nil; i++ {
		m.Vertices = append(m.Vertices, d.vec3("vertex"))
	}

	ni := d.countU32("triangle count")
	m.Indices = make([][3]uint32, 0, d.sized(ni, 12))
	for i := 0; i < ni && d.err == nil; i++ {
		m.Indices = append(m.Indices, [3]uint32{
			d.u32("index"), d.u32("index"), d.u32("index"),
		})
	}
	return m
}
