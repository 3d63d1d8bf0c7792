package content

import "github.com/go-gl/mathgl/mgl32"

// BoundingSphere is a sphere given by centre and radius.
type BoundingSphere struct {
	Center mgl32.Vec3
	Radius float32
}

// BoundingBox is an axis-aligned box.
type BoundingBox struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Contains reports whether p lies inside or on the box.
func (b BoundingBox) Contains(p mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Bone is a named node of the skeleton with its transform relative to the
// parent bone.
type Bone struct {
	Name      string
	Transform mgl32.Mat4
}

// BoneHierarchy lists the parent and children of the bone at the same index.
// Bone references are 1-based; 0 means no bone.
type BoneHierarchy struct {
	Parent   uint32
	Children []uint32
}

// MeshPart is a draw range inside a mesh's buffers.
type MeshPart struct {
	StreamOffset     uint32
	BaseVertex       uint32
	VertexCount      uint32
	StartIndex       uint32
	PrimitiveCount   uint32
	DeclarationIndex uint32
	Tag              uint8
	MaterialIndex    int32 // 1-based index into the shared assets
}

// Mesh is one renderable piece of a model.
type Mesh struct {
	Name         string
	Parent       uint32
	Bounds       BoundingSphere
	VertexBuffer *VertexBuffer
	IndexBuffer  *IndexBuffer
	Tag          uint8
	Parts        []MeshPart
}

// Model is a skinned mesh hierarchy.
type Model struct {
	Bones        []Bone
	Hierarchy    []BoneHierarchy
	Declarations []*VertexDeclaration
	Meshes       []Mesh
	Root         uint32
	Tag          uint8
}

func (*Model) Kind() Kind { return KindModel }
func (*Model) sealed()    {}

// AbsoluteTransforms returns each bone's transform composed with all of its
// ancestors. A parent reference of 0, or one outside the bone list, marks a
// root.
func (m *Model) AbsoluteTransforms() []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(m.Bones))
	done := make([]bool, len(m.Bones))
	var resolve func(i int, depth int) mgl32.Mat4
	resolve = func(i int, depth int) mgl32.Mat4 {
		if done[i] {
			return out[i]
		}
		t := m.Bones[i].Transform
		if i < len(m.Hierarchy) && depth < len(m.Bones) {
			if p := int(m.Hierarchy[i].Parent) - 1; p >= 0 && p != i && p < len(m.Bones) {
				t = resolve(p, depth+1).Mul4(t)
			}
		}
		out[i], done[i] = t, true
		return t
	}
	for i := range m.Bones {
		resolve(i, 0)
	}
	return out
}

func readModel(d *decoder) *Model {
	m := &Model{}

	numBones := d.countU32("bone count")
	m.Bones = make([]Bone, 0, d.sized(numBones, 65))
	for i := 0; i < numBones && d.err == nil; i++ {
		name := readAs[String](d, "bone name")
		m.Bones = append(m.Bones, Bone{Name: string(name), Transform: d.mat4("bone transform")})
	}

	m.Hierarchy = make([]BoneHierarchy, 0, d.sized(numBones, 5))
	for i := 0; i < numBones && d.err == nil; i++ {
		h := BoneHierarchy{Parent: d.boneRef(numBones, "parent bone")}
		n := d.countU32("child count")
		h.Children = make([]uint32, 0, d.sized(n, 1))
		for j := 0; j < n && d.err == nil; j++ {
			h.Children = append(h.Children, d.boneRef(numBones, "child bone"))
		}
		m.Hierarchy = append(m.Hierarchy, h)
	}

	numDecls := d.countU32("vertex declaration count")
	m.Declarations = make([]*VertexDeclaration, 0, d.sized(numDecls, 5))
	for i := 0; i < numDecls && d.err == nil; i++ {
		m.Declarations = append(m.Declarations, readAs[*VertexDeclaration](d, "vertex declaration"))
	}

	numMeshes := d.countU32("mesh count")
	m.Meshes = make([]Mesh, 0, d.sized(numMeshes, 24))
	for i := 0; i < numMeshes && d.err == nil; i++ {
		m.Meshes = append(m.Meshes, readMesh(d, numBones))
	}

	m.Root = d.boneRef(numBones, "root bone")
	m.Tag = d.u8("model tag")
	return m
}

func readMesh(d *decoder, numBones int) Mesh {
	var mesh Mesh
	mesh.Name = string(readAs[String](d, "mesh name"))
	mesh.Parent = d.boneRef(numBones, "mesh parent bone")
	mesh.Bounds = BoundingSphere{
		Center: d.vec3("bounding sphere center"),
		Radius: d.f32("bounding sphere radius"),
	}
	mesh.VertexBuffer = readAs[*VertexBuffer](d, "vertex buffer")
	mesh.IndexBuffer = readAs[*IndexBuffer](d, "index buffer")
	mesh.Tag = d.u8("mesh tag")

	n := d.countU32("mesh part count")
	mesh.Parts = make([]MeshPart, 0, d.sized(n, 26))
	for i := 0; i < n && d.err == nil; i++ {
		mesh.Parts = append(mesh.Parts, MeshPart{
			StreamOffset:     d.u32("stream offset"),
			BaseVertex:       d.u32("base vertex"),
			VertexCount:      d.u32("vertex count"),
			StartIndex:       d.u32("start index"),
			PrimitiveCount:   d.u32("primitive count"),
			DeclarationIndex: d.u32("vertex declaration index"),
			Tag:              d.u8("mesh part tag"),
			MaterialIndex:    d.int7("shared material index"),
		})
	}
	return mesh
}
