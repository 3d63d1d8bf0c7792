package content

import "github.com/pkg/errors"

// BiTreeModel is the static geometry of a level, split into trees.
type BiTreeModel struct {
	Trees []BiTree
}

// BiTree is one spatially partitioned mesh sharing a single set of buffers.
type BiTree struct {
	Visible         bool
	CastShadows     bool
	Sway            float32
	EntityInfluence float32
	GroundLevel     float32
	NumVertices     int32
	VertexStride    int32
	Declaration     *VertexDeclaration
	VertexBuffer    *VertexBuffer
	IndexBuffer     *IndexBuffer
	Effect          Asset
	Root            BiTreeNode
}

// BiTreeNode is a node of the partition tree. Each node owns its children.
type BiTreeNode struct {
	PrimitiveCount int32
	StartIndex     int32
	Bounds         BoundingBox
	ChildA         *BiTreeNode
	ChildB         *BiTreeNode
}

func (*BiTreeModel) Kind() Kind { return KindBiTreeModel }
func (*BiTreeModel) sealed()    {}

// Children returns the present children of n, ChildA first.
func (n *BiTreeNode) Children() []*BiTreeNode {
	var out []*BiTreeNode
	if n.ChildA != nil {
		out = append(out, n.ChildA)
	}
	if n.ChildB != nil {
		out = append(out, n.ChildB)
	}
	return out
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of that node.
func (n *BiTreeNode) Walk(fn func(*BiTreeNode) bool) {
	stack := []*BiTreeNode{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(node) {
			continue
		}
		// push B first so A is visited first
		if node.ChildB != nil {
			stack = append(stack, node.ChildB)
		}
		if node.ChildA != nil {
			stack = append(stack, node.ChildA)
		}
	}
}

// Validate checks that every node's index range lies inside the tree's
// index buffer.
func (t *BiTree) Validate() error {
	count := 0
	if t.IndexBuffer != nil {
		count = t.IndexBuffer.IndexCount()
	}
	var err error
	t.Root.Walk(func(n *BiTreeNode) bool {
		if err != nil {
			return false
		}
		end := int64(n.StartIndex) + int64(n.PrimitiveCount)*3
		if n.StartIndex < 0 || n.PrimitiveCount < 0 || end > int64(count) {
			err = errors.Errorf("node range [%d, %d) exceeds index buffer of %d indices",
				n.StartIndex, end, count)
			return false
		}
		return true
	})
	return err
}

// RenderDeferredEffect returns the tree's effect if it is a deferred
// material.
func (t *BiTree) RenderDeferredEffect() (*RenderDeferredEffect, bool) {
	e, ok := t.Effect.(*RenderDeferredEffect)
	return e, ok
}

func readBiTreeModel(d *decoder) *BiTreeModel {
	n := d.count("tree count")
	m := &BiTreeModel{Trees: make([]BiTree, 0, d.sized(n, 40))}
	for i := 0; i < n && d.err == nil; i++ {
		m.Trees = append(m.Trees, readBiTree(d))
	}
	return m
}

func readBiTree(d *decoder) BiTree {
	t := BiTree{
		Visible:         d.boolean("visible"),
		CastShadows:     d.boolean("cast shadows"),
		Sway:            d.f32("sway"),
		EntityInfluence: d.f32("entity influence"),
		GroundLevel:     d.f32("ground level"),
		NumVertices:     d.i32("vertex count"),
		VertexStride:    d.i32("vertex stride"),
	}
	t.Declaration = readAs[*VertexDeclaration](d, "vertex declaration")
	t.VertexBuffer = readAs[*VertexBuffer](d, "vertex buffer")
	t.IndexBuffer = readAs[*IndexBuffer](d, "index buffer")
	t.Effect = d.asset()
	if d.err == nil {
		switch t.Effect.Kind() {
		case KindNull, KindRenderDeferredEffect, KindAdditiveEffect, KindRenderDeferredLiquidEffect:
		default:
			d.errorf("expected effect, got %s", t.Effect.Kind())
		}
	}
	t.Root = readBiTreeNode(d)
	return t
}

func readBiTreeNode(d *decoder) BiTreeNode {
	n := BiTreeNode{
		PrimitiveCount: d.i32("primitive count"),
		StartIndex:     d.i32("start index"),
		Bounds: BoundingBox{
			Min: d.vec3("bounding box min"),
			Max: d.vec3("bounding box max"),
		},
	}
	if d.boolean("child a present") {
		child := readBiTreeNode(d)
		n.ChildA = &child
	}
	if d.boolean("child b present") {
		child := readBiTreeNode(d)
		n.ChildB = &child
	}
	return n
}
