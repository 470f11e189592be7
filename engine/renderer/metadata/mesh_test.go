package metadata

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/anima-playground/engine/math"
)

func TestInterleavedVertexLayout(t *testing.T) {
	var v InterleavedVertex
	assert.Equal(t, uintptr(VertexStride), unsafe.Sizeof(v))
	assert.Equal(t, uintptr(PositionOffset), unsafe.Offsetof(v.Position))
	assert.Equal(t, uintptr(NormalOffset), unsafe.Offsetof(v.Normal))
}

func TestMeshRecordFlatten(t *testing.T) {
	mr := &MeshRecord{
		Vertices: []InterleavedVertex{
			{Position: math.Vec3{X: 1, Y: 2, Z: 3}, Normal: math.Vec3{X: 0, Y: 0, Z: 1}},
			{Position: math.Vec3{X: 4, Y: 5, Z: 6}, Normal: math.Vec3{X: 0, Y: 1, Z: 0}},
		},
	}

	assert.Equal(t, []float32{1, 2, 3, 0, 0, 1, 4, 5, 6, 0, 1, 0}, mr.Flatten())
	assert.Equal(t, []math.Vec3{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}, mr.Positions())
	assert.Equal(t, 2, mr.VertexCount())
	assert.Equal(t, uint64(2*VertexStride), mr.VertexBufferSize())
}

func TestResourceTypeString(t *testing.T) {
	assert.Equal(t, "model", ResourceTypeModel.String())
	assert.Equal(t, "none", ResourceTypeNone.String())
	assert.Equal(t, "none", ResourceType(42).String())
}
