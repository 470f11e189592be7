package metadata

import (
	"unsafe"

	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-playground/engine/math"
)

const (
	// FloatsPerVertex is the number of float32 in one interleaved vertex.
	FloatsPerVertex = 6
	// VertexStride is the byte distance between consecutive interleaved vertices.
	VertexStride = FloatsPerVertex * 4
	// PositionOffset and NormalOffset are attribute byte offsets inside a vertex.
	PositionOffset = 0
	NormalOffset   = 3 * 4
)

// InterleavedVertex is a position followed by its resolved normal. It is laid
// out as six consecutive float32 so a []InterleavedVertex can be uploaded as is.
type InterleavedVertex struct {
	Position math.Vec3
	Normal   math.Vec3
}

// ImportStats are diagnostics gathered while importing a model.
type ImportStats struct {
	// Lines is the number of lines read.
	Lines int
	// Positions and Normals count the entries of the raw attribute arrays.
	Positions int
	Normals   int
	// Faces counts `f` lines, References the face-vertex pairs they produced.
	Faces      int
	References int
	// IgnoredLines counts non-blank lines with an unsupported tag.
	IgnoredLines int
	// SkippedTokens counts tokens dropped by the permissive `v` and `f` parsing.
	SkippedTokens int
}

// MeshRecord is the renderer ready output of a model import. The caller owns it.
type MeshRecord struct {
	// Vertices holds one entry per position index, in position order.
	Vertices []InterleavedVertex
	// Indices holds the position index of every face-vertex reference, in file order.
	Indices []uint32
	// Normals is the per-position normal array, 3 floats per position.
	Normals []float32
	Stats   ImportStats
}

// VertexCount is the number of interleaved vertices.
func (mr *MeshRecord) VertexCount() int {
	return len(mr.Vertices)
}

// Flatten returns the interleaved buffer as px,py,pz,nx,ny,nz,... floats.
func (mr *MeshRecord) Flatten() []float32 {
	out := make([]float32, 0, len(mr.Vertices)*FloatsPerVertex)
	for _, v := range mr.Vertices {
		out = append(out, v.Position.X, v.Position.Y, v.Position.Z, v.Normal.X, v.Normal.Y, v.Normal.Z)
	}
	return out
}

// Positions returns the vertex positions in position index order.
func (mr *MeshRecord) Positions() []math.Vec3 {
	out := make([]math.Vec3, len(mr.Vertices))
	for i, v := range mr.Vertices {
		out[i] = v.Position
	}
	return out
}

// VertexBufferSize is the size in bytes of the interleaved vertex buffer.
func (mr *MeshRecord) VertexBufferSize() uint64 {
	return uint64(len(mr.Vertices)) * uint64(unsafe.Sizeof(InterleavedVertex{}))
}

type Mesh struct {
	ID uuid.UUID
	// Name is the asset name the mesh was acquired with.
	Name string
	// Generation is incremented every time the mesh is re-imported.
	Generation uint16
	Record     *MeshRecord
	Center     math.Vec3
	Extents    math.Extents3D
}
