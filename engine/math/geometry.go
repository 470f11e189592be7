package math

import "github.com/chewxy/math32"

// GeometryCalculateExtents returns the axis aligned bounds of the given
// positions and their center. No positions yields zero extents.
func GeometryCalculateExtents(positions []Vec3) (Extents3D, Vec3) {
	if len(positions) == 0 {
		return Extents3D{}, Vec3{}
	}
	inf := math32.Inf(1)
	ext := Extents3D{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
	for _, p := range positions {
		ext.Min = ext.Min.Min(p)
		ext.Max = ext.Max.Max(p)
	}
	center := ext.Min.Add(ext.Max).MulScalar(0.5)
	return ext, center
}

// Size is the edge lengths of the bounding box.
func (e Extents3D) Size() Vec3 {
	return e.Max.Sub(e.Min)
}

// Radius is half the diagonal of the box, handy for framing a camera on a mesh.
func (e Extents3D) Radius() float32 {
	return e.Size().Length() * 0.5
}
