package fixedmath

// Vec2 is a 2D vector of Fixed64 components. All simulation positions,
// velocities and directions use this type so world state is reproducible
// bit-for-bit across platforms and across a rollback restore+resim cycle.
type Vec2 struct {
	X, Y Fixed64
}

var Vec2Zero = Vec2{}

func NewVec2(x, y Fixed64) Vec2 { return Vec2{X: x, Y: y} }

func Vec2FromInt(x, y int) Vec2 { return Vec2{X: FromInt(x), Y: FromInt(y)} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Neg() Vec2       { return Vec2{-v.X, -v.Y} }

func (v Vec2) Scale(s Fixed64) Vec2 {
	return Vec2{v.X.Mul(s), v.Y.Mul(s)}
}

func (v Vec2) Dot(o Vec2) Fixed64 {
	return v.X.Mul(o.X) + v.Y.Mul(o.Y)
}

// Cross returns the scalar z-component of the 3D cross product.
func (v Vec2) Cross(o Vec2) Fixed64 {
	return v.X.Mul(o.Y) - v.Y.Mul(o.X)
}

func (v Vec2) LengthSquared() Fixed64 {
	return v.Dot(v)
}

func (v Vec2) Length() Fixed64 {
	return v.LengthSquared().Sqrt()
}

// Normalized returns a unit vector in the direction of v, or the zero vector
// if v is (near) zero length — callers must treat the zero vector as "no
// direction" rather than dividing by a near-zero length themselves.
func (v Vec2) Normalized() Vec2 {
	l := v.Length()
	if l <= Epsilon*4 {
		return Vec2Zero
	}
	return Vec2{v.X.Div(l), v.Y.Div(l)}
}

// Perpendicular returns the vector rotated 90 degrees counter-clockwise.
func (v Vec2) Perpendicular() Vec2 {
	return Vec2{-v.Y, v.X}
}

func Vec2Lerp(a, b Vec2, t Fixed64) Vec2 {
	return Vec2{Lerp(a.X, b.X, t), Lerp(a.Y, b.Y, t)}
}

func Vec2DistanceSquared(a, b Vec2) Fixed64 {
	return a.Sub(b).LengthSquared()
}

func Vec2Distance(a, b Vec2) Fixed64 {
	return a.Sub(b).Length()
}

func (v Vec2) ClampLength(maxLen Fixed64) Vec2 {
	ls := v.LengthSquared()
	maxLs := maxLen.Mul(maxLen)
	if ls <= maxLs || ls == 0 {
		return v
	}
	l := ls.Sqrt()
	scale := maxLen.Div(l)
	return v.Scale(scale)
}

func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }
