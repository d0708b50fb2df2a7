package kdtree

// Float4 is a portable 4-lane float batch. Operations apply lane-wise; the
// compiler is free to vectorize them, and the packet traversal only assumes
// "small fixed batch", not a particular hardware width.
type Float4 [4]float32

// Mask4 is a per-lane bitmask companion to Float4. Bit i corresponds to
// lane i; a full mask is 0xf.
type Mask4 uint8

const maskAll Mask4 = 0xf

// Broadcast a scalar to all lanes.
func Splat(v float32) Float4 {
	return Float4{v, v, v, v}
}

func (a Float4) Add(b Float4) Float4 {
	return Float4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func (a Float4) Sub(b Float4) Float4 {
	return Float4{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
}

func (a Float4) Mul(b Float4) Float4 {
	return Float4{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}

func (a Float4) Min(b Float4) Float4 {
	out := a
	for i := 0; i < 4; i++ {
		if b[i] < out[i] {
			out[i] = b[i]
		}
	}
	return out
}

func (a Float4) Max(b Float4) Float4 {
	out := a
	for i := 0; i < 4; i++ {
		if b[i] > out[i] {
			out[i] = b[i]
		}
	}
	return out
}

// Lane-wise a > b.
func (a Float4) Gt(b Float4) Mask4 {
	var m Mask4
	for i := 0; i < 4; i++ {
		if a[i] > b[i] {
			m |= 1 << uint(i)
		}
	}
	return m
}

// Lane-wise a < b.
func (a Float4) Lt(b Float4) Mask4 {
	var m Mask4
	for i := 0; i < 4; i++ {
		if a[i] < b[i] {
			m |= 1 << uint(i)
		}
	}
	return m
}

func (m Mask4) Or(o Mask4) Mask4 {
	return m | o
}

// Check whether all lanes are set.
func (m Mask4) All() bool {
	return m == maskAll
}

// Check whether lane i is set.
func (m Mask4) Bit(i int) bool {
	return m&(1<<uint(i)) != 0
}

// Set lane i.
func (m *Mask4) Set(i int) {
	*m |= 1 << uint(i)
}
