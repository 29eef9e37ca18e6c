package layout

import "fmt"

// Per-timestep block dimensions. A block is 4 state components followed by
// 1 actuation force and 2 wall contact forces.
const (
	NumState   = 4
	NumControl = 3
	BlockWidth = NumState + NumControl
)

// Field names a component inside a timestep block.
type Field int

const (
	X Field = iota
	Theta
	XDot
	ThetaDot
	U
	Lambda1
	Lambda2
)

var fieldNames = [BlockWidth]string{"x", "theta", "x_dot", "theta_dot", "u", "lambda1", "lambda2"}

func (f Field) String() string {
	if f < 0 || int(f) >= BlockWidth {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// FieldByName resolves a column name to its Field.
func FieldByName(name string) (Field, error) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("layout: unknown field %q", name)
}

// FieldNames returns the per-block column names in offset order.
func FieldNames() []string {
	names := make([]string, BlockWidth)
	copy(names, fieldNames[:])
	return names
}

// Layout is the bijection between a flat trajectory vector and timestep
// blocks. It is the single source of truth for decision-vector indexing;
// residual functions must never repeat the offset arithmetic themselves.
type Layout struct {
	Horizon int
}

func New(horizon int) (Layout, error) {
	if horizon < 2 {
		return Layout{}, fmt.Errorf("layout: horizon must be at least 2, got %d", horizon)
	}
	return Layout{Horizon: horizon}, nil
}

// Size is the flat trajectory length, Horizon*BlockWidth.
func (l Layout) Size() int {
	return l.Horizon * BlockWidth
}

// Offset maps (step, field) to the unique flat index step*BlockWidth+field.
func (l Layout) Offset(step int, f Field) int {
	if step < 0 || step >= l.Horizon {
		panic(fmt.Sprintf("layout: step %d out of range [0,%d)", step, l.Horizon))
	}
	if f < 0 || int(f) >= BlockWidth {
		panic(fmt.Sprintf("layout: invalid field %d", int(f)))
	}
	return step*BlockWidth + int(f)
}

// Block returns a view over timestep i of trajectory x. The view aliases x;
// writes through Set are visible to the caller.
func (l Layout) Block(x []float64, step int) Block {
	off := l.Offset(step, X)
	return Block{v: x[off : off+BlockWidth]}
}

// Block is a fixed-width view over one timestep of a trajectory.
type Block struct {
	v []float64
}

func (b Block) X() float64        { return b.v[X] }
func (b Block) Theta() float64    { return b.v[Theta] }
func (b Block) XDot() float64     { return b.v[XDot] }
func (b Block) ThetaDot() float64 { return b.v[ThetaDot] }
func (b Block) U() float64        { return b.v[U] }
func (b Block) Lambda1() float64  { return b.v[Lambda1] }
func (b Block) Lambda2() float64  { return b.v[Lambda2] }

func (b Block) Get(f Field) float64 {
	return b.v[f]
}

func (b Block) Set(f Field, val float64) {
	b.v[f] = val
}

// State returns a copy of the 4 state components of the block.
func (b Block) State() []float64 {
	s := make([]float64, NumState)
	copy(s, b.v[:NumState])
	return s
}
