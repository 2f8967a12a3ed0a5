package ledfx

import "fmt"

// PixelProvider selects the LEDs an effect paints at a point in time.
type PixelProvider interface {
	// AppendPixels appends the indices of the selected LEDs at time t (in
	// milliseconds) to dst and returns the extended slice. Indices are in
	// [0, NumLEDs) and at most MaxSelection of them are appended.
	AppendPixels(dst []int, t uint32) []int
}

// AllPixels selects every LED in ascending order.
type AllPixels struct{}

var _ PixelProvider = AllPixels{}

// AppendPixels implements PixelProvider.
func (AllPixels) AppendPixels(dst []int, t uint32) []int {
	for i := 0; i < NumLEDs; i++ {
		dst = append(dst, i)
	}
	return dst
}

// InnerCircle selects the 12 LEDs around the center of the ring.
type InnerCircle struct{}

var _ PixelProvider = InnerCircle{}

// AppendPixels implements PixelProvider.
func (InnerCircle) AppendPixels(dst []int, t uint32) []int {
	return append(dst, innerCircle[:]...)
}

// OuterCircle selects the 18 LEDs that form the outer loop of the petals.
// The petal tips are not part of it, so it is not quite a circle.
type OuterCircle struct{}

var _ PixelProvider = OuterCircle{}

// AppendPixels implements PixelProvider.
func (OuterCircle) AppendPixels(dst []int, t uint32) []int {
	return append(dst, outerCircle[:]...)
}

// rotationSpeed is the time in milliseconds an EveryN pattern with a stride
// of 1 takes to advance by one LED, multiplied by the stride.
const rotationSpeed = 330 * 2

// EveryN selects every nth LED. The selection rotates by one LED every
// rotationSpeed/n milliseconds, so the pattern comes back to where it
// started every rotationSpeed milliseconds.
type EveryN struct {
	n      uint32
	offset uint32
	stepMs uint32
}

var _ PixelProvider = EveryN{}

// NewEveryN creates an EveryN selecting NumLEDs/n LEDs. The offset shifts
// the starting LED; instances with the same n and distinct offsets modulo n
// never select the same LED at the same time. It panics if n does not divide
// NumLEDs.
func NewEveryN(n, offset int) EveryN {
	if n <= 0 || NumLEDs%n != 0 {
		panic(fmt.Sprintf("ledfx: EveryN stride %d does not divide %d", n, NumLEDs))
	}
	if offset < 0 {
		panic(fmt.Sprintf("ledfx: EveryN offset %d is negative", offset))
	}
	return EveryN{
		n:      uint32(n),
		offset: uint32(offset % n),
		stepMs: rotationSpeed / uint32(n),
	}
}

// AppendPixels implements PixelProvider.
func (e EveryN) AppendPixels(dst []int, t uint32) []int {
	start := (t/e.stepMs%e.n + e.offset) % e.n
	for i := uint32(0); i < NumLEDs/e.n; i++ {
		dst = append(dst, int((start+i*e.n)%NumLEDs))
	}
	return dst
}

// PetalType is the part of a petal that Petal selects.
type PetalType uint8

const (
	// PetalJustTip is the single LED at the tip of the petal.
	PetalJustTip PetalType = iota
	// PetalNormal is the outer four LEDs of the petal.
	PetalNormal
	// PetalStem is the petal plus its first inner circle LED.
	PetalStem
	// PetalRoots is the whole petal plus the inner circle LED of the
	// previous petal. Neighbouring roots share their boundary LEDs.
	PetalRoots

	petalTypeMax
)

// String implements fmt.Stringer.
func (t PetalType) String() string {
	switch t {
	case PetalJustTip:
		return "tip"
	case PetalNormal:
		return "normal"
	case PetalStem:
		return "stem"
	case PetalRoots:
		return "roots"
	default:
		return fmt.Sprintf("PetalType(%d)", uint8(t))
	}
}

// PetalMovement is how Petal walks through the petals.
type PetalMovement uint8

const (
	// PetalAllOn selects all six petals at once.
	PetalAllOn PetalMovement = iota
	// PetalRotate selects one petal at a time.
	PetalRotate
)

var petals = [petalTypeMax][NumPetals][]int{
	PetalJustTip: {
		{3}, {9}, {15}, {21}, {27}, {33},
	},
	PetalNormal: {
		{1, 2, 3, 4},
		{7, 8, 9, 10},
		{13, 14, 15, 16},
		{19, 20, 21, 22},
		{25, 26, 27, 28},
		{31, 32, 33, 34},
	},
	PetalStem: {
		{0, 1, 2, 3, 4},
		{6, 7, 8, 9, 10},
		{12, 13, 14, 15, 16},
		{18, 19, 20, 21, 22},
		{24, 25, 26, 27, 28},
		{30, 31, 32, 33, 34},
	},
	PetalRoots: {
		{35, 0, 1, 2, 3, 4, 5},
		{5, 6, 7, 8, 9, 10, 11},
		{11, 12, 13, 14, 15, 16, 17},
		{17, 18, 19, 20, 21, 22, 23},
		{23, 24, 25, 26, 27, 28, 29},
		{29, 30, 31, 32, 33, 34, 35},
	},
}

// Petal selects the LEDs of the snowflake petals.
type Petal struct {
	kind     PetalType
	movement PetalMovement
	changeMs uint32
}

var _ PixelProvider = Petal{}

// NewPetal creates a Petal provider. With PetalRotate, the lit petal changes
// every changeMs milliseconds, going through the petals in a fixed
// non-sequential order.
func NewPetal(kind PetalType, movement PetalMovement, changeMs uint32) Petal {
	if kind >= petalTypeMax {
		panic(fmt.Sprintf("ledfx: invalid petal type %d", kind))
	}
	if movement == PetalRotate && changeMs == 0 {
		panic("ledfx: rotating petals need a non-zero change period")
	}
	return Petal{kind: kind, movement: movement, changeMs: changeMs}
}

// AppendPixels implements PixelProvider.
func (p Petal) AppendPixels(dst []int, t uint32) []int {
	if p.movement == PetalRotate {
		petal := petalOrder[t/p.changeMs%NumPetals]
		return append(dst, petals[p.kind][petal]...)
	}
	for _, petal := range petals[p.kind] {
		dst = append(dst, petal...)
	}
	return dst
}
