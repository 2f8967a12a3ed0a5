package ledfx

import (
	"fmt"
	"testing"
)

func TestAllPixels(t *testing.T) {
	want := make([]int, NumLEDs)
	for i := range want {
		want[i] = i
	}

	for _, tm := range sampleTimes {
		assertEq(t, want, AllPixels{}.AppendPixels(nil, tm))
	}
}

func TestCircles(t *testing.T) {
	inner := InnerCircle{}.AppendPixels(nil, 0)
	outer := OuterCircle{}.AppendPixels(nil, 0)

	assertEq(t, 12, len(inner))
	assertEq(t, 18, len(outer))

	seen := make(map[int]bool)
	for _, px := range append(inner, outer...) {
		if seen[px] {
			t.Errorf("LED %d is in both circles", px)
		}
		seen[px] = true
	}

	// Neither circle includes the petal tips.
	for _, tip := range (Petal{kind: PetalJustTip}).AppendPixels(nil, 0) {
		if seen[tip] {
			t.Errorf("tip LED %d is in a circle", tip)
		}
	}

	assertEq(t, inner, InnerCircle{}.AppendPixels(nil, 99_999))
}

func TestEveryN(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 6, 9, 12, 18, 36} {
		t.Run(fmt.Sprint("n=", n), func(t *testing.T) {
			p := NewEveryN(n, 0)
			for _, tm := range sampleTimes {
				pixels := p.AppendPixels(nil, tm)
				assertEq(t, NumLEDs/n, len(pixels))

				seen := make(map[int]bool)
				for _, px := range pixels {
					if px < 0 || px >= NumLEDs {
						t.Fatalf("t=%d: LED %d out of range", tm, px)
					}
					if seen[px] {
						t.Fatalf("t=%d: LED %d selected twice", tm, px)
					}
					seen[px] = true
				}
			}
		})
	}
}

func TestEveryNRotates(t *testing.T) {
	p := NewEveryN(3, 0)

	assertEq(t, []int{0, 3, 6, 9, 12, 15, 18, 21, 24, 27, 30, 33}, p.AppendPixels(nil, 0))
	assertEq(t, []int{0, 3, 6, 9, 12, 15, 18, 21, 24, 27, 30, 33}, p.AppendPixels(nil, 219))
	assertEq(t, []int{1, 4, 7, 10, 13, 16, 19, 22, 25, 28, 31, 34}, p.AppendPixels(nil, 220))
	assertEq(t, []int{2, 5, 8, 11, 14, 17, 20, 23, 26, 29, 32, 35}, p.AppendPixels(nil, 440))
	assertEq(t, p.AppendPixels(nil, 0), p.AppendPixels(nil, rotationSpeed))
}

func TestEveryNInterleaves(t *testing.T) {
	const n = 4

	providers := make([]EveryN, n)
	for i := range providers {
		providers[i] = NewEveryN(n, i)
	}

	for tm := uint32(0); tm < 2*rotationSpeed; tm += 7 {
		seen := make(map[int]int)
		for i, p := range providers {
			for _, px := range p.AppendPixels(nil, tm) {
				if other, ok := seen[px]; ok {
					t.Fatalf("t=%d: offsets %d and %d both select LED %d", tm, other, i, px)
				}
				seen[px] = i
			}
		}
		assertEq(t, NumLEDs, len(seen))
	}
}

func TestEveryNInvalid(t *testing.T) {
	for _, n := range []int{0, -1, 5, 7, 37} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("NewEveryN(%d, 0) did not panic", n)
				}
			}()
			NewEveryN(n, 0)
		}()
	}
}

func TestPetalRotate(t *testing.T) {
	p := NewPetal(PetalStem, PetalRotate, 2500)

	tests := []struct {
		time uint32
		want []int
	}{
		{0, []int{6, 7, 8, 9, 10}},
		{2499, []int{6, 7, 8, 9, 10}},
		{2500, []int{24, 25, 26, 27, 28}},
		{5000, []int{0, 1, 2, 3, 4}},
		{7500, []int{18, 19, 20, 21, 22}},
		{10_000, []int{30, 31, 32, 33, 34}},
		{12_500, []int{12, 13, 14, 15, 16}},
		{15_000, []int{6, 7, 8, 9, 10}},
	}

	for _, test := range tests {
		assertEq(t, test.want, p.AppendPixels(nil, test.time))
	}
}

func TestPetalAllOn(t *testing.T) {
	tests := []struct {
		kind PetalType
		size int
	}{
		{PetalJustTip, 6},
		{PetalNormal, 24},
		{PetalStem, 30},
		{PetalRoots, 42},
	}

	for _, test := range tests {
		t.Run(test.kind.String(), func(t *testing.T) {
			p := NewPetal(test.kind, PetalAllOn, 0)
			pixels := p.AppendPixels(nil, 1234)
			assertEq(t, test.size, len(pixels))
			if len(pixels) > MaxSelection {
				t.Errorf("selection of %d exceeds MaxSelection", len(pixels))
			}
			for _, px := range pixels {
				if px < 0 || px >= NumLEDs {
					t.Errorf("LED %d out of range", px)
				}
			}
			assertEq(t, pixels, p.AppendPixels(nil, 0))
		})
	}
}

func TestPetalRootsShareBoundaries(t *testing.T) {
	count := make(map[int]int)
	for _, px := range NewPetal(PetalRoots, PetalAllOn, 0).AppendPixels(nil, 0) {
		count[px]++
	}

	for _, boundary := range []int{5, 11, 17, 23, 29, 35} {
		assertEq(t, 2, count[boundary])
	}
	assertEq(t, NumLEDs, len(count))
}

func TestLayout(t *testing.T) {
	pts := Layout(2)
	assertEq(t, NumLEDs, len(pts))

	seen := make(map[[2]int]bool)
	for i, pt := range pts {
		if pt.X < 0 || pt.Y < 0 || pt.X > 40 || pt.Y > 40 {
			t.Errorf("LED %d at %v is outside the canvas", i, pt)
		}
		seen[[2]int{pt.X, pt.Y}] = true
	}
	assertEq(t, NumLEDs, len(seen))
}
