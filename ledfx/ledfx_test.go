package ledfx

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func assertEq[T any](t *testing.T, expected, actual T, opts ...cmp.Option) {
	t.Helper()

	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// sampleTimes is a spread of timestamps including the edges of uint32.
var sampleTimes = []uint32{0, 1, 49, 50, 139, 140, 659, 660, 2499, 2500, 10_000, 123_457, 1<<32 - 1}
