package dataset

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	r := rand.New(rand.NewSource(12345))
	for i := 0; i < 100; i++ {
		ex := Sum(r, 5)
		require.Len(t, ex.Inputs, 5)
		require.Len(t, ex.Targets, 1)

		var want float64
		for _, x := range ex.Inputs {
			require.GreaterOrEqual(t, x, 0.0)
			require.Less(t, x, 1.0)
			want += x
		}
		require.InDelta(t, want, ex.Targets[0], 1e-12)
	}
}

func TestAverage(t *testing.T) {
	r := rand.New(rand.NewSource(12345))
	for i := 0; i < 100; i++ {
		ex := Average(r, 4)
		require.Len(t, ex.Inputs, 4)

		var sum float64
		for _, x := range ex.Inputs {
			sum += x
		}
		require.InDelta(t, sum/4, ex.Targets[0], 1e-12)
	}
}

func TestSyntheticIsReproducible(t *testing.T) {
	a := rand.New(rand.NewSource(7))
	b := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		require.Equal(t, Average(a, 3), Average(b, 3))
	}
}
