package palog

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunningMean_LengthPreserved(t *testing.T) {
	x := make([]float64, 100)
	for i := range x {
		x[i] = math.Sin(float64(i) / 10)
	}

	for _, w := range []int{1, 2, 4, 10, 50, 100} {
		out, err := RunningMean(x, w)
		require.NoError(t, err, "window %d", w)
		assert.Len(t, out, len(x), "window %d", w)
	}
}

func TestRunningMean_ConstantInput(t *testing.T) {
	// 常数输入经过任何窗口都不变 (边界延拓保证)
	x := []float64{3.5, 3.5, 3.5, 3.5, 3.5, 3.5}
	out, err := RunningMean(x, 4)
	require.NoError(t, err)
	assert.Equal(t, x, out)
}

func TestRunningMean_WindowOne(t *testing.T) {
	x := []float64{1, 2, 3}
	out, err := RunningMean(x, 1)
	require.NoError(t, err)
	assert.Equal(t, x, out)
}

func TestRunningMean_KnownValues(t *testing.T) {
	// x=[1,2,3,4], w=2: 前补 1 个首值 -> [1,1,2,3,4]
	// out[i] = mean(padded[i:i+2])
	x := []float64{1, 2, 3, 4}
	out, err := RunningMean(x, 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1.5, 2.5, 3.5}, out, 1e-12)
}

func TestRunningMean_InvalidWindow(t *testing.T) {
	_, err := RunningMean([]float64{1, 2, 3}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidWindow))

	_, err = RunningMean([]float64{1, 2, 3}, -4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidWindow))

	_, err = RunningMean(nil, 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidWindow))
}
