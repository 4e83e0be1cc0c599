package palog

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// RunningMean 居中滑动平均
//
// 输出与输入等长：两端用首/尾值复制延拓
// (前补 w/2 个，后补 w/2 + w%2 - 1 个)，再做宽度 w 的均值卷积。
// 纯函数，无状态
func RunningMean(x []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, errors.Wrapf(ErrInvalidWindow, "window width %d", window)
	}
	if len(x) == 0 {
		return nil, errors.Wrap(ErrInvalidWindow, "empty input")
	}

	front := window / 2
	back := window/2 + window%2 - 1

	padded := make([]float64, 0, len(x)+front+back)
	for i := 0; i < front; i++ {
		padded = append(padded, x[0])
	}
	padded = append(padded, x...)
	for i := 0; i < back; i++ {
		padded = append(padded, x[len(x)-1])
	}

	// 滑动窗口增量更新，只算一次完整的初始和
	out := make([]float64, len(x))
	w := float64(window)
	sum := floats.Sum(padded[:window])
	out[0] = sum / w
	for i := 1; i < len(x); i++ {
		sum += padded[i+window-1] - padded[i-1]
		out[i] = sum / w
	}
	return out, nil
}
