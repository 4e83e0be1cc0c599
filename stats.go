package palog

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ChannelStats 通道的描述性统计，只做报表用
type ChannelStats struct {
	Min  float64 `json:"min"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Max  float64 `json:"max"`
}

// Summarize 计算一组采样的描述性统计
func Summarize(samples []float64) ChannelStats {
	if len(samples) == 0 {
		return ChannelStats{}
	}
	s := ChannelStats{
		Min:  floats.Min(samples),
		Mean: stat.Mean(samples, nil),
		Max:  floats.Max(samples),
	}
	if len(samples) > 1 {
		s.Std = stat.StdDev(samples, nil)
	}
	return s
}
