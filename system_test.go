package palog

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 辅助函数：合成一份 3 逻辑通道、1000 采样 @ 1ms 的日志
// 槽位 1: 电压 + 电流，槽位 2: 只有电压 (凑不出功率)
func makeEndToEndFile(t *testing.T) []byte {
	t.Helper()
	header := makeHeader(0.001, 1, 0,
		"<1><u>1</u><i>1</i><model>PW9100</model></1>",
		"<2><u>1</u><i>0</i><model>PW9100</model></2>",
	)

	const samples = 1000
	values := make([]float32, 0, samples*3)
	for s := 0; s < samples; s++ {
		// U1: 前半段 100V，后半段 200V，给变点检测一个真实的跳变
		u1 := float32(100.0)
		if s >= samples/2 {
			u1 = 200.0
		}
		i1 := float32(1.5)
		u2 := float32(5.0 + 0.001*float64(s))
		values = append(values, u1, i1, u2)
	}
	return makeLogFile(header, values...)
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func endToEndConfig() *Config {
	cfg := DefaultConfig()
	// 预算调小，让 PELT 的候选点稀疏，测试跑得快
	cfg.Changepoint.NumSamples = 10
	cfg.Changepoint.MinSegmentSize = 100
	cfg.Smooth.Window = 10
	return cfg
}

func TestSystem_EndToEnd(t *testing.T) {
	path := writeTempFile(t, "capture.log", makeEndToEndFile(t))

	system := NewAnalyzerSystem(endToEndConfig())
	require.NoError(t, system.Run(path))

	rec := system.Recording()
	require.NotNil(t, rec)
	assert.Equal(t, 1000, rec.SampleCount())
	assert.InDelta(t, 1.0, rec.ObservedDuration, 1e-9)
	require.Len(t, rec.Channels, 3)
	for _, ch := range rec.Channels {
		assert.Equal(t, len(rec.Timestamps), len(ch.Samples))
	}

	// 槽位 2 只有电压，凑不出功率
	slots := system.Slots()
	assert.Equal(t, 2, slots.CountDataSlots())
	assert.Equal(t, 1, slots.CountPowerSlots())
	assert.False(t, slots.AllSlotsWithDataHavePower())

	// 三条通道都应有变点结果，U1 至少分出两段
	cps := system.Changepoints()
	require.Len(t, cps, 3)
	assert.Equal(t, "U1", cps[0].Channel)
	assert.GreaterOrEqual(t, len(cps[0].Segments), 2)

	// 跳变前后的段均值应分别接近 100 和 200
	first := cps[0].Segments[0]
	last := cps[0].Segments[len(cps[0].Segments)-1]
	assert.InDelta(t, 100.0, first.MeanValue, 5)
	assert.InDelta(t, 200.0, last.MeanValue, 5)

	var report bytes.Buffer
	system.PrintReport(&report)
	assert.Contains(t, report.String(), "U1 [V]")
	assert.Contains(t, report.String(), "I1 [A]")
}

func TestSystem_GzipTransparent(t *testing.T) {
	raw := makeEndToEndFile(t)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := writeTempFile(t, "capture.log.gz", buf.Bytes())

	cfg := endToEndConfig()
	cfg.Changepoint.Enabled = false
	system := NewAnalyzerSystem(cfg)
	require.NoError(t, system.Run(path))
	assert.Equal(t, 1000, system.Recording().SampleCount())
}

func TestSystem_SkipLimitFromConfig(t *testing.T) {
	path := writeTempFile(t, "capture.log", makeEndToEndFile(t))

	cfg := endToEndConfig()
	cfg.Changepoint.Enabled = false
	cfg.Decode.SkipSeconds = 0.2
	cfg.Decode.LimitSeconds = 0.8
	system := NewAnalyzerSystem(cfg)
	require.NoError(t, system.Run(path))

	rec := system.Recording()
	assert.GreaterOrEqual(t, rec.Timestamps[0], 0.2)
	assert.LessOrEqual(t, rec.Timestamps[len(rec.Timestamps)-1], 0.8)
}

func TestSystem_TargetChannel(t *testing.T) {
	path := writeTempFile(t, "capture.log", makeEndToEndFile(t))

	cfg := endToEndConfig()
	cfg.Changepoint.Channel = "I1"
	system := NewAnalyzerSystem(cfg)
	require.NoError(t, system.Run(path))

	cps := system.Changepoints()
	require.Len(t, cps, 1)
	assert.Equal(t, "I1", cps[0].Channel)
}

func TestSystem_TargetChannelAbsent(t *testing.T) {
	path := writeTempFile(t, "capture.log", makeEndToEndFile(t))

	cfg := endToEndConfig()
	cfg.Changepoint.Channel = "P4"
	system := NewAnalyzerSystem(cfg)
	require.NoError(t, system.LoadFile(path))
	assert.Error(t, system.Analyze())
}

func TestSystem_MissingFile(t *testing.T) {
	system := NewAnalyzerSystem(endToEndConfig())
	assert.Error(t, system.Run(filepath.Join(t.TempDir(), "nope.log")))
}

// --- 导出 ---

func TestCSVSink(t *testing.T) {
	path := writeTempFile(t, "capture.log", makeEndToEndFile(t))
	out := filepath.Join(t.TempDir(), "out.csv")

	cfg := endToEndConfig()
	cfg.Changepoint.Enabled = false
	system := NewAnalyzerSystem(cfg)
	sink, err := NewCSVSink(out)
	require.NoError(t, err)
	system.AddSink(sink)
	require.NoError(t, system.Run(path))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1001) // 表头 + 1000 行采样
	assert.Equal(t, "Timestamp [s],U1 [V],I1 [A],U2 [V]", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0,100,1.5,"))
}

func TestJSONSink(t *testing.T) {
	path := writeTempFile(t, "capture.log", makeEndToEndFile(t))
	out := filepath.Join(t.TempDir(), "out.json")

	system := NewAnalyzerSystem(endToEndConfig())
	sink, err := NewJSONSink(out)
	require.NoError(t, err)
	system.AddSink(sink)
	require.NoError(t, system.Run(path))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc struct {
		Channels []struct {
			Label string `json:"label"`
			Slot  int    `json:"slot"`
			Unit  string `json:"unit"`
			Stats struct {
				Min  float64 `json:"min"`
				Mean float64 `json:"mean"`
				Max  float64 `json:"max"`
			} `json:"stats"`
			Samples []float64 `json:"samples"`
		} `json:"channels"`
		Changepoints []struct {
			Channel  string `json:"channel"`
			Segments []struct {
				StartTime float64 `json:"start_time"`
				EndTime   float64 `json:"end_time"`
				MeanValue float64 `json:"mean_value"`
			} `json:"segments"`
		} `json:"changepoints"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	require.Len(t, doc.Channels, 3)
	assert.Equal(t, "U1", doc.Channels[0].Label)
	assert.Equal(t, "Voltage", doc.Channels[0].Unit)
	assert.Equal(t, 1, doc.Channels[0].Slot)
	assert.InDelta(t, 100.0, doc.Channels[0].Stats.Min, 1e-6)
	assert.InDelta(t, 200.0, doc.Channels[0].Stats.Max, 1e-6)
	assert.Len(t, doc.Channels[0].Samples, 1000)

	require.Len(t, doc.Changepoints, 3)
	assert.Equal(t, "U1", doc.Changepoints[0].Channel)
	require.NotEmpty(t, doc.Changepoints[0].Segments)
	seg := doc.Changepoints[0].Segments[0]
	assert.Less(t, seg.StartTime, seg.EndTime)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4})
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.Std, 1e-12)

	empty := Summarize(nil)
	assert.Equal(t, ChannelStats{}, empty)
}
