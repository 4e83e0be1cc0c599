package palog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// AnalyzerSystem 管理一个文件从解码到导出的完整生命周期
type AnalyzerSystem struct {
	cfg *Config

	// 组件
	detector *Detector
	sinks    []ResultSink

	// 状态 (LoadFile 之后有效)
	rec   *Recording
	slots *SlotTable

	// 分析结果，键为通道标签
	changepoints []ChannelChangepoints
}

// ChannelChangepoints 一条通道的变点分析结果
type ChannelChangepoints struct {
	Channel  string
	Segments []ChangepointSegment
}

// NewAnalyzerSystem 创建系统实例
func NewAnalyzerSystem(cfg *Config) *AnalyzerSystem {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &AnalyzerSystem{
		cfg:      cfg,
		detector: NewDetector(cfg),
	}
}

// AddSink 挂接一个导出器
func (s *AnalyzerSystem) AddSink(sink ResultSink) {
	s.sinks = append(s.sinks, sink)
}

// Recording 返回已解码的记录 (LoadFile 之前为 nil)
func (s *AnalyzerSystem) Recording() *Recording { return s.rec }

// Slots 返回槽位表 (LoadFile 之前为 nil)
func (s *AnalyzerSystem) Slots() *SlotTable { return s.slots }

// Changepoints 返回各通道的变点分析结果
func (s *AnalyzerSystem) Changepoints() []ChannelChangepoints { return s.changepoints }

// OpenLogStream 打开日志文件，按扩展名透明解压
// 解码器本身对压缩一无所知，只消费字节流
func OpenLogStream(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening log file")
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "opening gzip stream")
	}
	return &gzipStream{zr: zr, f: f}, nil
}

type gzipStream struct {
	zr *gzip.Reader
	f  *os.File
}

func (g *gzipStream) Read(p []byte) (int, error) { return g.zr.Read(p) }

func (g *gzipStream) Close() error {
	zerr := g.zr.Close()
	ferr := g.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}

// LoadFile 打开、解码并裁剪一个日志文件
func (s *AnalyzerSystem) LoadFile(path string) error {
	rc, err := OpenLogStream(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	rec, err := DecodeRecording(rc)
	if err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}

	// 裁剪必须发生在任何分析之前
	if s.cfg.Decode.SkipSeconds > 0 {
		rec.Skip(s.cfg.Decode.SkipSeconds)
	}
	if s.cfg.Decode.LimitSeconds > 0 {
		rec.Limit(s.cfg.Decode.LimitSeconds)
	}

	s.rec = rec
	s.slots = NewSlotTable(rec)
	s.changepoints = nil

	log.Infow("loaded recording",
		"file", path,
		"channels", len(rec.Channels),
		"samples", rec.SampleCount(),
		"duration", rec.ObservedDuration,
		"dataSlots", s.slots.CountDataSlots(),
		"powerSlots", s.slots.CountPowerSlots())

	return nil
}

// Analyze 对通道执行平滑 + 变点检测
// 指定了目标通道时该通道的失败是致命的；
// 分析全部通道时跳过退化 (全零) 的通道只告警
func (s *AnalyzerSystem) Analyze() error {
	if s.rec == nil {
		return errors.New("no recording loaded")
	}
	if !s.cfg.Changepoint.Enabled {
		return nil
	}

	target := s.cfg.Changepoint.Channel
	matched := false
	for _, ch := range s.rec.Channels {
		if target != "" && ch.Label() != target {
			continue
		}
		matched = true

		smoothed, err := RunningMean(ch.Samples, s.cfg.Smooth.Window)
		if err != nil {
			return errors.Wrapf(err, "smoothing channel %s", ch.Label())
		}

		segments, err := s.detector.Detect(smoothed, s.rec.Timestamps)
		if err != nil {
			if target == "" && errors.Is(err, ErrDegenerateSignal) {
				log.Warnw("skipping degenerate channel", "channel", ch.Label())
				continue
			}
			return errors.Wrapf(err, "detecting changepoints on %s", ch.Label())
		}

		s.changepoints = append(s.changepoints, ChannelChangepoints{
			Channel:  ch.Label(),
			Segments: segments,
		})
	}

	if target != "" && !matched {
		return errors.Errorf("channel %q not present in recording", target)
	}
	return nil
}

// Export 把记录和分析结果写进所有挂接的导出器
func (s *AnalyzerSystem) Export() error {
	if s.rec == nil {
		return errors.New("no recording loaded")
	}
	for _, sink := range s.sinks {
		if err := sink.WriteRecording(s.rec); err != nil {
			return err
		}
		for _, cc := range s.changepoints {
			if err := sink.WriteChangepoints(cc.Channel, cc.Segments); err != nil {
				return err
			}
		}
		if err := sink.Close(); err != nil {
			return err
		}
	}
	s.sinks = nil
	return nil
}

// Run 对单个文件执行 解码 → 分析 → 导出
// 任何一步失败都终止这个文件的处理，由调用方决定是否继续后面的文件
func (s *AnalyzerSystem) Run(path string) error {
	if err := s.LoadFile(path); err != nil {
		return err
	}
	if err := s.Analyze(); err != nil {
		return err
	}
	return s.Export()
}

// PrintReport 输出人类可读的分析报表
func (s *AnalyzerSystem) PrintReport(w io.Writer) {
	if s.rec == nil {
		return
	}
	rec := s.rec

	fmt.Fprintf(w, "Samples: %d  Interval: %gs  Duration: %.3fs (planned %.0fs)\n",
		rec.SampleCount(), rec.SampleInterval, rec.ObservedDuration, rec.PlannedDuration)
	if rec.DurationDeviates {
		fmt.Fprintf(w, "Warning: observed duration deviates from planned duration\n")
	}
	if rec.Sanitized > 0 {
		fmt.Fprintf(w, "Warning: %d out-of-range samples replaced with 0\n", rec.Sanitized)
	}
	fmt.Fprintf(w, "Slots with data: %d, with power: %d\n",
		s.slots.CountDataSlots(), s.slots.CountPowerSlots())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Channel\tModel\tMin\tMean\tStd\tMax")
	for _, ch := range rec.Channels {
		st := Summarize(ch.Samples)
		fmt.Fprintf(tw, "%s [%s]\t%s\t%.4f\t%.4f\t%.4f\t%.4f\n",
			ch.Label(), ch.Unit.Dimension(), ch.Model, st.Min, st.Mean, st.Std, st.Max)
	}
	tw.Flush()

	for _, cc := range s.changepoints {
		fmt.Fprintf(w, "Changepoints on %s: %d segment(s)\n", cc.Channel, len(cc.Segments))
		for i, seg := range cc.Segments {
			fmt.Fprintf(w, "  #%d  %.3fs - %.3fs  mean %.4f\n",
				i+1, seg.StartTime, seg.EndTime, seg.MeanValue)
		}
	}
}
