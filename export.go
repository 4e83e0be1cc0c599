package palog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// ResultSink 定义导出器接口
// 分析流程只依赖这个接口，不依赖具体的文件格式
type ResultSink interface {
	WriteRecording(rec *Recording) error
	WriteChangepoints(channel string, segments []ChangepointSegment) error
	Close() error
}

// --- CSV ---

// CSVSink 把采样矩阵导出成 CSV
// 表头 "Timestamp [s]" 后跟各通道标签，每个采样一行
// 分段结果不进 CSV
type CSVSink struct {
	file *os.File
	w    *csv.Writer
}

// NewCSVSink 创建 CSV 导出器
func NewCSVSink(filename string) (*CSVSink, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, errors.Wrap(err, "creating csv file")
	}
	return &CSVSink{file: f, w: csv.NewWriter(f)}, nil
}

func (s *CSVSink) WriteRecording(rec *Recording) error {
	header := make([]string, 0, len(rec.Channels)+1)
	header = append(header, "Timestamp [s]")
	for _, ch := range rec.Channels {
		header = append(header, fmt.Sprintf("%s [%s]", ch.Label(), ch.Unit.Dimension()))
	}
	if err := s.w.Write(header); err != nil {
		return errors.Wrap(err, "writing csv header")
	}

	row := make([]string, len(rec.Channels)+1)
	for i, ts := range rec.Timestamps {
		row[0] = strconv.FormatFloat(ts, 'f', -1, 64)
		for c, ch := range rec.Channels {
			row[c+1] = strconv.FormatFloat(ch.Samples[i], 'f', -1, 64)
		}
		if err := s.w.Write(row); err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	return nil
}

func (s *CSVSink) WriteChangepoints(channel string, segments []ChangepointSegment) error {
	return nil
}

func (s *CSVSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.file.Close()
		return errors.Wrap(err, "flushing csv")
	}
	return s.file.Close()
}

// --- JSON ---

// JSONSink 把通道和分段结果导出成一个 JSON 文档
// {"channels": [...], "changepoints": [...]}
// 结果先在内存里累积，Close 时一次性写出
type JSONSink struct {
	file *os.File
	doc  jsonDoc
}

type jsonDoc struct {
	Channels     []jsonChannel     `json:"channels"`
	Changepoints []jsonChangepoint `json:"changepoints"`
}

type jsonChannel struct {
	Label   string       `json:"label"`
	Slot    int          `json:"slot"`
	Unit    string       `json:"unit"`
	Model   string       `json:"model"`
	Stats   ChannelStats `json:"stats"`
	Samples []float64    `json:"samples"`
}

type jsonChangepoint struct {
	Channel  string               `json:"channel"`
	Segments []ChangepointSegment `json:"segments"`
}

// NewJSONSink 创建 JSON 导出器
func NewJSONSink(filename string) (*JSONSink, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, errors.Wrap(err, "creating json file")
	}
	return &JSONSink{
		file: f,
		doc: jsonDoc{
			Channels:     []jsonChannel{},
			Changepoints: []jsonChangepoint{},
		},
	}, nil
}

func (s *JSONSink) WriteRecording(rec *Recording) error {
	for _, ch := range rec.Channels {
		s.doc.Channels = append(s.doc.Channels, jsonChannel{
			Label:   ch.Label(),
			Slot:    ch.Slot,
			Unit:    ch.Unit.String(),
			Model:   ch.Model,
			Stats:   Summarize(ch.Samples),
			Samples: ch.Samples,
		})
	}
	return nil
}

func (s *JSONSink) WriteChangepoints(channel string, segments []ChangepointSegment) error {
	s.doc.Changepoints = append(s.doc.Changepoints, jsonChangepoint{
		Channel:  channel,
		Segments: segments,
	})
	return nil
}

func (s *JSONSink) Close() error {
	enc := json.NewEncoder(s.file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&s.doc); err != nil {
		s.file.Close()
		return errors.Wrap(err, "encoding json document")
	}
	return s.file.Close()
}

// NoOpSink 空实现，不导出任何东西时使用
// 避免在流程代码里到处写 nil check
type NoOpSink struct{}

func (NoOpSink) WriteRecording(rec *Recording) error { return nil }
func (NoOpSink) WriteChangepoints(channel string, segments []ChangepointSegment) error {
	return nil
}
func (NoOpSink) Close() error { return nil }
