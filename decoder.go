package palog

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// 绝对值超过该上限的采样视为仪器输出的坏值，替换为 0
// 恰好等于上限的值保留不动
const sanitizeLimit = 1e6

// DecodeRecording 从流中解码一份完整的记录 (头部 + 二进制负载)
// 整个文件一次性读入，解码完成前不开始任何分析
func DecodeRecording(r io.Reader) (*Recording, error) {
	br := bufio.NewReader(r)

	hdr, err := ParseHeader(br)
	if err != nil {
		return nil, err
	}

	payload, err := io.ReadAll(br)
	if err != nil {
		return nil, errors.Wrap(err, "reading payload")
	}

	return DecodePayload(hdr, payload)
}

// DecodePayload 按头部元数据解释二进制负载
//
// 负载是大端 IEEE-754 float32 流，按采样为主序排列；
// 每个采样内按逻辑通道顺序排列，minmax 模式下每条通道
// 连续占 3 个 float (主值/最小/最大)，否则占 1 个。
// 结尾不足一个完整采样的字节静默丢弃。
func DecodePayload(hdr *Header, payload []byte) (*Recording, error) {
	for _, desc := range hdr.Channels {
		if desc.ID < 1 || desc.ID > 4 {
			return nil, errors.Wrapf(ErrCorruptHeader, "channel slot %d outside [1,4]", desc.ID)
		}
	}

	channels := hdr.LogicalChannels()
	if len(channels) == 0 {
		return nil, errors.Wrap(ErrMalformedHeader, "no sense flag enabled on any channel")
	}

	// 每个采样占 slotWidth 个 float32
	perChannel := 1
	if hdr.MinMax {
		perChannel = 3
	}
	slotWidth := len(channels) * perChannel

	sampleCount := len(payload) / (4 * slotWidth)
	if sampleCount == 0 {
		return nil, errors.Wrapf(ErrTruncatedPayload,
			"payload holds %d bytes, one sample needs %d", len(payload), 4*slotWidth)
	}

	for _, ch := range channels {
		ch.Samples = make([]float64, sampleCount)
		if hdr.MinMax {
			ch.MinValues = make([]float64, sampleCount)
			ch.MaxValues = make([]float64, sampleCount)
		}
	}

	sanitized := 0
	off := 0
	for s := 0; s < sampleCount; s++ {
		for _, ch := range channels {
			v := float64(math.Float32frombits(binary.BigEndian.Uint32(payload[off:])))
			off += 4
			if math.Abs(v) > sanitizeLimit {
				v = 0
				sanitized++
			}
			ch.Samples[s] = v

			if hdr.MinMax {
				ch.MinValues[s] = float64(math.Float32frombits(binary.BigEndian.Uint32(payload[off:])))
				off += 4
				ch.MaxValues[s] = float64(math.Float32frombits(binary.BigEndian.Uint32(payload[off:])))
				off += 4
			}
		}
	}

	observed := hdr.SampleInterval * float64(sampleCount)

	rec := &Recording{
		Channels:         channels,
		SampleInterval:   hdr.SampleInterval,
		PlannedDuration:  float64(hdr.PlannedDuration),
		ObservedDuration: observed,
		Timestamps:       generateTimestamps(sampleCount, observed),
		MinMax:           hdr.MinMax,
		Sanitized:        sanitized,
		DurationDeviates: math.Round(observed) != float64(hdr.PlannedDuration),
	}

	if sanitized > 0 {
		log.Warnw("replaced out-of-range samples with zero",
			"count", sanitized,
			"limit", sanitizeLimit)
	}
	if rec.DurationDeviates {
		log.Infow("observed duration deviates from planned duration",
			"observed", observed,
			"planned", hdr.PlannedDuration)
	}
	log.Debugw("decoded recording",
		"channels", len(channels),
		"samples", sampleCount,
		"interval", hdr.SampleInterval,
		"minmax", hdr.MinMax)

	return rec, nil
}
