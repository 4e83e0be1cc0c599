package palog

import "fmt"

// Unit 表示一条逻辑通道测量的物理量
// 用封闭枚举代替字符串键，避免键名拼写错误
type Unit int

const (
	UnitVoltage Unit = iota
	UnitCurrent
	UnitPower
)

// Symbol 返回通道标签用的短符号 (U/I/P)
func (u Unit) Symbol() string {
	switch u {
	case UnitVoltage:
		return "U"
	case UnitCurrent:
		return "I"
	case UnitPower:
		return "P"
	}
	return "?"
}

// Dimension 返回物理单位符号 (V/A/W)
func (u Unit) Dimension() string {
	switch u {
	case UnitVoltage:
		return "V"
	case UnitCurrent:
		return "A"
	case UnitPower:
		return "W"
	}
	return "?"
}

func (u Unit) String() string {
	switch u {
	case UnitVoltage:
		return "Voltage"
	case UnitCurrent:
		return "Current"
	case UnitPower:
		return "Power"
	}
	return "Unknown"
}

// LogicalChannel 一条逻辑通道：某个物理槽位上的电压或电流读数流
// 创建后槽位和单位不再变化，采样序列只在解码时填充一次
type LogicalChannel struct {
	Slot    int    // 物理槽位 1..4
	Model   string // 传感器型号，例如 "PW9100"
	Unit    Unit   // 电压 / 电流 / 功率
	Samples []float64

	// minmax 模式下每个采样附带的最小/最大读数
	// 目前没有下游消费者，仅随主值一起解码保留
	MinValues []float64
	MaxValues []float64
}

// Label 返回通道的短标签，例如 "U1"、"I3"
func (c *LogicalChannel) Label() string {
	return fmt.Sprintf("%s%d", c.Unit.Symbol(), c.Slot)
}

// Recording 一次完整的记录：所有逻辑通道、时间轴和帧级元数据
// 解码时构建一次，之后只有 Skip/Limit 两个裁剪操作会修改它
type Recording struct {
	Channels        []*LogicalChannel
	SampleInterval  float64 // 采样间隔 (秒)
	PlannedDuration float64 // 头部声明的计划时长 (秒)
	ObservedDuration float64 // 实际解码出的时长 (秒)
	Timestamps      []float64
	MinMax          bool // 是否为 min/max 记录模式

	// Sanitized 解码时被替换为 0 的越界采样数量，只记录不报错
	Sanitized int

	// DurationDeviates 裁剪前的实际时长与计划时长不符 (四舍五入比较)
	// 仅用于诊断输出，不构成失败
	DurationDeviates bool
}

// SampleCount 当前 (可能已裁剪的) 采样数
func (r *Recording) SampleCount() int {
	return len(r.Timestamps)
}

// Skip 丢弃开头 seconds 秒的数据
// 若 seconds 超过实际时长则不做任何事
func (r *Recording) Skip(seconds float64) {
	if r.ObservedDuration < seconds {
		return
	}

	// 找到第一个 >= seconds 的时间戳，之前的采样全部丢弃
	idx := -1
	for i, ts := range r.Timestamps {
		if ts >= seconds {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return
	}

	r.Timestamps = r.Timestamps[idx:]
	for _, ch := range r.Channels {
		ch.Samples = ch.Samples[idx:]
		if r.MinMax {
			ch.MinValues = ch.MinValues[idx:]
			ch.MaxValues = ch.MaxValues[idx:]
		}
	}

	// 裁剪后时长按 间隔 × 剩余采样数 重新计算
	r.ObservedDuration = r.SampleInterval * float64(len(r.Timestamps))

	log.Debugw("skipped leading samples",
		"seconds", seconds,
		"dropped", idx,
		"remaining", len(r.Timestamps))
}

// Limit 只保留开头 seconds 秒的数据
// 若记录本来就不长于 seconds 则不做任何事
func (r *Recording) Limit(seconds float64) {
	if r.ObservedDuration <= seconds {
		return
	}

	// 找到第一个 > seconds 的时间戳，从它开始截断；
	// 找不到时退到最后一个下标
	idx := len(r.Timestamps) - 1
	for i, ts := range r.Timestamps {
		if ts > seconds {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return
	}

	dropped := len(r.Timestamps) - idx
	r.Timestamps = r.Timestamps[:idx]
	for _, ch := range r.Channels {
		ch.Samples = ch.Samples[:idx]
		if r.MinMax {
			ch.MinValues = ch.MinValues[:idx]
			ch.MaxValues = ch.MaxValues[:idx]
		}
	}

	// 截断后时长取新的最后一个时间戳，而不是 间隔 × 数量
	r.ObservedDuration = r.Timestamps[len(r.Timestamps)-1]

	log.Debugw("limited trailing samples",
		"seconds", seconds,
		"dropped", dropped,
		"remaining", len(r.Timestamps))
}

// generateTimestamps 生成 count 个从 0 到 duration (含) 等间距的时间戳
func generateTimestamps(count int, duration float64) []float64 {
	ts := make([]float64, count)
	if count < 2 {
		return ts
	}
	for i := range ts {
		ts[i] = duration * float64(i) / float64(count-1)
	}
	return ts
}
