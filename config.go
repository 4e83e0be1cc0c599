package palog

import "runtime"

// Config 结构体用于集中管理解码和分析的所有可调参数
type Config struct {
	// --- 解码 (Decoder) ---
	// 负责把文件负载还原为各通道的时间序列
	Decode struct {
		SkipSeconds  float64 // 跳过开头多少秒的数据 (0 = 不跳过)。超过记录总时长时不生效
		LimitSeconds float64 // 只保留开头多少秒的数据 (0 = 不限制)。短于记录总时长时才生效
	}

	// --- 平滑 (Smoother) ---
	// 显示和变点检测共用的预滤波
	Smooth struct {
		Window int // 滑动平均窗口宽度 (采样点数)。例如 100，对应 0.1s @ 1kHz
	}

	// --- 变点检测 (Changepoint) ---
	// 负责在通道信号中定位结构性变化
	Changepoint struct {
		Enabled        bool   // 是否执行变点检测
		Channel        string // 只分析指定标签的通道 (例如 "U1")。空串 = 分析所有有数据的通道
		NumSamples     int    // 目标采样预算。决定搜索引擎的内部步长 stride = len(signal) / NumSamples
		MinSegmentSize int    // 最小分段长度 (采样点数)。短于此长度的信号直接返回空结果
		PenaltySweep   int    // 惩罚参数扫描范围 [0, PenaltySweep)。每个整数惩罚调用一次搜索
		Workers        int    // 扫描使用的工作协程数
	}
}

// DefaultConfig 返回一份可直接使用的默认配置
func DefaultConfig() *Config {
	cfg := &Config{}

	// --- 解码 ---
	cfg.Decode.SkipSeconds = 0
	cfg.Decode.LimitSeconds = 0

	// --- 平滑 ---
	cfg.Smooth.Window = 100

	// --- 变点检测 ---
	cfg.Changepoint.Enabled = true
	cfg.Changepoint.Channel = ""
	cfg.Changepoint.NumSamples = 1000
	cfg.Changepoint.MinSegmentSize = 500
	cfg.Changepoint.PenaltySweep = 100
	cfg.Changepoint.Workers = runtime.NumCPU()

	return cfg
}
