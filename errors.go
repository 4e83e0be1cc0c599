package palog

import "github.com/pkg/errors"

// 错误分类
// 解码器和分析器的所有失败模式都归约到这几个哨兵错误上，
// 调用方用 errors.Is 判断类别，不依赖错误文本
var (
	// ErrMalformedHeader 头部结构损坏：找不到结束标签、缺少必要字段等
	ErrMalformedHeader = errors.New("malformed header")

	// ErrCorruptHeader 头部内容非法：通道槽位编号超出 [1,4]
	ErrCorruptHeader = errors.New("corrupt header")

	// ErrTruncatedPayload 负载不足一个完整采样
	ErrTruncatedPayload = errors.New("truncated payload")

	// ErrInvalidWindow 平滑窗口非法 (w <= 0 或空输入)
	ErrInvalidWindow = errors.New("invalid smoothing window")

	// ErrDegenerateSignal 信号全为零，无法归一化
	ErrDegenerateSignal = errors.New("degenerate signal")

	// ErrInsufficientSamples 信号长度不足最小分段长度
	// 注意：这不是对外失败模式，短信号返回空分段列表
	ErrInsufficientSamples = errors.New("insufficient samples")
)
