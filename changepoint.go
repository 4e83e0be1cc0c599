package palog

import (
	"math"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"palog/pelt"
)

// ChangepointSegment 两个相邻分割点之间的一段，带时间范围和段内均值
type ChangepointSegment struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	MeanValue float64 `json:"mean_value"`
}

// SearchFunc 分割点搜索能力的接口
// 返回升序分割点序列，末尾恒为 len(signal)
// 默认绑定 pelt.Search，测试时可以用固定曲线替换
type SearchFunc func(signal []float64, jump, minSize int, penalty float64) []int

// Detector 变点检测器：归一化信号、扫描惩罚参数、
// 选出最稳定的分割点集并物化成分段
type Detector struct {
	cfg    *Config
	search SearchFunc
}

// NewDetector 创建检测器，搜索能力绑定到 PELT (L1 代价模型)
func NewDetector(cfg *Config) *Detector {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Detector{
		cfg: cfg,
		search: func(signal []float64, jump, minSize int, penalty float64) []int {
			return pelt.Search(signal, pelt.ModelL1, jump, minSize, penalty)
		},
	}
}

// Detect 在 (已平滑的) 信号上执行完整的变点选择流程
//
// 1. 归一化: signal / max|signal| * 25，全零信号报 ErrDegenerateSignal
// 2. 惩罚扫描: p = 0..PenaltySweep-1 各跑一次搜索，记录分割点数量
// 3. 平台扫描: 找分割点数量相同的最长连续惩罚区间
// 4. 取平台起点作为选中的惩罚值，物化分段
//
// 信号短于最小分段长度时没有任何分割点可言，
// 返回空分段列表而不是错误
func (d *Detector) Detect(signal, timestamps []float64) ([]ChangepointSegment, error) {
	minSize := d.cfg.Changepoint.MinSegmentSize
	if len(signal) < minSize {
		log.Debugw("signal shorter than minimum segment size, no changepoints possible",
			"samples", len(signal),
			"minSegmentSize", minSize)
		return []ChangepointSegment{}, nil
	}

	norm, err := normalize(signal)
	if err != nil {
		return nil, err
	}

	// stride 交给搜索引擎作为内部步长，信号本身不抽稀
	stride := len(signal) / d.cfg.Changepoint.NumSamples
	if stride < 1 {
		stride = 1
	}

	counts, results := d.sweep(norm, stride, minSize)

	penalty := selectPenalty(counts)
	bkps := results[penalty]

	log.Debugw("penalty sweep finished",
		"selected", penalty,
		"breakpoints", len(bkps),
		"stride", stride)

	return materialize(signal, timestamps, bkps), nil
}

// normalize 把信号缩放到 ±25 的范围
func normalize(signal []float64) ([]float64, error) {
	maxAbs := floats.Norm(signal, math.Inf(1))
	if maxAbs == 0 {
		return nil, errors.Wrap(ErrDegenerateSignal, "signal is uniformly zero")
	}
	norm := make([]float64, len(signal))
	for i, v := range signal {
		norm[i] = v / maxAbs * 25
	}
	return norm, nil
}

// sweep 对每个整数惩罚值各执行一次独立的搜索
// 100 次调用互不依赖，丢进有界协程池并行跑；
// 结果按惩罚值下标落位，与完成顺序无关
func (d *Detector) sweep(norm []float64, stride, minSize int) ([]int, [][]int) {
	n := d.cfg.Changepoint.PenaltySweep
	counts := make([]int, n)
	results := make([][]int, n)

	run := func(p int) {
		r := d.search(norm, stride, minSize, float64(p))
		results[p] = r
		counts[p] = len(r)
	}

	pool, err := ants.NewPool(d.cfg.Changepoint.Workers)
	if err != nil {
		// 池子建不起来就退化为串行，结果不受影响
		log.Warnw("falling back to serial penalty sweep", "error", err)
		for p := 0; p < n; p++ {
			run(p)
		}
		return counts, results
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for p := 0; p < n; p++ {
		p := p
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			run(p)
		}); err != nil {
			run(p)
			wg.Done()
		}
	}
	wg.Wait()

	return counts, results
}

// selectPenalty 在分割点数量曲线上找最长的平台
// (连续且数量相同的惩罚区间)，返回平台的起始下标
//
// 注意：沿用原始行为取平台起点。居中取法的偏移运算
// 在代数上塌缩成了起点，这里保持观测到的结果不做"修正"
func selectPenalty(counts []int) int {
	if len(counts) == 0 {
		return 0
	}
	bestStart, bestLen := 0, 0
	runStart := 0
	for p := 1; p <= len(counts); p++ {
		if p == len(counts) || counts[p] != counts[runStart] {
			// 等长平台保留先出现的那个
			if p-runStart > bestLen {
				bestLen = p - runStart
				bestStart = runStart
			}
			runStart = p
		}
	}
	return bestStart
}

// materialize 把分割点序列转成带时间和均值的分段
// 遍历相邻分割点对 (prev=0, cp)，直到消费掉末尾的 len(signal)
func materialize(signal, timestamps []float64, bkps []int) []ChangepointSegment {
	segments := make([]ChangepointSegment, 0, len(bkps))
	prev := 0
	for _, cp := range bkps {
		if cp <= prev || cp > len(signal) {
			continue
		}
		end := cp - 1
		mean := 0.0
		if end > prev {
			mean = stat.Mean(signal[prev:end], nil)
		} else {
			mean = signal[prev]
		}
		segments = append(segments, ChangepointSegment{
			StartTime: timestamps[prev],
			EndTime:   timestamps[end],
			MeanValue: mean,
		})
		prev = cp
	}
	return segments
}
