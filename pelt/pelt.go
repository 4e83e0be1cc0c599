// Package pelt 实现 PELT (Pruned Exact Linear Time) 变点搜索
//
// 给定信号和惩罚值，返回候选分割点的升序序列 (末尾恒为 len(signal))。
// 惩罚越高，分割点越少
package pelt

import (
	"math"
	"sort"
)

// Model 分段代价模型
type Model string

const (
	// ModelL1 绝对偏差和 (对离群值鲁棒): cost = Σ|x - median|
	ModelL1 Model = "l1"
	// ModelL2 平方偏差和: cost = Σ(x - mean)²
	ModelL2 Model = "l2"
)

// Search 在 signal 上执行 PELT 搜索
//
// jump: 候选分割点的步长 (只在 jump 的整数倍位置尝试分割)，
// 控制搜索粒度而不是输入长度
// minSize: 最小分段长度，短于它的分段不会产生
// penalty: 每引入一个分割点的代价
//
// 递推:
//
//	F(t) = min_{s} [ F(s) + cost(s, t) + penalty ]
//
// 每一步剪掉永远不可能成为最优前驱的候选 s，
// 保证搜索复杂度近似线性
func Search(signal []float64, model Model, jump, minSize int, penalty float64) []int {
	n := len(signal)
	if jump < 1 {
		jump = 1
	}
	if minSize < 1 {
		minSize = 1
	}
	if n == 0 {
		return []int{0}
	}
	if n < minSize {
		// 连一个完整分段都放不下，整体作为唯一分段返回
		return []int{n}
	}

	segCost := costFunc(model, signal)

	// 候选终点：[minSize, n-minSize] 内 jump 的整数倍，加上 n 本身
	var ends []int
	start := ((minSize + jump - 1) / jump) * jump
	for t := start; t <= n-minSize; t += jump {
		ends = append(ends, t)
	}
	ends = append(ends, n)

	F := make(map[int]float64, len(ends)+1)
	prev := make(map[int]int, len(ends))
	F[0] = -penalty
	cands := []int{0}

	for _, t := range ends {
		bestVal := math.Inf(1)
		bestS := -1
		for _, s := range cands {
			if t-s < minSize {
				continue
			}
			v := F[s] + segCost(s, t) + penalty
			if v < bestVal {
				bestVal = v
				bestS = s
			}
		}
		if bestS < 0 {
			// 此刻还没有可行前驱，留给后面的终点
			continue
		}
		F[t] = bestVal
		prev[t] = bestS

		// 剪枝：F(s) + cost(s,t) 已超过 F(t) 的 s 永远不会再被选中
		kept := make([]int, 0, len(cands)+1)
		for _, s := range cands {
			if t-s < minSize || F[s]+segCost(s, t) <= bestVal {
				kept = append(kept, s)
			}
		}
		cands = append(kept, t)
	}

	// 从 n 回溯出分割点序列
	var bkps []int
	for t := n; t > 0; {
		bkps = append(bkps, t)
		p, ok := prev[t]
		if !ok {
			break
		}
		t = p
	}
	for i, j := 0, len(bkps)-1; i < j; i, j = i+1, j-1 {
		bkps[i], bkps[j] = bkps[j], bkps[i]
	}
	return bkps
}

func costFunc(model Model, x []float64) func(a, b int) float64 {
	if model == ModelL2 {
		// 前缀和，使单段代价 O(1)
		// cost = Σx² - (Σx)²/n
		s1 := make([]float64, len(x)+1)
		s2 := make([]float64, len(x)+1)
		for i, v := range x {
			s1[i+1] = s1[i] + v
			s2[i+1] = s2[i] + v*v
		}
		return func(a, b int) float64 {
			n := float64(b - a)
			sum := s1[b] - s1[a]
			return s2[b] - s2[a] - sum*sum/n
		}
	}

	// L1: 每段排序取中位数
	return func(a, b int) float64 {
		seg := append([]float64(nil), x[a:b]...)
		sort.Float64s(seg)
		med := seg[len(seg)/2]
		if len(seg)%2 == 0 {
			med = (seg[len(seg)/2-1] + seg[len(seg)/2]) / 2
		}
		cost := 0.0
		for _, v := range seg {
			cost += math.Abs(v - med)
		}
		return cost
	}
}
