package math

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MeanStdDev 计算均值与标准差. population 为 true 时除以 n，否则除以 n-1.
// 先按最大绝对值缩放到 [-1, 1] 再求和，数值接近 MaxFloat64 时平方和不会溢出.
// 少于两个样本时标准差为 0；空切片返回 NaN.
func MeanStdDev(x []float64, population bool) (mean, std float64) {
	if len(x) == 0 {
		return math.NaN(), math.NaN()
	}

	scale := floats.Norm(x, math.Inf(1))
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1
	}
	u := make([]float64, len(x))
	for i, v := range x {
		u[i] = v / scale
	}

	if population {
		mean, std = stat.PopMeanStdDev(u, nil)
	} else {
		mean, std = stat.MeanStdDev(u, nil)
	}
	if len(x) < 2 {
		std = 0
	}
	return mean * scale, std * scale
}
