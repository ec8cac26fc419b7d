package sim

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// RandomSource 标准正态随机数源，由调用方显式持有并传入，包内不存在全局随机状态.
type RandomSource interface {
	NormFloat64() float64
}

type normalSource struct {
	dist distuv.Normal
}

func (s *normalSource) NormFloat64() float64 {
	return s.dist.Rand()
}

// NewSource 基于 PCG 生成器创建确定性标准正态源.
func NewSource(seed uint64) RandomSource {
	return &normalSource{
		dist: distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)},
	}
}

// SubStream 为第 index 条路径派生独立子流，同一 (seed, index) 总得到相同序列.
func SubStream(seed uint64, index int) RandomSource {
	return NewSource(mixSeed(seed + uint64(index)*0x9e3779b97f4a7c15))
}

// mixSeed splitmix64 终结函数，打散相邻种子.
func mixSeed(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
