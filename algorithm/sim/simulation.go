// Package sim 提供风险中性几何布朗运动路径模拟及基于路径的欧式蒙特卡洛定价.
package sim

import (
	"context"
	"math"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	algomath "github.com/wyfcoding/lsmpricer/algorithm/math"
	"github.com/wyfcoding/lsmpricer/algorithm/types"
	"github.com/wyfcoding/lsmpricer/xerrors"
)

// Simulate 使用对数欧拉精确离散生成 GBM 路径.
// 每个时间步按路径顺序 0..M-1 从 src 抽取 M 个新的标准正态数，抽取顺序固定，
// 因此相同种子的源总是得到逐位相同的结果.
func Simulate(params Parameters, src RandomSource) (*PathEnsemble, error) {
	return SimulateContext(context.Background(), params, src)
}

// SimulateContext 与 Simulate 相同，每个时间步开始前检查 ctx，取消后返回 ctx.Err().
func SimulateContext(ctx context.Context, params Parameters, src RandomSource) (*PathEnsemble, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, xerrors.ErrInvalidParameter.Derive("random source is nil")
	}

	m, cols := params.Paths, params.Steps+1
	drift, vol := params.increments()

	data := make([]float64, m*cols)
	for i := range m {
		data[i*cols] = params.S0
	}

	for t := 1; t < cols; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range m {
			row := i * cols
			data[row+t] = advance(data[row+t-1], drift, vol, src.NormFloat64())
		}
	}

	return &PathEnsemble{data: mat.NewDense(m, cols, data), dt: params.Dt()}, nil
}

// SimulateParallel 按路径并行模拟，第 i 条路径使用 SubStream(seed, i) 子流，
// 结果与 workers 数量无关. 与 Simulate 的抽取顺序不同，两者结果不相等.
func SimulateParallel(ctx context.Context, params Parameters, seed uint64, workers int) (*PathEnsemble, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	m, cols := params.Paths, params.Steps+1
	drift, vol := params.increments()
	data := make([]float64, m*cols)

	chunk := (m + workers*4 - 1) / (workers * 4)
	p := pool.New().WithContext(ctx).WithMaxGoroutines(workers).WithCancelOnError()
	for start := 0; start < m; start += chunk {
		end := min(start+chunk, m)
		p.Go(func(ctx context.Context) error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				src := SubStream(seed, i)
				row := data[i*cols : (i+1)*cols]
				row[0] = params.S0
				for t := 1; t < cols; t++ {
					row[t] = advance(row[t-1], drift, vol, src.NormFloat64())
				}
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	return &PathEnsemble{data: mat.NewDense(m, cols, data), dt: params.Dt()}, nil
}

// advance 推进一步并把结果钳制到非负有限区间.
func advance(prev, drift, vol, z float64) float64 {
	next := prev * math.Exp(drift+vol*z)
	switch {
	case math.IsNaN(next) || next < 0:
		return 0
	case math.IsInf(next, 1):
		return math.MaxFloat64
	}
	return next
}

// EuropeanEstimate 欧式期权蒙特卡洛估计.
type EuropeanEstimate struct {
	Price  float64
	StdErr float64
}

// EuropeanMonteCarlo 对终值收益取平均并按整个期限折现.
func EuropeanMonteCarlo(paths *PathEnsemble, optionType types.OptionType, strike, rate float64) (EuropeanEstimate, error) {
	if paths == nil || paths.Paths() == 0 {
		return EuropeanEstimate{}, xerrors.ErrInvalidPathData.Derive("empty path ensemble")
	}
	if !optionType.Valid() {
		return EuropeanEstimate{}, xerrors.ErrInvalidOptionType.Derive("got %q", optionType)
	}
	if !finite(strike) || strike <= 0 {
		return EuropeanEstimate{}, xerrors.ErrInvalidContract.Derive("strike must be positive, got %g", strike)
	}

	terminal := paths.Terminal()
	payoffs := make([]float64, len(terminal))
	for i, s := range terminal {
		payoffs[i] = optionType.Payoff(s, strike)
	}

	discount := math.Exp(-rate * paths.Dt() * float64(paths.Steps()))
	mean, std := algomath.MeanStdDev(payoffs, false)

	return EuropeanEstimate{
		Price:  mean * discount,
		StdErr: std / math.Sqrt(float64(len(payoffs))) * discount,
	}, nil
}

// Statistics 终值价格统计.
type Statistics struct {
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stddev"`
}

// TerminalStatistics 计算到期价格的均值、极值与标准差.
func TerminalStatistics(paths *PathEnsemble) (Statistics, error) {
	if paths == nil || paths.Paths() == 0 {
		return Statistics{}, xerrors.ErrEmptyData
	}

	terminal := paths.Terminal()
	mean, std := algomath.MeanStdDev(terminal, true)

	return Statistics{
		Mean:   mean,
		Min:    floats.Min(terminal),
		Max:    floats.Max(terminal),
		StdDev: std,
	}, nil
}
