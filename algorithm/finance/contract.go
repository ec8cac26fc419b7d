package finance

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/wyfcoding/lsmpricer/algorithm/sim"
	"github.com/wyfcoding/lsmpricer/algorithm/types"
	"github.com/wyfcoding/lsmpricer/xerrors"
)

// dtTolerance 路径步长与合约步长允许的相对误差.
const dtTolerance = 1e-9

// Contract 美式期权合约参数
type Contract struct {
	Type     types.OptionType
	Strike   float64
	Rate     float64
	Dt       float64
	Maturity float64 // 可选，大于 0 时要求 Maturity/Dt 与路径步数一致
}

// ContractFor 由模拟参数构造与路径集匹配的合约.
func ContractFor(params sim.Parameters, optionType types.OptionType) Contract {
	return Contract{
		Type:     optionType,
		Strike:   params.Strike,
		Rate:     params.Rate,
		Dt:       params.Dt(),
		Maturity: params.T,
	}
}

// Validate 校验合约参数.
func (c Contract) Validate() error {
	switch {
	case !c.Type.Valid():
		return xerrors.ErrInvalidContract.DeriveWithCause(xerrors.ErrInvalidOptionType, "option type %q", c.Type)
	case !finite(c.Strike) || c.Strike <= 0:
		return xerrors.ErrInvalidContract.Derive("strike must be positive, got %g", c.Strike)
	case !finite(c.Dt) || c.Dt <= 0:
		return xerrors.ErrInvalidContract.Derive("dt must be positive, got %g", c.Dt)
	case !finite(c.Rate):
		return xerrors.ErrInvalidContract.Derive("rate must be finite, got %g", c.Rate)
	case !finite(c.Maturity) || c.Maturity < 0:
		return xerrors.ErrInvalidContract.Derive("maturity must be non-negative, got %g", c.Maturity)
	}
	return nil
}

// checkPaths 校验路径集形状与合约隐含的时间步一致.
func (c Contract) checkPaths(paths *sim.PathEnsemble) error {
	if paths == nil || paths.Paths() < 1 {
		return xerrors.ErrInvalidPathData.Derive("path ensemble is empty")
	}
	if paths.Steps() < 1 {
		return xerrors.ErrInvalidPathData.Derive("path ensemble has no time steps")
	}
	if math.Abs(paths.Dt()-c.Dt) > dtTolerance*math.Max(1, c.Dt) {
		return xerrors.ErrInvalidPathData.Derive("paths simulated with dt=%g, contract dt=%g", paths.Dt(), c.Dt)
	}
	if c.Maturity > 0 {
		want := int(math.Round(c.Maturity / c.Dt))
		if want != paths.Steps() {
			return xerrors.ErrInvalidPathData.Derive("contract implies %d steps, paths have %d", want, paths.Steps())
		}
	}
	return nil
}

// PayoffMatrix 与路径集同形的立即行权收益矩阵.
type PayoffMatrix struct {
	data *mat.Dense
}

func newPayoffMatrix(paths *sim.PathEnsemble, c Contract) *PayoffMatrix {
	m, cols := paths.Paths(), paths.Steps()+1
	data := mat.NewDense(m, cols, nil)
	data.Apply(func(i, t int, _ float64) float64 {
		return c.Type.Payoff(paths.At(i, t), c.Strike)
	}, data)
	return &PayoffMatrix{data: data}
}

// At 返回路径 i 在时间索引 t 的行权收益.
func (p *PayoffMatrix) At(i, t int) float64 {
	return p.data.At(i, t)
}

// Column 返回时间索引 t 的收益副本.
func (p *PayoffMatrix) Column(t int) []float64 {
	return mat.Col(nil, t, p.data)
}

// ValueMatrix 反向归纳得到的期权价值，按列从右向左逐列生成.
// 第 0 列从不计算.
type ValueMatrix struct {
	cols [][]float64
}

// Steps 时间步数 N.
func (v *ValueMatrix) Steps() int {
	return len(v.cols) - 1
}

// Column 返回时间索引 t 的价值副本，尚未计算的列返回 ErrInvalidPathData.
func (v *ValueMatrix) Column(t int) ([]float64, error) {
	if t < 0 || t >= len(v.cols) || v.cols[t] == nil {
		return nil, xerrors.ErrInvalidPathData.Derive("value column %d is not resolved", t)
	}
	return append([]float64(nil), v.cols[t]...), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
