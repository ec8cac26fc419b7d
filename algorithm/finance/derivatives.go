package finance

import (
	"context"
	"errors"
	"log/slog"
	"math"

	algomath "github.com/wyfcoding/lsmpricer/algorithm/math"
	"github.com/wyfcoding/lsmpricer/algorithm/sim"
	"github.com/wyfcoding/lsmpricer/algorithm/types"
	"github.com/wyfcoding/lsmpricer/xerrors"
)

// DefaultDegree 延续价值回归的默认多项式阶数.
const DefaultDegree = 2

// LSMPricer 实现了 Longstaff-Schwartz (LSM) 算法
type LSMPricer struct {
	logger        *slog.Logger
	degree        int // 回归多项式的阶数
	solver        algomath.Solver
	earlyExercise bool
	strict        bool
	diagnostics   bool
}

// Option 定义定价器配置选项.
type Option func(*LSMPricer)

// WithDegree 设置回归阶数，小于 0 时保持默认.
func WithDegree(degree int) Option {
	return func(p *LSMPricer) {
		if degree >= 0 {
			p.degree = degree
		}
	}
}

// WithSolver 设置最小二乘求解方式.
func WithSolver(s algomath.Solver) Option {
	return func(p *LSMPricer) {
		p.solver = s
	}
}

// WithoutEarlyExercise 关闭提前行权，退化为欧式定价.
func WithoutEarlyExercise() Option {
	return func(p *LSMPricer) {
		p.earlyExercise = false
	}
}

// WithStrictRegression 价内样本不足时返回 ErrRegressionDegenerate 而不是降阶.
func WithStrictRegression() Option {
	return func(p *LSMPricer) {
		p.strict = true
	}
}

// WithDiagnostics 在结果中保留完整的收益矩阵与价值矩阵.
func WithDiagnostics() Option {
	return func(p *LSMPricer) {
		p.diagnostics = true
	}
}

// WithLogger 注入日志器.
func WithLogger(logger *slog.Logger) Option {
	return func(p *LSMPricer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewLSMPricer(opts ...Option) *LSMPricer {
	p := &LSMPricer{
		degree:        DefaultDegree,
		solver:        algomath.SolverQR,
		earlyExercise: true,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// StepReport 单个时间步的回归与行权统计.
type StepReport struct {
	Step       int  `json:"step"`
	InTheMoney int  `json:"in_the_money"`
	Exercised  int  `json:"exercised"`
	Degree     int  `json:"degree"` // 实际使用的阶数，无价内路径时为 -1
	Fallback   bool `json:"fallback"`
}

// Result 定价结果.
type Result struct {
	Payoffs   *PayoffMatrix `json:"-"` // 仅 WithDiagnostics 时保留
	Values    *ValueMatrix  `json:"-"` // 仅 WithDiagnostics 时保留
	Steps     []StepReport  `json:"steps,omitempty"`
	Price     float64       `json:"price"`
	StdErr    float64       `json:"std_err"`
	Exercised int           `json:"exercised"`
	Fallbacks int           `json:"fallbacks"`
}

// Price 对给定路径集做反向归纳，返回美式期权现值.
//
// 对 t = N-1 .. 1 严格递减：仅用价内路径把 Y = V(t+1)·e^{-r dt} 对 S(t) 做多项式回归，
// 行权价值严格大于拟合的延续价值时记录行权价值，否则记录实际折现值 Y（拟合值只用于决策）.
// 价格为 V(·,1) 的均值再折现一步.
func (p *LSMPricer) Price(paths *sim.PathEnsemble, contract Contract) (*Result, error) {
	return p.PriceContext(context.Background(), paths, contract)
}

// PriceContext 与 Price 相同，每个时间步回归前检查 ctx.
func (p *LSMPricer) PriceContext(ctx context.Context, paths *sim.PathEnsemble, contract Contract) (*Result, error) {
	if err := contract.Validate(); err != nil {
		return nil, err
	}
	if err := contract.checkPaths(paths); err != nil {
		return nil, err
	}

	n := paths.Steps()
	df := math.Exp(-contract.Rate * contract.Dt)
	payoffs := newPayoffMatrix(paths, contract)

	values := &ValueMatrix{cols: make([][]float64, n+1)}
	values.cols[n] = payoffs.Column(n)

	res := &Result{Steps: make([]StepReport, 0, max(n-1, 0))}
	for t := n - 1; t >= 1; t-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var (
			col    []float64
			report StepReport
			err    error
		)
		if p.earlyExercise {
			col, report, err = p.resolveStep(t, paths.Column(t), payoffs.Column(t), values.cols[t+1], contract, df)
			if err != nil {
				return nil, err
			}
		} else {
			col, report = discountStep(t, values.cols[t+1], df)
		}
		values.cols[t] = col
		res.Steps = append(res.Steps, report)
		res.Exercised += report.Exercised
		if report.Fallback {
			res.Fallbacks++
		}
	}

	res.Price, res.StdErr = discountedMean(values.cols[1], df)
	if p.diagnostics {
		res.Payoffs = payoffs
		res.Values = values
	}

	return res, nil
}

// PriceParameters 先用 src 模拟路径再定价.
func (p *LSMPricer) PriceParameters(params sim.Parameters, optionType types.OptionType, src sim.RandomSource) (*Result, error) {
	contract := ContractFor(params, optionType)
	if err := contract.Validate(); err != nil {
		return nil, err
	}
	paths, err := sim.Simulate(params, src)
	if err != nil {
		return nil, err
	}
	return p.Price(paths, contract)
}

// EuropeanPrice 只使用价值矩阵的终值列并直接折现，不做提前行权决策.
func EuropeanPrice(paths *sim.PathEnsemble, contract Contract) (*Result, error) {
	return NewLSMPricer(WithoutEarlyExercise()).Price(paths, contract)
}

// resolveStep 由第 t+1 列生成第 t 列，next 不会被修改.
func (p *LSMPricer) resolveStep(t int, spots, exercise, next []float64, contract Contract, df float64) ([]float64, StepReport, error) {
	col, report := discountStep(t, next, df)

	var (
		idx []int
		x   []float64
		y   []float64
	)
	for i, s := range spots {
		if contract.Type.InTheMoney(s, contract.Strike) {
			idx = append(idx, i)
			x = append(x, s)
			y = append(y, col[i])
		}
	}
	report.InTheMoney = len(idx)
	if len(idx) == 0 {
		return col, report, nil
	}

	poly, fallback, err := p.fit(x, y, contract.Strike)
	if err != nil {
		return nil, report, err
	}
	report.Degree = poly.Degree()
	report.Fallback = fallback
	if fallback {
		p.logger.Debug("regression degree reduced", "step", t, "itm", len(idx), "degree", report.Degree)
	}

	for k, i := range idx {
		if exercise[i] > poly.Eval(x[k]) {
			col[i] = exercise[i]
			report.Exercised++
		}
	}

	return col, report, nil
}

// fit 按降阶策略拟合延续价值：有效阶数为 min(degree, 不同点数-1)，
// 求解器报告秩亏时再降一阶，0 阶即价内子集 Y 的均值.
func (p *LSMPricer) fit(x, y []float64, scale float64) (*algomath.Polynomial, bool, error) {
	degree := min(p.degree, algomath.DistinctCount(x, p.degree+1)-1)
	fallback := degree < p.degree
	if fallback && p.strict {
		return nil, true, xerrors.ErrRegressionDegenerate.Derive("%d in-the-money points, degree %d", len(x), p.degree)
	}

	for ; degree >= 0; degree-- {
		poly, err := algomath.FitPolynomial(x, y, degree, scale, p.solver)
		if err == nil {
			if finitePoly(poly, x) {
				return poly, fallback, nil
			}
			err = xerrors.ErrSingularMatrix.Derive("non-finite continuation estimate at degree %d", degree)
		}
		if !errors.Is(err, xerrors.ErrSingularMatrix) && !errors.Is(err, xerrors.ErrRegressionDegenerate) {
			return nil, fallback, err
		}
		if p.strict {
			return nil, true, xerrors.ErrRegressionDegenerate.DeriveWithCause(err, "degree %d", degree)
		}
		fallback = true
	}

	return nil, true, xerrors.ErrRegressionDegenerate.Derive("no usable fit for %d points", len(x))
}

func finitePoly(poly *algomath.Polynomial, x []float64) bool {
	for _, v := range x {
		e := poly.Eval(v)
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return false
		}
	}
	return true
}

// discountStep 把 next 整列折现一步，得到一个新切片.
func discountStep(t int, next []float64, df float64) ([]float64, StepReport) {
	col := make([]float64, len(next))
	for i, v := range next {
		col[i] = v * df
	}
	return col, StepReport{Step: t, Degree: -1}
}

func discountedMean(col []float64, df float64) (price, stdErr float64) {
	mean, std := algomath.MeanStdDev(col, false)
	return mean * df, std / math.Sqrt(float64(len(col))) * df
}
