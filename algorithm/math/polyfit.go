package math

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/wyfcoding/lsmpricer/xerrors"
)

// Solver 最小二乘求解方式.
type Solver int

const (
	// SolverQR 通过 QR 分解直接求解超定系统.
	SolverQR Solver = iota
	// SolverCholesky 通过正规方程 AᵀA c = Aᵀy 与 Cholesky 分解求解.
	SolverCholesky
)

func (s Solver) String() string {
	switch s {
	case SolverQR:
		return "qr"
	case SolverCholesky:
		return "cholesky"
	default:
		return fmt.Sprintf("solver(%d)", int(s))
	}
}

// ParseSolver 从配置字符串解析求解方式，空串默认 QR.
func ParseSolver(s string) (Solver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "qr":
		return SolverQR, nil
	case "cholesky", "normal":
		return SolverCholesky, nil
	default:
		return SolverQR, xerrors.ErrInvalidInput.Derive("unknown solver %q", s)
	}
}

// Polynomial 以 u = x/Scale 为自变量的多项式，Coeffs[d] 对应 u^d.
type Polynomial struct {
	Coeffs []float64
	Scale  float64
}

// Degree 返回多项式阶数.
func (p *Polynomial) Degree() int {
	return len(p.Coeffs) - 1
}

// Eval 在 x 处求值 (Horner).
func (p *Polynomial) Eval(x float64) float64 {
	u := x / p.Scale
	var v float64
	for d := len(p.Coeffs) - 1; d >= 0; d-- {
		v = v*u + p.Coeffs[d]
	}
	return v
}

// FitPolynomial 对 (x, y) 做 degree 阶多项式最小二乘拟合.
// scale 用于把 x 缩放到 1 附近以改善条件数，拟合值与未缩放时相同；scale <= 0 视为 1.
// 不同 x 取值少于 degree+1 时返回 ErrRegressionDegenerate，系统秩亏时返回 ErrSingularMatrix.
func FitPolynomial(x, y []float64, degree int, scale float64, solver Solver) (*Polynomial, error) {
	if len(x) != len(y) {
		return nil, xerrors.ErrDimMismatch.Derive("len(x)=%d, len(y)=%d", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, xerrors.ErrEmptyData
	}
	if degree < 0 {
		return nil, xerrors.ErrInvalidInput.Derive("negative degree %d", degree)
	}
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1
	}

	if degree == 0 {
		m, _ := MeanStdDev(y, true)
		return &Polynomial{Coeffs: []float64{m}, Scale: scale}, nil
	}
	if DistinctCount(x, degree+1) < degree+1 {
		return nil, xerrors.ErrRegressionDegenerate.Derive("need %d distinct points for degree %d", degree+1, degree)
	}

	design := vandermonde(x, degree, scale)

	var (
		coeffs []float64
		err    error
	)
	switch solver {
	case SolverCholesky:
		coeffs, err = solveNormal(design, y)
	default:
		coeffs, err = solveQR(design, y)
	}
	if err != nil {
		return nil, err
	}

	for _, c := range coeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, xerrors.ErrSingularMatrix.Derive("non-finite coefficient from %s solver", solver)
		}
	}

	return &Polynomial{Coeffs: coeffs, Scale: scale}, nil
}

// vandermonde 构造 [1, u, u², ...] 设计矩阵.
func vandermonde(x []float64, degree int, scale float64) *Matrix {
	cols := degree + 1
	a := NewMatrix(len(x), cols)
	for i, xi := range x {
		u := xi / scale
		p := 1.0
		for j := range cols {
			a.Data[i*cols+j] = p
			p *= u
		}
	}
	return a
}

func solveQR(design *Matrix, y []float64) ([]float64, error) {
	a := mat.NewDense(design.Rows, design.Cols, design.Data)
	b := mat.NewVecDense(len(y), append([]float64(nil), y...))

	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		return nil, xerrors.ErrSingularMatrix.DeriveWithCause(err, "qr solve on %dx%d system", design.Rows, design.Cols)
	}
	return append([]float64(nil), c.RawVector().Data...), nil
}

func solveNormal(design *Matrix, y []float64) ([]float64, error) {
	aty, err := design.TransposeMultiplyVector(y)
	if err != nil {
		return nil, err
	}
	coeffs, err := design.Gram().SolveCholesky(aty)
	if err != nil {
		return nil, xerrors.ErrSingularMatrix.DeriveWithCause(err, "cholesky solve on %dx%d system", design.Rows, design.Cols)
	}
	return coeffs, nil
}

// DistinctCount 统计不同取值的个数，最多数到 limit.
func DistinctCount(x []float64, limit int) int {
	seen := make(map[float64]struct{}, limit)
	for _, v := range x {
		seen[v] = struct{}{}
		if len(seen) >= limit {
			break
		}
	}
	return len(seen)
}
