package sim

import (
	"gonum.org/v1/gonum/mat"

	"github.com/wyfcoding/lsmpricer/xerrors"
)

// PathEnsemble M 条路径 × (N+1) 个时间点的价格矩阵，创建后只读.
// 第 i 行第 t 列为路径 i 在 t·dt 时刻的价格，第 0 列恒为 S0.
type PathEnsemble struct {
	data *mat.Dense
	dt   float64
}

// NewPathEnsemble 由外部数据构造路径集，每行一条路径，数据会被复制.
func NewPathEnsemble(rows [][]float64, dt float64) (*PathEnsemble, error) {
	if len(rows) == 0 {
		return nil, xerrors.ErrInvalidPathData.Derive("no paths")
	}
	cols := len(rows[0])
	if cols < 2 {
		return nil, xerrors.ErrInvalidPathData.Derive("each path needs at least 2 time points, got %d", cols)
	}
	if !finite(dt) || dt <= 0 {
		return nil, xerrors.ErrInvalidPathData.Derive("dt must be positive, got %g", dt)
	}

	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, xerrors.ErrInvalidPathData.Derive("path %d has %d points, want %d", i, len(row), cols)
		}
		if row[0] != rows[0][0] {
			return nil, xerrors.ErrInvalidPathData.Derive("path %d starts at %g, want %g", i, row[0], rows[0][0])
		}
		for t, v := range row {
			if !finite(v) || v < 0 {
				return nil, xerrors.ErrInvalidPathData.Derive("path %d point %d is %g", i, t, v)
			}
		}
		data = append(data, row...)
	}

	return &PathEnsemble{data: mat.NewDense(len(rows), cols, data), dt: dt}, nil
}

// Paths 路径数 M.
func (e *PathEnsemble) Paths() int {
	r, _ := e.data.Dims()
	return r
}

// Steps 时间步数 N.
func (e *PathEnsemble) Steps() int {
	_, c := e.data.Dims()
	return c - 1
}

// Dt 模拟使用的时间步长.
func (e *PathEnsemble) Dt() float64 {
	return e.dt
}

// At 返回路径 i 在时间索引 t 的价格.
func (e *PathEnsemble) At(i, t int) float64 {
	return e.data.At(i, t)
}

// Column 返回时间索引 t 上所有路径价格的副本.
func (e *PathEnsemble) Column(t int) []float64 {
	return mat.Col(nil, t, e.data)
}

// Terminal 返回到期时刻价格的副本.
func (e *PathEnsemble) Terminal() []float64 {
	return e.Column(e.Steps())
}

// Path 返回第 i 条路径的副本.
func (e *PathEnsemble) Path(i int) []float64 {
	return mat.Row(nil, i, e.data)
}

// Matrix 返回底层矩阵的只读视图.
func (e *PathEnsemble) Matrix() mat.Matrix {
	return readOnly{e.data}
}

// readOnly 隐藏 *mat.Dense 的可写方法.
type readOnly struct {
	m *mat.Dense
}

func (r readOnly) Dims() (int, int)    { return r.m.Dims() }
func (r readOnly) At(i, j int) float64 { return r.m.At(i, j) }
func (r readOnly) T() mat.Matrix       { return mat.Transpose{Matrix: r} }
