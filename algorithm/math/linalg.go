// Package math 提供回归所需的基础线性代数工具.
package math

import (
	"math"

	"github.com/wyfcoding/lsmpricer/xerrors"
)

// pivotTolerance Cholesky 分解中相对主元的最小比例，低于该值视为秩亏.
const pivotTolerance = 1e-12

// Matrix 定义行主序稠密矩阵.
type Matrix struct {
	Data []float64
	Rows int
	Cols int
}

// NewMatrix 创建一个 r x c 的零矩阵.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

// NewMatrixFromData 从二维切片创建矩阵.
func NewMatrixFromData(data [][]float64) (*Matrix, error) {
	rows := len(data)
	if rows == 0 {
		return nil, xerrors.ErrEmptyData
	}

	cols := len(data[0])
	mat := NewMatrix(rows, cols)
	for i := range rows {
		if len(data[i]) != cols {
			return nil, xerrors.ErrDimMismatch.Derive("row %d has %d columns, want %d", i, len(data[i]), cols)
		}
		copy(mat.Data[i*cols:(i+1)*cols], data[i])
	}

	return mat, nil
}

// Get 获取元素 (i, j).
func (m *Matrix) Get(row, col int) float64 {
	return m.Data[row*m.Cols+col]
}

// Set 设置元素 (i, j).
func (m *Matrix) Set(row, col int, val float64) {
	m.Data[row*m.Cols+col] = val
}

// Gram 计算 AᵀA，不显式构造转置.
func (m *Matrix) Gram() *Matrix {
	res := NewMatrix(m.Cols, m.Cols)
	for r := range m.Rows {
		row := m.Data[r*m.Cols : (r+1)*m.Cols]
		for i, vi := range row {
			for j := 0; j <= i; j++ {
				res.Data[i*m.Cols+j] += vi * row[j]
			}
		}
	}
	// 补全上三角.
	for i := range m.Cols {
		for j := i + 1; j < m.Cols; j++ {
			res.Set(i, j, res.Get(j, i))
		}
	}

	return res
}

// TransposeMultiplyVector 计算 Aᵀy.
func (m *Matrix) TransposeMultiplyVector(vec []float64) ([]float64, error) {
	if len(vec) != m.Rows {
		return nil, xerrors.ErrDimMismatch.Derive("vector length %d, matrix rows %d", len(vec), m.Rows)
	}

	res := make([]float64, m.Cols)
	for r := range m.Rows {
		v := vec[r]
		offset := r * m.Cols
		for j := range m.Cols {
			res[j] += m.Data[offset+j] * v
		}
	}

	return res, nil
}

// Cholesky 分解: A = L * Lᵀ.
func (m *Matrix) Cholesky() (*Matrix, error) {
	if m.Rows != m.Cols {
		return nil, xerrors.ErrNotSquare
	}

	n := m.Rows
	res := NewMatrix(n, n)

	for i := range n {
		for j := range i + 1 {
			var sum float64
			for k := range j {
				sum += res.Get(i, k) * res.Get(j, k)
			}

			if i == j {
				diag := m.Get(i, i)
				val := diag - sum
				if val <= 0 || val <= pivotTolerance*math.Abs(diag) {
					return nil, xerrors.ErrNotPositiveDefinite.Derive("pivot %d is %g", i, val)
				}
				res.Set(i, j, math.Sqrt(val))
			} else {
				res.Set(i, j, (m.Get(i, j)-sum)/res.Get(j, j))
			}
		}
	}

	return res, nil
}

// ForwardSubstitute 解下三角方程组 Ly = b.
func (m *Matrix) ForwardSubstitute(b []float64) ([]float64, error) {
	if m.Rows != m.Cols || len(b) != m.Rows {
		return nil, xerrors.ErrDimMismatch
	}

	res := make([]float64, m.Rows)
	for i := range m.Rows {
		var sum float64
		for j := range i {
			sum += m.Get(i, j) * res[j]
		}
		res[i] = (b[i] - sum) / m.Get(i, i)
	}

	return res, nil
}

// BackwardSubstitute 解 Lᵀx = y，m 为下三角因子 L.
func (m *Matrix) BackwardSubstitute(b []float64) ([]float64, error) {
	if m.Rows != m.Cols || len(b) != m.Rows {
		return nil, xerrors.ErrDimMismatch
	}

	res := make([]float64, m.Rows)
	for i := m.Rows - 1; i >= 0; i-- {
		var sum float64
		for j := i + 1; j < m.Cols; j++ {
			sum += m.Get(j, i) * res[j]
		}
		res[i] = (b[i] - sum) / m.Get(i, i)
	}

	return res, nil
}

// SolveCholesky 使用 Cholesky 分解求解 Mx = b.
func (m *Matrix) SolveCholesky(b []float64) ([]float64, error) {
	L, err := m.Cholesky()
	if err != nil {
		return nil, err
	}

	y, err := L.ForwardSubstitute(b)
	if err != nil {
		return nil, err
	}

	return L.BackwardSubstitute(y)
}
