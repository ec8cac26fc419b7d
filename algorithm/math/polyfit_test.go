package math

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/lsmpricer/xerrors"
)

func TestFitPolynomialRecoversQuadratic(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 2 + 3*v + 0.5*v*v
	}

	for _, solver := range []Solver{SolverQR, SolverCholesky} {
		t.Run(solver.String(), func(t *testing.T) {
			poly, err := FitPolynomial(x, y, 2, 1, solver)
			require.NoError(t, err)
			require.Equal(t, 2, poly.Degree())
			assert.InDelta(t, 2, poly.Coeffs[0], 1e-8)
			assert.InDelta(t, 3, poly.Coeffs[1], 1e-8)
			assert.InDelta(t, 0.5, poly.Coeffs[2], 1e-8)

			scaled, err := FitPolynomial(x, y, 2, 5, solver)
			require.NoError(t, err)
			for _, v := range []float64{0.5, 3.3, 12} {
				assert.InDelta(t, poly.Eval(v), scaled.Eval(v), 1e-8)
			}
		})
	}
}

func TestFitPolynomialSolversAgree(t *testing.T) {
	x := []float64{36.2, 35.1, 33.9, 38.7, 31.4, 37.5, 34.4, 30.2, 39.1, 32.6}
	y := []float64{3.1, 4.6, 5.9, 1.2, 8.4, 2.0, 5.1, 9.3, 0.7, 7.2}

	qr, err := FitPolynomial(x, y, 2, 40, SolverQR)
	require.NoError(t, err)
	chol, err := FitPolynomial(x, y, 2, 40, SolverCholesky)
	require.NoError(t, err)

	for _, v := range x {
		assert.InDelta(t, qr.Eval(v), chol.Eval(v), 1e-7)
	}
}

func TestFitPolynomialDegenerate(t *testing.T) {
	x := []float64{2, 2, 2}
	y := []float64{1, 2, 6}

	_, err := FitPolynomial(x, y, 2, 1, SolverQR)
	require.Error(t, err)
	assert.True(t, errors.Is(err, xerrors.ErrRegressionDegenerate))

	poly, err := FitPolynomial(x, y, 0, 1, SolverQR)
	require.NoError(t, err)
	assert.Equal(t, 0, poly.Degree())
	assert.InDelta(t, 3, poly.Eval(100), 1e-12)
}

func TestFitPolynomialLinearThroughTwoPoints(t *testing.T) {
	poly, err := FitPolynomial([]float64{1, 3}, []float64{2, 6}, 1, 1, SolverCholesky)
	require.NoError(t, err)
	assert.InDelta(t, 4, poly.Eval(2), 1e-10)
}

func TestFitPolynomialInputErrors(t *testing.T) {
	_, err := FitPolynomial([]float64{1, 2}, []float64{1}, 1, 1, SolverQR)
	assert.True(t, errors.Is(err, xerrors.ErrDimMismatch))

	_, err = FitPolynomial(nil, nil, 1, 1, SolverQR)
	assert.True(t, errors.Is(err, xerrors.ErrEmptyData))

	_, err = FitPolynomial([]float64{1}, []float64{1}, -1, 1, SolverQR)
	assert.True(t, errors.Is(err, xerrors.ErrInvalidInput))
}

func TestParseSolver(t *testing.T) {
	s, err := ParseSolver("Cholesky")
	require.NoError(t, err)
	assert.Equal(t, SolverCholesky, s)

	s, err = ParseSolver("")
	require.NoError(t, err)
	assert.Equal(t, SolverQR, s)

	_, err = ParseSolver("svd")
	assert.Error(t, err)
}

func TestCholeskyRejectsIndefinite(t *testing.T) {
	m, err := NewMatrixFromData([][]float64{{1, 2}, {2, 1}})
	require.NoError(t, err)

	_, err = m.SolveCholesky([]float64{1, 1})
	assert.True(t, errors.Is(err, xerrors.ErrNotPositiveDefinite))
}

func TestGramMatchesExplicitProduct(t *testing.T) {
	a, err := NewMatrixFromData([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)

	g := a.Gram()
	assert.Equal(t, []float64{35, 44, 44, 56}, g.Data)

	aty, err := a.TransposeMultiplyVector([]float64{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 12}, aty)
}
