package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/lsmpricer/algorithm/types"
	"github.com/wyfcoding/lsmpricer/xerrors"
)

func baseParams() Parameters {
	return Parameters{S0: 100, Strike: 105, T: 1, Rate: 0.05, Sigma: 0.2, Steps: 12, Paths: 500}
}

func TestSimulateShapeAndInitialColumn(t *testing.T) {
	params := baseParams()
	paths, err := Simulate(params, NewSource(7))
	require.NoError(t, err)

	assert.Equal(t, params.Paths, paths.Paths())
	assert.Equal(t, params.Steps, paths.Steps())
	assert.InDelta(t, params.Dt(), paths.Dt(), 0)

	r, c := paths.Matrix().Dims()
	assert.Equal(t, params.Paths, r)
	assert.Equal(t, params.Steps+1, c)

	for _, s := range paths.Column(0) {
		assert.Equal(t, params.S0, s)
	}
	for i := range paths.Paths() {
		for _, s := range paths.Path(i) {
			assert.GreaterOrEqual(t, s, 0.0)
		}
	}
}

func TestSimulateIsReproducible(t *testing.T) {
	params := baseParams()
	a, err := Simulate(params, NewSource(42))
	require.NoError(t, err)
	b, err := Simulate(params, NewSource(42))
	require.NoError(t, err)
	c, err := Simulate(params, NewSource(43))
	require.NoError(t, err)

	assert.Equal(t, a.Terminal(), b.Terminal())
	assert.Equal(t, a.Path(3), b.Path(3))
	assert.NotEqual(t, a.Terminal(), c.Terminal())
}

func TestSimulateZeroVolatilityFollowsForward(t *testing.T) {
	params := Parameters{S0: 36, Strike: 40, T: 2, Rate: 0.06, Dividend: 0.02, Sigma: 0, Steps: 50, Paths: 20}
	paths, err := Simulate(params, NewSource(1))
	require.NoError(t, err)

	want := params.Forward()
	for _, s := range paths.Terminal() {
		assert.InEpsilon(t, want, s, 1e-9)
	}
}

func TestSimulateRejectsInvalidParameters(t *testing.T) {
	cases := map[string]func(p *Parameters){
		"zero spot":      func(p *Parameters) { p.S0 = 0 },
		"negative T":     func(p *Parameters) { p.T = -1 },
		"zero steps":     func(p *Parameters) { p.Steps = 0 },
		"zero paths":     func(p *Parameters) { p.Paths = 0 },
		"negative sigma": func(p *Parameters) { p.Sigma = -0.1 },
		"nan rate":       func(p *Parameters) { p.Rate = math.NaN() },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			params := baseParams()
			mutate(&params)
			_, err := Simulate(params, NewSource(1))
			require.Error(t, err)
			assert.True(t, errors.Is(err, xerrors.ErrInvalidParameter))
		})
	}

	_, err := Simulate(baseParams(), nil)
	assert.True(t, errors.Is(err, xerrors.ErrInvalidParameter))
}

func TestSimulateParallelIndependentOfWorkers(t *testing.T) {
	params := baseParams()
	ctx := context.Background()

	one, err := SimulateParallel(ctx, params, 99, 1)
	require.NoError(t, err)
	many, err := SimulateParallel(ctx, params, 99, 8)
	require.NoError(t, err)

	for i := range params.Paths {
		assert.Equal(t, one.Path(i), many.Path(i))
	}
	assert.Equal(t, params.S0, many.At(params.Paths-1, 0))
}

func TestSimulateParallelHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SimulateParallel(ctx, baseParams(), 1, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulateContextHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SimulateContext(ctx, baseParams(), NewSource(1))
	assert.ErrorIs(t, err, context.Canceled)

	live, err := SimulateContext(context.Background(), baseParams(), NewSource(1))
	require.NoError(t, err)
	plain, err := Simulate(baseParams(), NewSource(1))
	require.NoError(t, err)
	assert.Equal(t, plain.Terminal(), live.Terminal())
}

func TestEuropeanMonteCarloHugeSpotStaysFinite(t *testing.T) {
	params := Parameters{S0: 1e200, Strike: 1, T: 1, Rate: 0.05, Sigma: 0.2, Steps: 5, Paths: 100}
	paths, err := Simulate(params, NewSource(11))
	require.NoError(t, err)

	est, err := EuropeanMonteCarlo(paths, types.OptionTypeCall, params.Strike, params.Rate)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(est.StdErr) || math.IsInf(est.StdErr, 0))
	assert.Greater(t, est.StdErr, 0.0)

	st, err := TerminalStatistics(paths)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(st.StdDev) || math.IsInf(st.StdDev, 0))
	assert.Greater(t, st.StdDev, 0.0)
}

func TestEuropeanMonteCarloMatchesClosedForm(t *testing.T) {
	params := Parameters{S0: 100, Strike: 105, T: 1, Rate: 0.05, Sigma: 0.2, Steps: 365, Paths: 10000}
	paths, err := Simulate(params, NewSource(0))
	require.NoError(t, err)

	est, err := EuropeanMonteCarlo(paths, types.OptionTypeCall, params.Strike, params.Rate)
	require.NoError(t, err)

	// Black-Scholes 参考值.
	const closedForm = 8.0214
	assert.Greater(t, est.StdErr, 0.0)
	assert.InDelta(t, closedForm, est.Price, 4*est.StdErr)
}

func TestEuropeanMonteCarloSinglePath(t *testing.T) {
	params := baseParams()
	params.Paths = 1
	paths, err := Simulate(params, NewSource(3))
	require.NoError(t, err)

	est, err := EuropeanMonteCarlo(paths, types.OptionTypePut, params.Strike, params.Rate)
	require.NoError(t, err)
	assert.Zero(t, est.StdErr)
	assert.False(t, math.IsNaN(est.Price))
}

func TestTerminalStatistics(t *testing.T) {
	paths, err := NewPathEnsemble([][]float64{{10, 11}, {10, 9}, {10, 13}}, 0.5)
	require.NoError(t, err)

	st, err := TerminalStatistics(paths)
	require.NoError(t, err)
	assert.InDelta(t, 11, st.Mean, 1e-12)
	assert.Equal(t, 9.0, st.Min)
	assert.Equal(t, 13.0, st.Max)
	assert.InDelta(t, math.Sqrt(8.0/3.0), st.StdDev, 1e-12)
}

func TestNewPathEnsembleValidation(t *testing.T) {
	_, err := NewPathEnsemble(nil, 1)
	assert.True(t, errors.Is(err, xerrors.ErrInvalidPathData))

	_, err = NewPathEnsemble([][]float64{{1}}, 1)
	assert.True(t, errors.Is(err, xerrors.ErrInvalidPathData))

	_, err = NewPathEnsemble([][]float64{{1, 2}, {1}}, 1)
	assert.True(t, errors.Is(err, xerrors.ErrInvalidPathData))

	_, err = NewPathEnsemble([][]float64{{1, -2}}, 1)
	assert.True(t, errors.Is(err, xerrors.ErrInvalidPathData))

	_, err = NewPathEnsemble([][]float64{{1, 2}}, 0)
	assert.True(t, errors.Is(err, xerrors.ErrInvalidPathData))

	_, err = NewPathEnsemble([][]float64{{10, 11}, {10, 9}, {12, 13}}, 1)
	assert.True(t, errors.Is(err, xerrors.ErrInvalidPathData))
	assert.Contains(t, err.Error(), "path 2 starts at 12")
}
