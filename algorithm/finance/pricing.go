// Package finance - 期权定价算法（Longstaff-Schwartz 最小二乘蒙特卡洛与 Black-Scholes 参考解）。
package finance

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wyfcoding/lsmpricer/algorithm/types"
	"github.com/wyfcoding/lsmpricer/xerrors"
)

// BlackScholes 计算带连续股息率的欧式期权闭式价格。
// vol 为 0 时退化为折现远期与折现行权价之差的内在价值。
func BlackScholes(optionType types.OptionType, spot, strike, expiry, rate, vol, div float64) (float64, error) {
	if !optionType.Valid() {
		return 0, xerrors.ErrInvalidOptionType.Derive("got %q", optionType)
	}
	if !finite(spot) || spot <= 0 || !finite(strike) || strike <= 0 || !finite(expiry) || expiry <= 0 || !finite(vol) || vol < 0 {
		return 0, xerrors.ErrInvalidInput.Derive("spot, strike, expiry must be positive and vol non-negative")
	}

	fwd := spot * math.Exp(-div*expiry)
	disc := strike * math.Exp(-rate*expiry)

	if vol == 0 {
		if optionType == types.OptionTypeCall {
			return math.Max(fwd-disc, 0), nil
		}
		return math.Max(disc-fwd, 0), nil
	}

	sqrtT := math.Sqrt(expiry)
	d1 := (math.Log(spot/strike) + (rate-div+0.5*vol*vol)*expiry) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT

	if optionType == types.OptionTypeCall {
		return fwd*normCDF(d1) - disc*normCDF(d2), nil
	}
	return disc*normCDF(-d2) - fwd*normCDF(-d1), nil
}

func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}
