package sim

import (
	"math"

	"github.com/wyfcoding/lsmpricer/xerrors"
)

// Parameters 风险中性 GBM 模拟参数，按值传递，模拟过程不会修改.
type Parameters struct {
	S0       float64 // 标的初始价格.
	Strike   float64 // 行权价，模拟本身不使用，供定价阶段构造合约.
	T        float64 // 到期期限（年）.
	Rate     float64 // 无风险利率.
	Dividend float64 // 连续股息率.
	Sigma    float64 // 波动率.
	Steps    int     // 时间步数 N.
	Paths    int     // 路径数 M.
}

// Dt 单步时间间隔 T/N.
func (p Parameters) Dt() float64 {
	return p.T / float64(p.Steps)
}

// Forward 确定性远期价格 S0·exp((r−q)T)，即 sigma 为 0 时的终值.
func (p Parameters) Forward() float64 {
	return p.S0 * math.Exp((p.Rate-p.Dividend)*p.T)
}

// Validate 在任何随机数抽取之前校验参数.
func (p Parameters) Validate() error {
	switch {
	case !finite(p.S0) || p.S0 <= 0:
		return xerrors.ErrInvalidParameter.Derive("S0 must be positive, got %g", p.S0)
	case !finite(p.T) || p.T <= 0:
		return xerrors.ErrInvalidParameter.Derive("T must be positive, got %g", p.T)
	case p.Steps < 1:
		return xerrors.ErrInvalidParameter.Derive("steps must be at least 1, got %d", p.Steps)
	case p.Paths < 1:
		return xerrors.ErrInvalidParameter.Derive("paths must be at least 1, got %d", p.Paths)
	case !finite(p.Sigma) || p.Sigma < 0:
		return xerrors.ErrInvalidParameter.Derive("sigma must be non-negative, got %g", p.Sigma)
	case !finite(p.Rate) || !finite(p.Dividend):
		return xerrors.ErrInvalidParameter.Derive("rate and dividend must be finite")
	}
	return nil
}

// increments 预计算对数步长的漂移项与扩散项.
func (p Parameters) increments() (drift, vol float64) {
	dt := p.Dt()
	drift = (p.Rate - p.Dividend - 0.5*p.Sigma*p.Sigma) * dt
	vol = p.Sigma * math.Sqrt(dt)
	return drift, vol
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
