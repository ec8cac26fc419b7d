// Package types 定义算法包之间共享的基础类型。
package types

import (
	"strings"

	"github.com/wyfcoding/lsmpricer/xerrors"
)

// OptionType 期权类型。
type OptionType string

const (
	// OptionTypeCall 看涨期权。
	OptionTypeCall OptionType = "call"
	// OptionTypePut 看跌期权。
	OptionTypePut OptionType = "put"
)

// ParseOptionType 解析期权类型，大小写不敏感。
func ParseOptionType(s string) (OptionType, error) {
	switch OptionType(strings.ToLower(strings.TrimSpace(s))) {
	case OptionTypeCall:
		return OptionTypeCall, nil
	case OptionTypePut:
		return OptionTypePut, nil
	default:
		return "", xerrors.ErrInvalidOptionType.Derive("got %q", s)
	}
}

// Valid 判断是否为已知类型。
func (t OptionType) Valid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

// Payoff 计算行权收益。
func (t OptionType) Payoff(spot, strike float64) float64 {
	if t == OptionTypePut {
		if strike > spot {
			return strike - spot
		}
		return 0
	}
	if spot > strike {
		return spot - strike
	}
	return 0
}

// InTheMoney 判断立即行权是否严格有利。
func (t OptionType) InTheMoney(spot, strike float64) bool {
	if t == OptionTypePut {
		return spot < strike
	}
	return spot > strike
}
