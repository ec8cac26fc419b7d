// Package pricing 是定价应用层：校验请求、模拟路径、运行 LSM 与参考定价，并负责缓存、指标与链路追踪。
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/lsmpricer/algorithm/finance"
	algomath "github.com/wyfcoding/lsmpricer/algorithm/math"
	"github.com/wyfcoding/lsmpricer/algorithm/sim"
	"github.com/wyfcoding/lsmpricer/algorithm/types"
	"github.com/wyfcoding/lsmpricer/cache"
	"github.com/wyfcoding/lsmpricer/config"
	"github.com/wyfcoding/lsmpricer/idgen"
	"github.com/wyfcoding/lsmpricer/metrics"
	"github.com/wyfcoding/lsmpricer/tracing"
	"github.com/wyfcoding/lsmpricer/xerrors"
)

const cacheKeyPrefix = "lsm:"

// Service 定价服务，可并发使用。
type Service struct {
	cfg      config.PricingConfig
	cache    cache.Cache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
	validate *validator.Validate
}

// Option 定义服务配置选项.
type Option func(*Service)

// WithCache 启用结果缓存。
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithMetrics 注入指标采集器。
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger 注入日志器.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService 创建定价服务。
func NewService(cfg config.PricingConfig, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		logger:   slog.Default(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// job 是补全默认值后的规范化请求，同时作为缓存键的来源。
type job struct {
	Type       types.OptionType `json:"type"`
	Params     sim.Parameters   `json:"params"`
	Degree     int              `json:"degree"`
	Solver     algomath.Solver  `json:"solver"`
	Seed       uint64           `json:"seed"`
	Workers    int              `json:"workers"`
	Strict     bool             `json:"strict"`
	European   bool             `json:"european"`
	Diagnostic bool             `json:"diagnostics"`
}

func (j job) key() string {
	data, _ := json.Marshal(j)
	return cacheKeyPrefix + strconv.FormatUint(xxhash.Sum64(data), 16)
}

// normalize 校验请求并补全默认值。
func (s *Service) normalize(req Request) (job, error) {
	if err := s.validate.Struct(req); err != nil {
		return job{}, xerrors.ErrInvalidParameter.DeriveWithCause(err, "request validation failed")
	}

	optionType, err := types.ParseOptionType(req.Type)
	if err != nil {
		return job{}, err
	}

	j := job{
		Type: optionType,
		Params: sim.Parameters{
			S0:       req.Spot,
			Strike:   req.Strike,
			T:        req.Maturity,
			Rate:     req.Rate,
			Dividend: req.Dividend,
			Sigma:    req.Volatility,
			Steps:    req.Steps,
			Paths:    req.Paths,
		},
		Degree:     s.cfg.Degree,
		Seed:       s.cfg.Seed,
		Workers:    s.cfg.Workers,
		Strict:     s.cfg.Strict,
		Diagnostic: req.Diagnostics,
	}
	if j.Params.Steps == 0 {
		j.Params.Steps = s.cfg.Steps
	}
	if j.Params.Paths == 0 {
		j.Params.Paths = s.cfg.Paths
	}
	if req.Degree != nil {
		j.Degree = *req.Degree
	}
	if req.Seed != nil {
		j.Seed = *req.Seed
	}
	j.European = req.NoEarly

	solver := req.Solver
	if solver == "" {
		solver = s.cfg.Solver
	}
	if j.Solver, err = algomath.ParseSolver(solver); err != nil {
		return job{}, err
	}

	if s.cfg.MaxPaths > 0 && j.Params.Paths > s.cfg.MaxPaths {
		return job{}, xerrors.ErrInvalidParameter.Derive("paths %d exceeds limit %d", j.Params.Paths, s.cfg.MaxPaths)
	}
	if s.cfg.MaxSteps > 0 && j.Params.Steps > s.cfg.MaxSteps {
		return job{}, xerrors.ErrInvalidParameter.Derive("steps %d exceeds limit %d", j.Params.Steps, s.cfg.MaxSteps)
	}
	if err := j.Params.Validate(); err != nil {
		return job{}, err
	}

	return j, nil
}

// Price 对单个请求定价。相同的规范化请求（含种子）结果确定，命中缓存时直接返回并标记 Cached.
func (s *Service) Price(ctx context.Context, req Request) (*Response, error) {
	ctx, span := tracing.StartSpan(ctx, "pricing.Price")
	defer span.End()

	start := time.Now()
	j, err := s.normalize(req)
	if err != nil {
		tracing.SetError(ctx, err)
		s.metrics.ObservePricing("invalid", time.Since(start), 0, 0, err)
		return nil, err
	}
	tracing.AddTag(ctx, "option.type", string(j.Type))
	tracing.AddTag(ctx, "lsm.paths", j.Params.Paths)
	tracing.AddTag(ctx, "lsm.steps", j.Params.Steps)

	key := j.key()
	if resp, ok := s.lookup(ctx, key); ok {
		tracing.AddTag(ctx, "cache.hit", true)
		return resp, nil
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	resp, exercised, fallbacks, err := s.compute(ctx, j)
	s.metrics.ObservePricing(string(j.Type), time.Since(start), exercised, fallbacks, err)
	if err != nil {
		tracing.SetError(ctx, err)
		s.logger.WarnContext(ctx, "option pricing failed", "type", j.Type, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "option priced",
		"type", j.Type,
		"price", resp.Price.String(),
		"std_err", resp.StdErr.String(),
		"paths", j.Params.Paths,
		"steps", j.Params.Steps,
		"fallbacks", fallbacks,
		"duration", time.Since(start),
	)
	s.store(ctx, key, resp)

	return resp, nil
}

func (s *Service) compute(ctx context.Context, j job) (*Response, int, int, error) {
	paths, err := s.simulate(ctx, j)
	if err != nil {
		return nil, 0, 0, err
	}

	opts := []finance.Option{
		finance.WithDegree(j.Degree),
		finance.WithSolver(j.Solver),
		finance.WithLogger(s.logger),
	}
	if j.Strict {
		opts = append(opts, finance.WithStrictRegression())
	}
	if j.European {
		opts = append(opts, finance.WithoutEarlyExercise())
	}

	contract := finance.ContractFor(j.Params, j.Type)
	american, err := finance.NewLSMPricer(opts...).PriceContext(ctx, paths, contract)
	if err != nil {
		return nil, 0, 0, err
	}
	european, err := finance.EuropeanPrice(paths, contract)
	if err != nil {
		return nil, 0, 0, err
	}
	bs, err := finance.BlackScholes(j.Type, j.Params.S0, j.Params.Strike, j.Params.T, j.Params.Rate, j.Params.Sigma, j.Params.Dividend)
	if err != nil {
		return nil, 0, 0, err
	}
	stats, err := sim.TerminalStatistics(paths)
	if err != nil {
		return nil, 0, 0, err
	}

	// 极端输入下估计值可能溢出，NaN/Inf 既无法舍入也无法序列化
	estimates := []struct {
		name string
		v    float64
	}{
		{"price", american.Price},
		{"std_err", american.StdErr},
		{"european", european.Price},
		{"european_std_err", european.StdErr},
		{"black_scholes", bs},
		{"terminal.mean", stats.Mean},
		{"terminal.min", stats.Min},
		{"terminal.max", stats.Max},
		{"terminal.stddev", stats.StdDev},
	}
	for _, e := range estimates {
		if math.IsNaN(e.v) || math.IsInf(e.v, 0) {
			return nil, 0, 0, xerrors.ErrInvalidParameter.Derive("%s overflowed for spot %g, volatility %g", e.name, j.Params.S0, j.Params.Sigma)
		}
	}

	resp := &Response{
		Type:                 string(j.Type),
		Price:                s.round(american.Price),
		StdErr:               s.round(american.StdErr),
		European:             s.round(european.Price),
		EuropeanStdErr:       s.round(european.StdErr),
		BlackScholes:         s.round(bs),
		EarlyExercisePremium: s.round(american.Price - european.Price),
		Exercised:            american.Exercised,
		Fallbacks:            american.Fallbacks,
		Steps:                j.Params.Steps,
		Paths:                j.Params.Paths,
		Degree:               j.Degree,
		Solver:               j.Solver.String(),
		Seed:                 j.Seed,
		Terminal:             stats,
	}
	if j.Diagnostic {
		resp.StepReports = american.Steps
	}

	return resp, american.Exercised, american.Fallbacks, nil
}

func (s *Service) simulate(ctx context.Context, j job) (*sim.PathEnsemble, error) {
	if j.Workers > 0 {
		return sim.SimulateParallel(ctx, j.Params, j.Seed, j.Workers)
	}
	return sim.SimulateContext(ctx, j.Params, sim.NewSource(j.Seed))
}

func (s *Service) round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(s.cfg.Precision)
}

func (s *Service) lookup(ctx context.Context, key string) (*Response, bool) {
	if s.cache == nil {
		return nil, false
	}
	var resp Response
	err := s.cache.Get(ctx, key, &resp)
	s.metrics.ObserveCache(err == nil)
	if err != nil {
		if !errors.Is(err, xerrors.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "pricing cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	resp.Cached = true
	return &resp, true
}

func (s *Service) store(ctx context.Context, key string, resp *Response) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "pricing cache write failed", "key", key, "error", err)
	}
}

// PriceBatch 以有限并发对多个请求定价。单项失败记录在对应的 BatchItem 中，
// 只有 ctx 被取消时才返回错误。
func (s *Service) PriceBatch(ctx context.Context, reqs []Request) (*BatchResponse, error) {
	if len(reqs) == 0 {
		return nil, xerrors.ErrEmptyData.Derive("batch has no requests")
	}
	if s.cfg.MaxBatch > 0 && len(reqs) > s.cfg.MaxBatch {
		return nil, xerrors.ErrInvalidInput.Derive("batch size %d exceeds limit %d", len(reqs), s.cfg.MaxBatch)
	}

	ctx, span := tracing.StartSpan(ctx, "pricing.PriceBatch")
	defer span.End()
	tracing.AddTag(ctx, "batch.size", len(reqs))

	out := &BatchResponse{
		ID:    idgen.GenIDString(),
		Items: make([]BatchItem, len(reqs)),
	}

	var g errgroup.Group
	g.SetLimit(max(s.cfg.BatchLimit, 1))
	for i, req := range reqs {
		g.Go(func() error {
			item := BatchItem{Index: i}
			if err := ctx.Err(); err != nil {
				item.Error = toItemError(err)
				out.Items[i] = item
				return nil
			}
			resp, err := s.Price(ctx, req)
			if err != nil {
				item.Error = toItemError(err)
			} else {
				item.Result = resp
			}
			out.Items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		tracing.SetError(ctx, err)
		return nil, err
	}

	for _, item := range out.Items {
		if item.Error != nil {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}
	s.logger.InfoContext(ctx, "batch priced", "id", out.ID, "succeeded", out.Succeeded, "failed", out.Failed)

	return out, nil
}

func toItemError(err error) *ItemError {
	e, ok := xerrors.FromError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			e = xerrors.Wrap(err, xerrors.ErrDeadlineExceeded, "pricing aborted")
		} else {
			e = xerrors.WrapInternal(err, "pricing failed")
		}
		e.Detail = err.Error()
	}
	return &ItemError{Code: e.Code, Message: e.Message, Detail: e.Detail}
}
