// Command lsmpricer 以 HTTP 服务或一次性命令行方式提供美式期权 LSM 定价。
//
//	lsmpricer serve -conf configs/lsmpricer.toml
//	lsmpricer price -type put -spot 36 -strike 40 -maturity 1 -rate 0.06 -vol 0.2
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/wyfcoding/lsmpricer/app"
	"github.com/wyfcoding/lsmpricer/config"
	"github.com/wyfcoding/lsmpricer/logging"
	"github.com/wyfcoding/lsmpricer/pricing"
)

// version 由构建时 -ldflags "-X main.version=..." 注入。
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "price":
		err = runPrice(os.Args[2:], os.Stdout)
	case "-h", "--help", "help":
		usage(os.Stdout)
		return
	default:
		usage(os.Stderr)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "lsmpricer:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: lsmpricer <serve|price> [flags]")
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	confPath := fs.String("conf", "configs/lsmpricer.toml", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var cfg config.Config
	if err := config.Load(*confPath, &cfg); err != nil {
		return err
	}
	if cfg.Version == "" {
		cfg.Version = version
	}

	a, err := app.NewBuilder(&cfg).Build(context.Background())
	if err != nil {
		return err
	}
	config.PrintWithMask(&cfg)
	return a.Run()
}

func runPrice(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("price", flag.ContinueOnError)
	confPath := fs.String("conf", "", "optional config file for engine defaults")
	var req pricing.Request
	fs.StringVar(&req.Type, "type", "put", "option type: call or put")
	fs.Float64Var(&req.Spot, "spot", 0, "initial underlying price")
	fs.Float64Var(&req.Strike, "strike", 0, "strike price")
	fs.Float64Var(&req.Maturity, "maturity", 1, "time to maturity in years")
	fs.Float64Var(&req.Rate, "rate", 0, "continuously compounded risk-free rate")
	fs.Float64Var(&req.Dividend, "dividend", 0, "continuous dividend yield")
	fs.Float64Var(&req.Volatility, "vol", 0, "annualized volatility")
	fs.IntVar(&req.Steps, "steps", 0, "time steps, 0 uses the configured default")
	fs.IntVar(&req.Paths, "paths", 0, "simulated paths, 0 uses the configured default")
	fs.StringVar(&req.Solver, "solver", "", "least squares solver: qr or cholesky")
	fs.BoolVar(&req.Diagnostics, "diagnostics", false, "include per-step regression reports")
	fs.BoolVar(&req.NoEarly, "european", false, "disable early exercise")
	degree := fs.Int("degree", -1, "regression degree, -1 uses the configured default")
	seed := fs.Uint64("seed", 0, "random seed, omitted uses the configured default")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *degree >= 0 {
		req.Degree = degree
	}
	// 显式传入的 -seed 0 也要生效，只有未出现时才沿用配置
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			req.Seed = seed
		}
	})

	var cfg config.Config
	if err := config.Load(*confPath, &cfg); err != nil {
		return err
	}
	logger := logging.InitLogger(cfg.Log.Logging(cfg.Server.Name, "cli"))

	ctx := context.Background()
	done := logging.LogDuration(ctx, "cli pricing", "type", req.Type)
	resp, err := pricing.NewService(cfg.Pricing, pricing.WithLogger(logger.Logger)).Price(ctx, req)
	done()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
