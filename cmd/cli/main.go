package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"charge-optimizer/internal/analysis"
	"charge-optimizer/internal/api/models"
	"charge-optimizer/internal/backtest"
	"charge-optimizer/internal/config"
	"charge-optimizer/internal/data"
	"charge-optimizer/internal/logging"
	"charge-optimizer/internal/model"
	"charge-optimizer/internal/optimizer"
	"charge-optimizer/internal/solver"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "optimize":
		err = cmdOptimize(os.Args[2:])
	case "compare":
		err = cmdCompare(os.Args[2:])
	case "example":
		_, err = os.Stdout.Write(data.ExampleJSON())
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if model.IsValidationError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli optimize --input request.json [--config config.yaml] [--out results/ledger.csv] [--summary]")
	fmt.Println("  cli compare --input request.yaml [--config config.yaml]")
	fmt.Println("  cli example > request.json")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - without --input the built-in example request is used")
	fmt.Println("  - optimize prints the same JSON body as POST /optimize/charge-schedule")
	fmt.Println("  - compare solves the request once per charging strategy and ranks them by benefit")
}

type common struct {
	input  string
	config string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.input, "input", "", "Path to a JSON or YAML request (default: built-in example)")
	fs.StringVar(&c.config, "config", "", "Path to YAML config")
}

func (c *common) load() (*config.Config, model.Input, *optimizer.Optimizer, error) {
	cfg, err := config.LoadOrDefault(c.config)
	if err != nil {
		return nil, model.Input{}, nil, err
	}
	logger := logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.NoColor)

	req, err := data.Example()
	if c.input != "" {
		req, err = data.LoadInput(c.input)
	}
	if err != nil {
		return nil, model.Input{}, nil, err
	}
	in, err := req.ToInput()
	if err != nil {
		return nil, model.Input{}, nil, err
	}

	opt := optimizer.New(solver.NewHiGHS(cfg.SolverOptions(), logger), cfg.OptimizerConfig(), logger)
	return cfg, in, opt, nil
}

func cmdOptimize(args []string) error {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	var c common
	c.register(fs)
	outPath := fs.String("out", "", "Optional: write the replay ledger CSV here")
	summary := fs.Bool("summary", false, "Print a benefit summary to stderr")
	_ = fs.Parse(args)

	cfg, in, opt, err := c.load()
	if err != nil {
		return err
	}
	run, err := opt.Run(context.Background(), in)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(models.FromResult(run.Result)); err != nil {
		return err
	}
	if !run.Result.IsOptimal() {
		if cfg.NonOptimalAsError() {
			return fmt.Errorf("optimization failed: %s problem", run.Result.Status)
		}
		return nil
	}

	if *outPath != "" {
		if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
			return err
		}
		if err := backtest.WriteLedgerCSV(*outPath, run.Replay.Ledger); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d rows to %s\n", len(run.Replay.Ledger), *outPath)
	}
	if *summary {
		s := analysis.Summarize(run.Input, run.Replay)
		fmt.Fprintf(os.Stderr, "Baseline PnL=%.4f Optimized PnL=%.4f Storage value=%.4f Benefit=%.4f\n",
			s.BaselinePNL, s.OptimizedPNL, s.StorageValueChange, s.Benefit)
		fmt.Fprintf(os.Stderr, "Import=%.1fWh Export=%.1fWh Charged=%.1fWh Discharged=%.1fWh Self-consumption=%.1f%%\n",
			s.GridImport, s.GridExport, s.Charged, s.Discharged, 100*s.SelfConsumption)
	}
	return nil
}

func cmdCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	var c common
	c.register(fs)
	_ = fs.Parse(args)

	_, in, opt, err := c.load()
	if err != nil {
		return err
	}

	byStrategy := map[model.ChargingStrategy]analysis.Summary{}
	for _, strat := range []model.ChargingStrategy{model.StrategyNone, model.StrategyChargeBeforeExport, model.StrategyAttenuateGridPeaks} {
		in.Strategy = strat
		run, err := opt.Run(context.Background(), in)
		if err != nil {
			return fmt.Errorf("%s: %w", strat, err)
		}
		if !run.Result.IsOptimal() {
			fmt.Fprintf(os.Stderr, "%s: %s\n", strat, run.Result.Status)
			continue
		}
		byStrategy[strat] = analysis.Summarize(run.Input, run.Replay)
	}
	if len(byStrategy) == 0 {
		return errors.New("no strategy produced an optimal schedule")
	}

	fmt.Printf("%-4s %-22s %-12s %-12s %-12s %-12s\n", "rank", "strategy", "benefit", "import Wh", "peak exp Wh", "self-cons")
	for i, r := range analysis.RankByBenefit(byStrategy) {
		fmt.Printf("%-4d %-22s %-12.4f %-12.1f %-12.1f %-12.3f\n",
			i+1, r.Strategy, r.Benefit, r.GridImport, r.PeakExport, r.SelfConsumption)
	}
	return nil
}
