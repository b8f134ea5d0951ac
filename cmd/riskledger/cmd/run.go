package cmd

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"riskledger/config"
	"riskledger/desk"
	"riskledger/journal"
	"riskledger/ledger"
	"riskledger/market"
	"riskledger/orders"
	"riskledger/risk"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay price steps from a config file through the ledger",
	Long: `Run opens a risk-sized position and replays the configured price
steps through the position ledger, journaling closed positions and printing
the final margin status.

Example:
  riskledger run --config examples/configs/basic.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := newLogger()

	var j journal.Journal
	if cfg.Journal.Type == "csv" {
		j, err = journal.NewCSV(cfg.Journal.ClosesFile, cfg.Journal.EquityFile)
	} else {
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	}
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	acct := risk.Context{
		Balance:         cfg.Account.Balance,
		Leverage:        cfg.Account.Leverage,
		MarginCallLevel: cfg.Account.MarginCallLevel,
		StopOutLevel:    cfg.Account.StopOutLevel,
	}

	interval, _ := cfg.Ledger.ParseTickInterval()

	led := ledger.New()
	led.SetLogger(log)
	led.SetListener(journal.Recorder{J: j, Log: log})
	led.SetThrottle(interval, nil)

	calc := risk.NewCalculator()
	dk := desk.New(led, calc, func() risk.Context { return acct })
	dk.SetLogger(log)

	start := time.Now()
	if err := dk.OnTick(market.Tick{
		Symbol: cfg.Trade.Symbol,
		Bid:    cfg.Replay.InitialBid,
		Ask:    cfg.Replay.InitialAsk,
		Time:   start,
	}); err != nil {
		return err
	}

	pip := market.PipSize(cfg.Trade.Symbol)
	entry := cfg.Replay.InitialAsk
	stop := entry - cfg.Trade.StopPips*pip
	target := entry + cfg.Trade.TargetPips*pip

	lots, riskAmount := calc.SizeByRisk(cfg.Trade.Symbol, cfg.Trade.StopPips, cfg.Trade.RiskPercent, acct)

	fmt.Printf("Opening trade:\n")
	fmt.Printf("  Entry: %.5f\n", entry)
	fmt.Printf("  Stop: %.5f (%.0f pips)\n", stop, cfg.Trade.StopPips)
	fmt.Printf("  Target: %.5f (%.0f pips)\n", target, cfg.Trade.TargetPips)
	fmt.Printf("  Volume: %.2f lots\n", lots)
	fmt.Printf("  Risk Amount: $%.2f\n\n", riskAmount)

	res, err := dk.Submit(context.Background(), orders.Ticket{
		Symbol:     cfg.Trade.Symbol,
		Type:       orders.Market,
		Side:       orders.Buy,
		Volume:     lots,
		StopLoss:   &stop,
		TakeProfit: &target,
	})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if res.Status != orders.Filled {
		for _, issue := range res.Report.Errors {
			fmt.Printf("  %s: %s (%s)\n", issue.Field, issue.Message, issue.Code)
		}
		return fmt.Errorf("order %s not filled: %s", res.OrderID, res.Status)
	}

	now := start
	for _, step := range cfg.Replay.Steps {
		delay, _ := step.ParseDelay()
		now = now.Add(delay)
		if delay > 0 {
			time.Sleep(delay)
		}
		if err := dk.OnTick(market.Tick{
			Symbol: cfg.Trade.Symbol,
			Bid:    step.Bid,
			Ask:    step.Ask,
			Time:   now,
		}); err != nil {
			return err
		}
	}
	if _, err := led.Flush(); err != nil {
		return err
	}

	st := led.MarginStatus(acct)
	if err := j.RecordEquity(journal.FromStatus(now, acct.Balance, st)); err != nil {
		return err
	}

	fmt.Printf("Final account status:\n")
	fmt.Printf("  Equity: $%.2f\n", st.Equity)
	fmt.Printf("  Unrealized P&L: $%.2f\n", st.UnrealizedPL)
	fmt.Printf("  Margin Used: $%.2f\n", st.MarginUsed)
	fmt.Printf("  Free Margin: $%.2f\n", st.FreeMargin)
	if math.IsInf(st.MarginLevel, 1) {
		fmt.Printf("  Margin Level: -\n")
	} else {
		fmt.Printf("  Margin Level: %.1f%%\n", st.MarginLevel)
	}
	fmt.Printf("  Status: %s\n", risk.Classify(st.MarginLevel, acct))

	return nil
}
