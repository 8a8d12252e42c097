package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"TrackBets/internal/domain/models"
	"TrackBets/internal/services/analysis"
	"TrackBets/internal/usecase"
	"TrackBets/pkg/util"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze TICKER",
	Short: "Print the verdict for one ticker",
	Long: `Runs one analysis against the configured API.

When the API is unreachable the result is labelled mock data, exactly as
in the terminal app.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Look up a ticker by symbol or company name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the analysis API is up",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved account",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the normalized result as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ticker := util.NormalizeSymbol(args[0])
	if ticker == "" {
		return usecase.ErrEmptyTicker
	}

	c, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := commandContext(cmd)
	defer stop()

	out := c.Analyzer.Run(ctx, ticker)
	if out.Err != nil {
		return fmt.Errorf("analysis failed: %w", out.Err)
	}
	if analyzeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out.Result)
	}
	printResult(cmd.OutOrStdout(), out)
	return nil
}

// printResult writes a plain-text summary of an analysis.
func printResult(w io.Writer, out usecase.Outcome) {
	r := out.Result
	if r == nil {
		return
	}
	if r.IsMock() {
		fmt.Fprintln(w, "MOCK DATA")
		if out.Notice != "" {
			fmt.Fprintf(w, "live analysis unavailable: %s\n", out.Notice)
		}
	}

	pd := r.PriceData
	cur := pd.Currency
	if cur == "" {
		cur = analysis.CurrencyFor(r.Ticker)
	}
	arrow := "▲"
	if !pd.IsUp {
		arrow = "▼"
	}
	fmt.Fprintf(w, "%s  %s%.2f  %s %.2f%%\n", r.Ticker, cur, pd.Price, arrow, math.Abs(pd.ChangePercent))

	a := r.Analysis
	fmt.Fprintf(w, "%s  confidence %.0f%%\n", a.Verdict.Signal, a.Verdict.Confidence)
	if a.TargetPrice != nil {
		fmt.Fprintf(w, "target %s%.2f\n", cur, *a.TargetPrice)
	}
	if a.Timeframe != "" || a.RiskLevel != "" {
		fmt.Fprintf(w, "timeframe %s  risk %s\n", orDash(a.Timeframe), orDash(a.RiskLevel))
	}
	for _, reason := range a.Reasons {
		fmt.Fprintf(w, "  • %s\n", reason)
	}
	if a.AIExplanation != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, a.AIExplanation)
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	c, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := commandContext(cmd)
	defer stop()

	hit, err := c.Remote.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	printHit(cmd.OutOrStdout(), hit)
	return nil
}

func printHit(w io.Writer, hit *models.SearchResult) {
	if hit.Exchange == "" {
		fmt.Fprintf(w, "%s  %s\n", hit.Ticker, hit.Name)
		return
	}
	fmt.Fprintf(w, "%s  %s (%s)\n", hit.Ticker, hit.Name, hit.Exchange)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	c, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := commandContext(cmd)
	defer stop()

	h, err := c.Remote.Health(ctx)
	if err != nil {
		return fmt.Errorf("%s is unreachable: %w", c.Remote.BaseURL(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", c.Remote.BaseURL(), h.Status)
	if len(h.MockTickers) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "mock tickers: %s\n", strings.Join(h.MockTickers, ", "))
	}
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	c, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := commandContext(cmd)
	defer stop()

	if err := c.Auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
