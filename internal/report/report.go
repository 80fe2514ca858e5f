// Package report renders session and batch results as plain text.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/simulator"
	"github.com/MJE43/roulette-strategy-sim/internal/strategy"
)

const barWidth = 40

// Money formats an amount with thousands separators and two decimals.
func Money(d decimal.Decimal) string {
	return humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
}

func percent(f float64) string {
	return fmt.Sprintf("%.2f%%", f*100)
}

// Session writes the summary of one session followed by its last
// historyTail spins (all of them when historyTail < 0).
func Session(w io.Writer, name string, r simulator.SessionResult, historyTail int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Strategy:\t%s\n", name)
	fmt.Fprintf(tw, "Initial budget:\t%s\n", Money(r.InitialBudget))
	fmt.Fprintf(tw, "Final balance:\t%s\n", Money(r.FinalBalance))
	fmt.Fprintf(tw, "Profit:\t%s\n", Money(r.Profit()))
	fmt.Fprintf(tw, "Spins:\t%s\n", humanize.Comma(int64(r.TotalSpins)))
	fmt.Fprintf(tw, "End reason:\t%s\n", r.EndReason)
	fmt.Fprintf(tw, "Reached target:\t%t\n", r.ReachedTarget)

	st := r.Stats
	fmt.Fprintf(tw, "Wins / losses / pushes:\t%d / %d / %d\n", st.Wins, st.Losses, st.Pushes)
	fmt.Fprintf(tw, "Win rate:\t%s\n", percent(st.WinRate()))
	fmt.Fprintf(tw, "Wagered:\t%s\n", Money(st.Wagered))
	fmt.Fprintf(tw, "Highest stake:\t%s\n", Money(st.HighestStake))
	fmt.Fprintf(tw, "Peak balance:\t%s\n", Money(st.PeakBalance))
	fmt.Fprintf(tw, "Max drawdown:\t%s\n", Money(st.MaxDrawdown))
	fmt.Fprintf(tw, "Longest win / loss streak:\t%d / %d\n", st.LongestWinStreak, st.LongestLossStreak)
	if err := tw.Flush(); err != nil {
		return err
	}

	history := r.History
	if historyTail >= 0 && len(history) > historyTail {
		history = history[len(history)-historyTail:]
	}
	if len(history) == 0 {
		return nil
	}
	return spins(w, history)
}

func spins(w io.Writer, history []simulator.SpinResult) error {
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Spin\tPocket\tColor\tStaked\tReturned\tBalance\tBets\t")
	for _, s := range history {
		bets := make([]string, len(s.Bets))
		for i, b := range s.Bets {
			bets[i] = b.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			s.Spin, s.Pocket, s.Pocket.Color, Money(s.Staked), Money(s.Returned), Money(s.BalanceAfter),
			strings.Join(bets, "; "))
	}
	return tw.Flush()
}

// Batch writes the aggregate of a batch and its distribution histogram.
func Batch(w io.Writer, name string, b simulator.BatchSessionResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Strategy:\t%s\n", name)
	fmt.Fprintf(tw, "Sessions:\t%s\n", humanize.Comma(int64(b.TotalSimulations)))
	fmt.Fprintf(tw, "Initial budget:\t%s\n", Money(b.InitialBudget))
	fmt.Fprintf(tw, "Average final balance:\t%s\n", Money(b.AverageFinalBalance))
	fmt.Fprintf(tw, "Standard deviation:\t%s\n", Money(b.StandardDeviation))
	fmt.Fprintf(tw, "Best / worst session:\t%s / %s\n", Money(b.BestSessionBalance), Money(b.WorstSessionBalance))
	fmt.Fprintf(tw, "Profitable sessions:\t%s (%s)\n", humanize.Comma(int64(b.SuccessfulSessions)), percent(b.SuccessRate()))
	fmt.Fprintf(tw, "Reached target:\t%s (%s)\n", humanize.Comma(int64(b.SessionsReachedTarget)), percent(b.TargetRate()))
	fmt.Fprintf(tw, "Bankrupt:\t%s (%s)\n", humanize.Comma(int64(b.BankruptSessions)), percent(b.BankruptcyRate()))
	fmt.Fprintf(tw, "Total spins:\t%s\n", humanize.Comma(int64(b.TotalSpins)))
	for _, reason := range simulator.EndReasons() {
		if n := b.EndReasons[reason]; n > 0 {
			fmt.Fprintf(tw, "  %s:\t%s\n", reason, humanize.Comma(int64(n)))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	return Histogram(w, simulator.Distribution(b.FinalBalances, b.InitialBudget))
}

// Histogram draws one bar per distribution bin, scaled to the largest bin.
func Histogram(w io.Writer, bins []simulator.Bin) error {
	peak := 0
	for _, b := range bins {
		peak = max(peak, b.Count)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, b := range bins {
		n := 0
		if peak > 0 {
			n = b.Count * barWidth / peak
		}
		fmt.Fprintf(tw, "%s\t%s\t%6s\t%s\n", b.Label, humanize.Comma(int64(b.Count)), percent(b.Fraction), strings.Repeat("#", n))
	}
	return tw.Flush()
}

// Catalog lists registered strategies with their parameters.
func Catalog(w io.Writer, entries []strategy.Descriptor) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, d := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Key, d.Name, d.Description)
		for _, p := range d.Params {
			def := ""
			if p.Default != "" {
				def = " (default " + p.Default + ")"
			}
			fmt.Fprintf(tw, "\t  %s=<%s>\t%s%s\n", p.Name, p.Kind, p.Description, def)
		}
	}
	return tw.Flush()
}
