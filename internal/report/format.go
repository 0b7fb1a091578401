package report

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/busfahrer-sim/internal/scan"
)

// ratio returns num/den rounded half-up to places decimals, computed from
// the exact integer totals rather than the float means.
func ratio(num, den uint64, scale int64, places int32) string {
	if den == 0 {
		return decimal.Zero.StringFixed(places)
	}
	n := fromCount(num).Mul(decimal.NewFromInt(scale))
	return n.Div(fromCount(den)).StringFixed(places)
}

// MeanCards formats the average cards encountered with two decimals.
func MeanCards(s scan.Summary) string {
	return ratio(s.CardsTotal, s.Trials, 1, 2)
}

// MeanBoards formats the average boards refilled with two decimals.
func MeanBoards(s scan.Summary) string {
	return ratio(s.BoardsTotal, s.Trials, 1, 2)
}

// WinPercent formats the win chance as a percentage with two decimals.
func WinPercent(s scan.Summary) string {
	return ratio(s.Wins, s.Trials, 100, 2)
}

// Metric is the headline number of a configuration: average cards for
// reshuffle runs, win chance in percent otherwise.
func Metric(e scan.Entry) decimal.Decimal {
	s := e.Summary
	if s.Trials == 0 {
		return decimal.Zero
	}
	den := fromCount(s.Trials)
	if e.Config.Reshuffle {
		return fromCount(s.CardsTotal).Div(den)
	}
	return fromCount(s.Wins).Mul(decimal.NewFromInt(100)).Div(den)
}

func fromCount(n uint64) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
