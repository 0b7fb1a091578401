package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/MJE43/busfahrer-sim/internal/scan"
)

// Series is the headline metric of one rule variant across board sizes.
type Series struct {
	Jokers    bool
	Reshuffle bool
	Memory    bool
	Boards    []int
	Values    []float64
}

// Title names the series and its unit.
func (s Series) Title() string {
	title := fmt.Sprintf("%s, %s", reshuffleLabel(s.Reshuffle), memoryLabel(s.Memory))
	if s.Jokers {
		title += ", jokers"
	}
	if s.Reshuffle {
		return title + ": cards encountered until win"
	}
	return title + ": win chance (in %)"
}

// BuildSeries groups entries by rule variant, keeping the entry order of
// board sizes. Variants appear in order of first occurrence.
func BuildSeries(entries []scan.Entry) []Series {
	type key struct{ jokers, reshuffle, memory bool }
	index := map[key]int{}
	var series []Series
	for _, e := range entries {
		k := key{e.Config.Jokers, e.Config.Reshuffle, e.Config.Memory}
		i, ok := index[k]
		if !ok {
			i = len(series)
			index[k] = i
			series = append(series, Series{Jokers: k.jokers, Reshuffle: k.reshuffle, Memory: k.memory})
		}
		v, _ := Metric(e).Float64()
		series[i].Boards = append(series[i].Boards, e.Config.BoardSize)
		series[i].Values = append(series[i].Values, v)
	}
	return series
}

// Chart renders one horizontal bar chart per series.
func Chart(w io.Writer, entries []scan.Entry) error {
	for _, s := range BuildSeries(entries) {
		bars := make(pterm.Bars, 0, len(s.Boards))
		for i, board := range s.Boards {
			bars = append(bars, pterm.Bar{
				Label: strconv.Itoa(board),
				Value: int(s.Values[i] + 0.5),
			})
		}

		out, err := pterm.DefaultBarChart.
			WithBars(bars).
			WithHorizontal().
			WithShowValue().
			WithWidth(60).
			Srender()
		if err != nil {
			return fmt.Errorf("render chart %q: %w", s.Title(), err)
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n", pterm.DefaultSection.Sprint(s.Title()), out); err != nil {
			return err
		}
	}
	return nil
}

func reshuffleLabel(b bool) string {
	if b {
		return "Reshuffle"
	}
	return "No reshuffle"
}

func memoryLabel(b bool) string {
	if b {
		return "memory"
	}
	return "no memory"
}
