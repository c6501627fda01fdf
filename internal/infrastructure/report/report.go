// Package report renders an analysis session as a plain-text summary for
// terminals and report files.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fatih/color"
	"github.com/montanaflynn/stats"

	"github.com/0xcro3dile/permlab/internal/domain/entities"
	"github.com/0xcro3dile/permlab/internal/domain/usecases"
)

// Summary describes one numeric series. Non-finite entries are counted
// but excluded from Min, Max and Mean.
type Summary struct {
	Count int
	Valid int
	Min   float64
	Max   float64
	Mean  float64
}

// Summarize computes a Summary. The statistics are NaN when no entry is finite.
func Summarize(s entities.Series) Summary {
	sum := Summary{Count: len(s), Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}
	finite := make(stats.Float64Data, 0, len(s))
	for _, v := range s {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	sum.Valid = len(finite)
	if sum.Valid == 0 {
		return sum
	}
	// errors only on empty input
	sum.Min, _ = stats.Min(finite)
	sum.Max, _ = stats.Max(finite)
	sum.Mean, _ = stats.Mean(finite)
	return sum
}

// Renderer writes reports. Colors are only emitted when Color is set.
type Renderer struct {
	Color bool
}

// Render writes a report of snap to w.
func (r Renderer) Render(w io.Writer, snap usecases.Snapshot) error {
	heading := r.paint(color.FgCyan, color.Bold)
	label := r.paint(color.Bold)
	bad := r.paint(color.FgRed)
	good := r.paint(color.FgGreen)

	var b strings.Builder
	fmt.Fprintf(&b, "%s  session %s  state %s\n", heading.Sprint("permlab report"), snap.ID, r.stateColor(snap.State).Sprint(snap.State))
	fmt.Fprintf(&b, "%s length %s mm, diameter %s mm\n", label.Sprint("Sample:"),
		orDash(snap.Draft.Length), orDash(snap.Draft.Diameter))

	if snap.Error != "" {
		fmt.Fprintf(&b, "%s %s\n", bad.Sprint("Error:"), snap.Error)
	}

	if resp := snap.Response; resp != nil {
		fmt.Fprintf(&b, "\n%s\n", heading.Sprint("Series"))
		for _, name := range entities.AllSeries {
			if resp.IsEmpty(name) {
				fmt.Fprintf(&b, "  %-26s %s\n", name, "no data")
				continue
			}
			s := Summarize(resp.Series(name))
			fmt.Fprintf(&b, "  %-26s n=%d", name, s.Count)
			if s.Valid != s.Count {
				fmt.Fprintf(&b, " (%s)", bad.Sprintf("%d invalid", s.Count-s.Valid))
			}
			fmt.Fprintf(&b, "  min=%s  max=%s  mean=%s\n", num(s.Min), num(s.Max), num(s.Mean))
		}

		fmt.Fprintf(&b, "\n%s\n", heading.Sprint("Fits"))
		for _, kind := range []entities.PlotKind{entities.PlotForchheimer, entities.PlotKlinkenberg} {
			plot := "no plot"
			if png, err := resp.DecodePlot(kind); err == nil {
				plot = fmt.Sprintf("plot %d bytes", len(png))
			}
			fmt.Fprintf(&b, "  %-12s %s  (%s)\n", kind, orDash(resp.Equation(kind)), plot)
		}
	}

	if c := snap.Corrections; c != nil {
		fmt.Fprintf(&b, "\n%s\n", heading.Sprint("Corrected permeability"))
		fmt.Fprintf(&b, "  %-12s %s\n", entities.PlotForchheimer, good.Sprint(c.ForchheimerDisplay))
		fmt.Fprintf(&b, "  %-12s %s\n", entities.PlotKlinkenberg, good.Sprint(c.KlinkenbergDisplay))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r Renderer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if r.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (r Renderer) stateColor(s usecases.State) *color.Color {
	switch s {
	case usecases.StateReady:
		return r.paint(color.FgGreen)
	case usecases.StateFailed:
		return r.paint(color.FgRed)
	case usecases.StateSubmitting:
		return r.paint(color.FgYellow)
	}
	return r.paint(color.Reset)
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4g", v)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
