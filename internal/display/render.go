package display

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"WxEdge/internal/domain/models"
	applogger "WxEdge/pkg/logger"
)

// Renderer writes a one-shot text dashboard for an analysis. Output is
// plain text so it works equally in a terminal, a log capture, or piped
// to a pager.
type Renderer struct {
	w      io.Writer
	logger *applogger.Logger // error footer source, optional
}

func NewRenderer(w io.Writer, l *applogger.Logger) *Renderer {
	return &Renderer{w: w, logger: l}
}

// Render writes the full dashboard for one analysis.
func (r *Renderer) Render(a *models.Analysis) {
	fmt.Fprintf(r.w, "\n%s %s | analyzed %s\n",
		a.City, a.TargetDate, a.AnalyzedAt.Format("15:04:05 MST"))
	fmt.Fprintln(r.w, strings.Repeat("=", 72))

	r.renderForecasts(a)
	r.renderObservation(a.Observation)
	r.renderBrackets(a)
	r.renderSignals(a.Signals)
	r.renderErrors()
}

func (r *Renderer) renderForecasts(a *models.Analysis) {
	fmt.Fprintln(r.w, "\nFORECASTS")
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "source\tmean\tstd\t10th\t90th")
	for _, p := range a.Forecasts {
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.1f\t%.1f\n",
			p.Source, p.MeanF, p.StdDevF, p.LowF, p.HighF)
	}
	fmt.Fprintf(tw, "combined\t%.1f\t%.1f\t%.1f\t%.1f\n",
		a.Combined.MeanF, a.Combined.StdDevF, a.Combined.LowF, a.Combined.HighF)
	fmt.Fprintf(tw, "refined\t%.1f\t%.1f\t\t\n", a.Refined.MeanF, a.Refined.StdDevF)
	tw.Flush()

	if a.Refined.ObsWeight > 0 {
		fmt.Fprintf(r.w, "observation blend weight: %.0f%%\n", 100*a.Refined.ObsWeight)
	}
}

func (r *Renderer) renderObservation(obs *models.ObservationState) {
	fmt.Fprintln(r.w, "\nOBSERVATION")
	if obs == nil {
		fmt.Fprintln(r.w, "no readings yet for target date")
		return
	}
	fmt.Fprintf(r.w, "%s: observed high %.1fF, possible high %.1fF, as of %05.2fh (%d readings)\n",
		obs.StationID, obs.ObservedHighF, obs.PossibleHighF, obs.AsOfHour, len(obs.Readings))
}

func (r *Renderer) renderBrackets(a *models.Analysis) {
	fmt.Fprintln(r.w, "\nBRACKETS")
	if len(a.Probs) == 0 {
		fmt.Fprintln(r.w, "no markets for target date")
		return
	}
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ticker\trange\tmodel\tmarket\tbid/ask\tvol")
	for _, bp := range a.Probs {
		b := bp.Bracket
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t%.1f%%\t%.0f/%.0f\t%d\n",
			b.Ticker, b.Subtitle, 100*bp.ModelProb, 100*bp.MarketProb,
			100*b.YesBid, 100*b.YesAsk, b.Volume)
	}
	tw.Flush()

	if len(a.Rejected) > 0 {
		fmt.Fprintf(r.w, "rejected: %s\n", strings.Join(a.Rejected, ", "))
	}
}

func (r *Renderer) renderSignals(signals []models.TradingSignal) {
	fmt.Fprintln(r.w, "\nSIGNALS")
	if len(signals) == 0 {
		fmt.Fprintln(r.w, "no edges above threshold")
		return
	}
	for i, s := range signals {
		fmt.Fprintf(r.w, "%d. %s %s  edge %.1f%%  confidence %.0f%%\n",
			i+1, s.Direction, s.Bracket.Ticker, 100*s.Edge, 100*s.Confidence)
		fmt.Fprintf(r.w, "   %s\n", s.Reasoning)
	}
}

func (r *Renderer) renderErrors() {
	if r.logger == nil {
		return
	}
	recent := r.logger.RecentErrors()
	if len(recent) == 0 {
		return
	}
	fmt.Fprintln(r.w, "\nRECENT PROBLEMS")
	for _, e := range recent {
		fmt.Fprintf(r.w, "%s  %s\n", e.At.Format("15:04:05"), e.Message)
	}
}
