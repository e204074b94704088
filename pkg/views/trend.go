package views

import (
	"fmt"
	"sort"

	"github.com/pcidash/pcidash/pkg/aggregate"
	"github.com/pcidash/pcidash/pkg/compliance"
	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/ui"
)

// TrendAnalysis renders the score history in chronological order, one bar
// per point, with pass/fail counts, a marker on dates that carry event
// annotations, and the event log below the chart.
func (r *Renderer) TrendAnalysis() {
	r.header("Compliance Trend")

	points := aggregate.SortTrend(r.ds.History.Points)
	if len(points) == 0 {
		r.printf("  No trend history.\n")
		return
	}

	barWidth := r.width - 36
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 60 {
		barWidth = 60
	}
	meter := ui.NewMeter(barWidth)

	for _, p := range points {
		marker := " "
		if len(r.ds.History.AnnotationFor(p.Date)) > 0 {
			marker = ui.EventStyle.Render("*")
		}
		style := ui.ScoreStyle(p.ComplianceScore, defaults.ScoreHealthy, defaults.ScoreWarning)
		r.printf("  %s %s %s [%s] %s\n",
			p.Date, marker,
			style.Render(fmt.Sprintf("%5.1f%%", p.ComplianceScore)),
			meter.RenderWith(p.ComplianceScore, style),
			ui.HelpStyle.Render(fmt.Sprintf("%d passing, %d failing", p.Passing, p.Failing)))
	}

	if delta, ok := aggregate.LatestDelta(points); ok {
		r.printf("\n  %s %s\n", ui.StatLabelStyle.Render("Change since previous point:"), deltaTag(delta))
	}

	if len(r.ds.History.Events) == 0 {
		return
	}
	events := make([]compliance.TrendEvent, len(r.ds.History.Events))
	copy(events, r.ds.History.Events)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	r.printf("\n")
	r.section("Events")
	for _, ev := range events {
		r.printf("  %s %s: %s\n", ui.EventStyle.Render("*"), ev.Date, ev.Event)
	}
}

// deltaTag renders the most recent score change with a direction marker.
func deltaTag(d aggregate.TrendDelta) string {
	sign := "+"
	if d.ScoreChange < 0 {
		sign = ""
	}
	text := fmt.Sprintf("%s%.1f pts", sign, d.ScoreChange)
	if d.Improved {
		return ui.PassStyle.Render(ui.Icon("▲", "^") + " " + text)
	}
	if d.ScoreChange < 0 {
		return ui.FailStyle.Render(ui.Icon("▼", "v") + " " + text)
	}
	return ui.UnknownStyle.Render(text)
}
