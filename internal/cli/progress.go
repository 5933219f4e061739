package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/heatsolve/internal/format"
	"github.com/agbru/heatsolve/internal/orchestration"
	"github.com/agbru/heatsolve/internal/ui"
)

// DisplayProgress consumes a Session's event stream and renders a spinner
// with one progress line for the whole batch. It returns, and calls wg.Done,
// once the stream is closed.
func DisplayProgress(wg *sync.WaitGroup, events <-chan orchestration.Event, numSimulations int, out io.Writer) {
	defer wg.Done()

	agg := orchestration.NewProgressAggregator(numSimulations)
	if agg == nil {
		orchestration.DrainEvents(events)
		return
	}

	s := newSpinner(spinner.WithWriter(out))
	s.Start()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				s.Stop()
				fmt.Fprintln(out, progressLine(agg))
				return
			}
			agg.Apply(ev)
		case <-ticker.C:
			s.UpdateSuffix(" " + progressLine(agg))
		}
	}
}

// progressLine renders the aggregated state. A single simulation gets a
// full-width bar; a batch gets the average plus one compact bar each.
func progressLine(agg *orchestration.ProgressAggregator) string {
	if !agg.IsMulti() {
		return fmt.Sprintf("Solving: [%s] %s", progressBar(agg.Percent(0), ProgressBarWidth), format.FormatPercent(agg.Percent(0)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Average: %s (%d running)", format.FormatPercent(agg.Average()), agg.Pending())
	for i := range agg.NumSimulations() {
		bar := progressBar(agg.Percent(i), CompactBarWidth)
		switch {
		case agg.Failed(i):
			bar = ui.Colorize(ui.ColorRed(), bar)
		case agg.Finished(i):
			bar = ui.Colorize(ui.ColorGreen(), bar)
		}
		fmt.Fprintf(&b, "  #%d %s", i, bar)
	}
	return b.String()
}
