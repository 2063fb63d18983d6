package runner

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Stats summarises one run.
type Stats struct {
	Job       string
	Mode      string
	Phase     Phase
	Total     int
	Selected  int
	Skipped   int
	Processed int
	Succeeded int
	Null      int
	Failed    int
	Flushes   int
	LastIndex int
	StartTime time.Time
	EndTime   time.Time
}

func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// PrintSummary renders stats as a table.
func PrintSummary(w io.Writer, s *Stats) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	t.SetTitle("job: " + s.Job)
	t.AppendHeader(table.Row{"Mode", "Total", "Selected", "Skipped", "Succeeded", "Null", "Failed", "Last Index", "Duration"})
	t.AppendRow(table.Row{
		s.Mode, s.Total, s.Selected, s.Skipped,
		s.Succeeded, s.Null, s.Failed, s.LastIndex,
		s.Duration().Round(time.Millisecond).String(),
	})
	t.Render()
}
