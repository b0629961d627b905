package report

import (
	"fmt"
	"github.com/dasnellings/methylTools/failure"
	"io"
	"sort"
	"strings"
)

// Run is the reduction of every task Summary of a run.
type Run struct {
	Tasks     []Summary
	Succeeded int
	Failed    int
}

// Reduce combines task summaries in (sample, reference) order.
func Reduce(summaries []Summary) Run {
	var r Run
	r.Tasks = make([]Summary, len(summaries))
	copy(r.Tasks, summaries)
	sort.SliceStable(r.Tasks, func(i, j int) bool {
		if r.Tasks[i].Sample != r.Tasks[j].Sample {
			return r.Tasks[i].Sample < r.Tasks[j].Sample
		}
		return r.Tasks[i].Reference < r.Tasks[j].Reference
	})
	for i := range r.Tasks {
		if r.Tasks[i].Succeeded() {
			r.Succeeded++
		} else {
			r.Failed++
		}
	}
	return r
}

// AllFailed reports whether there were tasks and none of them completed.
func (r Run) AllFailed() bool {
	return len(r.Tasks) > 0 && r.Succeeded == 0
}

// Write prints one line per task with its status and, for failures, the reason.
func (r Run) Write(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "tasks\t%d\n", len(r.Tasks))
	fmt.Fprintf(&sb, "succeeded\t%d\n", r.Succeeded)
	fmt.Fprintf(&sb, "failed\t%d\n", r.Failed)
	sb.WriteString("#SAMPLE\tREFERENCE\tSTATUS\tMETHYLCYTOSINES\tFAILURE\tREASON\n")
	for _, t := range r.Tasks {
		if t.Succeeded() {
			fmt.Fprintf(&sb, "%s\t%s\t%s\t%d\t.\t.\n", t.Sample, t.Reference, t.Status(), t.Calls)
			continue
		}
		reason := strings.ReplaceAll(t.Err.Error(), "\n", " ")
		fmt.Fprintf(&sb, "%s\t%s\t%s\t.\t%s\t%s\n", t.Sample, t.Reference, t.Status(), failure.KindOf(t.Err), reason)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
