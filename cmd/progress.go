package cmd

import (
	"fmt"
	"os"

	"github.com/resumeload/resumeload/internal/job"
)

// attachProgressPrinter wires headless stderr output for a job: a
// single overwritten progress line plus one line per task terminal
// event. There is no TUI here; that layer is an external collaborator.
func attachProgressPrinter(j *job.Job) {
	j.Events.On(job.EventProgress, func(payload any) {
		p := payload.(job.ProgressPayload)
		fmt.Fprintf(os.Stderr, "\r%s", formatProgress(p))
	})
	j.Events.On(job.EventTaskComplete, func(payload any) {
		p := payload.(job.TaskCompletePayload)
		fmt.Fprintf(os.Stderr, "\ncompleted: %s\n", p.Task.Filename)
	})
	j.Events.On(job.EventTaskError, func(payload any) {
		p := payload.(job.TaskErrorPayload)
		fmt.Fprintf(os.Stderr, "\nerror: %s (%s)\n", p.Task.Filename, p.Kind)
	})
}

func formatProgress(p job.ProgressPayload) string {
	if p.JobTotal <= 0 {
		return fmt.Sprintf("%s downloaded", humanBytes(p.JobLoaded))
	}
	return fmt.Sprintf("%5.1f%%  %s / %s", p.Percent, humanBytes(p.JobLoaded), humanBytes(p.JobTotal))
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
