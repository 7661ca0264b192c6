package cmd

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/resumeload/resumeload/internal/job"
	"github.com/resumeload/resumeload/internal/scheduler"
)

var flagFilenames []string

var getCmd = &cobra.Command{
	Use:   "get <url> [url...]",
	Short: "Download one or more resources, resuming any in-progress state",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := configureLogging(); err != nil {
			return err
		}

		filenames := make([]string, len(args))
		for i, u := range args {
			if i < len(flagFilenames) && flagFilenames[i] != "" {
				filenames[i] = flagFilenames[i]
			} else {
				filenames[i] = filenameFromURL(u)
			}
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		j, err := job.New(args, filenames, flagOutputDir, st)
		if err != nil {
			return err
		}

		return runJob(j)
	},
}

func init() {
	getCmd.Flags().StringArrayVar(&flagFilenames, "filename", nil, "destination filename for the URL at the same position (repeatable)")
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "download.bin"
	}
	name := filepath.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "download.bin"
	}
	return name
}

// runJob drives a job to completion in the foreground, printing progress
// to stderr and pausing in-flight tasks on SIGINT/SIGTERM instead of
// dropping them mid-write.
func runJob(j *job.Job) error {
	attachProgressPrinter(j)

	sch := scheduler.New(flagConcurrency)
	for _, t := range j.Tasks {
		sch.Add(t)
	}

	done := make(chan struct{})
	j.Events.On(job.EventComplete, func(any) { close(done) })

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sch.Start()

	select {
	case <-done:
	case <-sigCh:
		fmt.Fprintln(os.Stderr, "\ninterrupted, pausing in-progress downloads...")
		sch.Pause()
	}

	fmt.Fprintf(os.Stderr, "\n%d completed, %d errored\n", j.Completed(), j.Errored())
	if j.Errored() > 0 {
		return fmt.Errorf("%d download(s) failed", j.Errored())
	}
	return nil
}
