package cli

import (
	"time"

	"github.com/schollz/progressbar/v3"
)

// withSpinner runs work while an indeterminate terminal spinner animates,
// since IndexCodebase reports only a final tally and has no per-file
// progress hook to drive a determinate bar.
func withSpinner(description string, work func() error) error {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}()

	err := work()
	close(done)
	bar.Finish()
	return err
}
