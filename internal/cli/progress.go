package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ProgressBarReporter renders scan progress as a terminal progress bar.
type ProgressBarReporter struct {
	bar *progressbar.ProgressBar
}

// NewProgressBarReporter creates a progress reporter backed by a
// progress bar.
func NewProgressBarReporter() *ProgressBarReporter {
	return &ProgressBarReporter{}
}

func (p *ProgressBarReporter) OnDiscoveryStart() {}

func (p *ProgressBarReporter) OnDiscoveryComplete(total int) {}

func (p *ProgressBarReporter) OnScanStart(total int) {
	if total == 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Indexing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

func (p *ProgressBarReporter) OnFileScanned(path string) {
	if p.bar != nil {
		p.bar.Add(1)
	}
}

func (p *ProgressBarReporter) OnScanComplete(files int) {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
