package downloader

import (
	"fmt"
	"io"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"

	"tuneharvest/internal/interfaces"
	"tuneharvest/internal/shared"
)

const progressTemplate = `{{ string . "prefix" }} {{ bar . }} {{ percent . }} | {{ speed . "%s/s" }} | ETA {{ rtime . "%s" }}`

// ProgressBar renders download progress on a terminal
type ProgressBar struct {
	bar  *pb.ProgressBar
	last shared.Progress
}

// NewProgressBar starts a bar labelled with the entry title
func NewProgressBar(w io.Writer, label string) *ProgressBar {
	bar := pb.New64(0)
	bar.SetTemplateString(progressTemplate)
	bar.Set("prefix", shared.TruncateString(label, 40))
	bar.Set(pb.Bytes, true)
	bar.SetMaxWidth(100)
	if w != nil {
		bar.SetWriter(w)
	}
	bar.Start()
	return &ProgressBar{bar: bar}
}

// Hook returns the progress hook feeding this bar
func (p *ProgressBar) Hook() interfaces.ProgressHook {
	return func(prog shared.Progress) {
		if prog.Total > 0 && prog.Total != p.bar.Total() {
			p.bar.SetTotal(prog.Total)
		}
		p.bar.SetCurrent(prog.Downloaded)
		p.last = prog
	}
}

// Finish stops the bar and returns a one-line summary of the transfer
func (p *ProgressBar) Finish() string {
	p.bar.Finish()
	return Summary(p.last)
}

// Summary formats a finished transfer, e.g. "4.2 MB in 3s (1.4 MB/s)"
func Summary(prog shared.Progress) string {
	size := humanize.Bytes(uint64(prog.Downloaded))
	elapsed := prog.Elapsed.Round(time.Second)
	if prog.Speed <= 0 {
		return fmt.Sprintf("%s in %s", size, elapsed)
	}
	return fmt.Sprintf("%s in %s (%s/s)", size, elapsed, humanize.Bytes(uint64(prog.Speed)))
}
