package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"lmchat/internal/fetch"
)

const barWidth = 30

// progressPrinter renders download progress: a redrawn bar on terminals,
// one line per ten percent elsewhere.
type progressPrinter struct {
	w        io.Writer
	tty      bool
	lastStep int
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, tty: isTerminal(w), lastStep: -1}
}

func (p *progressPrinter) handle(ev fetch.Progress) {
	switch ev := ev.(type) {
	case fetch.Started:
		fmt.Fprintln(p.w, "downloading model...")
	case fetch.InProgress:
		p.progress(ev)
	case fetch.Complete:
		if p.tty && p.lastStep >= 0 {
			fmt.Fprintln(p.w)
		}
		fmt.Fprintf(p.w, "model ready: %s\n", ev.Path)
	case fetch.Failed:
		if p.tty && p.lastStep >= 0 {
			fmt.Fprintln(p.w)
		}
		fmt.Fprintf(p.w, "download failed: %s\n", ev.Message)
	}
}

func (p *progressPrinter) progress(ev fetch.InProgress) {
	got := humanize.IBytes(uint64(ev.BytesDownloaded))
	if !ev.PercentKnown() {
		if p.tty {
			fmt.Fprintf(p.w, "\r%s received", got)
			p.lastStep = 0
		}
		return
	}
	total := humanize.IBytes(uint64(ev.TotalBytes))
	if p.tty {
		filled := int(ev.Percent / 100 * barWidth)
		if filled > barWidth {
			filled = barWidth
		}
		bar := strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled)
		fmt.Fprintf(p.w, "\r[%s] %5.1f%% %s / %s", bar, ev.Percent, got, total)
		p.lastStep = int(ev.Percent)
		return
	}
	step := int(ev.Percent) / 10
	if step > p.lastStep {
		p.lastStep = step
		fmt.Fprintf(p.w, "%3d%% %s / %s\n", step*10, got, total)
	}
}
