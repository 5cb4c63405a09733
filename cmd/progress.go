package cmd

import (
	"github.com/creativeprojects/mailpoll/term"
	"github.com/pterm/pterm"
)

// progresser shows a progress bar while the messages are mapped. The bar
// starts on the first update, once the total is known.
type progresser struct {
	title string
	pbar  *pterm.ProgressbarPrinter
	done  int
}

func newProgresser(title string) *progresser {
	return &progresser{
		title: title,
	}
}

func (p *progresser) Update(done, total int) {
	if term.GetLevel() > term.LevelInfo || total <= 1 {
		return
	}
	if p.pbar == nil {
		p.pbar, _ = pterm.DefaultProgressbar.WithTotal(total).WithTitle(p.title).Start()
		if p.pbar == nil {
			return
		}
	}
	if done > p.done {
		p.pbar.Add(done - p.done)
		p.done = done
	}
}

func (p *progresser) Stop() {
	if p.pbar == nil {
		return
	}
	_, _ = p.pbar.Stop()
	p.pbar = nil
}
