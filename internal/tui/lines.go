package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"imgopt/internal/processor"
)

// LineSink prints run events as plain lines. It is used when stdout is not
// a terminal or --plain is set.
type LineSink struct {
	out   io.Writer
	ok    *color.Color
	fail  *color.Color
	note  *color.Color
	stats processor.Stats
	done  bool
}

func NewLineSink(out io.Writer) *LineSink {
	return &LineSink{
		out:  out,
		ok:   color.New(color.FgGreen),
		fail: color.New(color.FgRed),
		note: color.New(color.FgYellow),
	}
}

func (s *LineSink) OnLog(text string) {
	c := s.note
	switch {
	case strings.HasPrefix(text, "✓"):
		c = s.ok
	case strings.HasPrefix(text, "✗"):
		c = s.fail
	}
	fmt.Fprintln(s.out, c.Sprint(text))
}

func (s *LineSink) OnProgress(int, int) {}

func (s *LineSink) OnComplete(stats processor.Stats) {
	s.stats = stats
	s.done = true
}

func (s *LineSink) Stats() processor.Stats { return s.stats }

func (s *LineSink) Done() bool { return s.done }
