package formatter

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const (
	spinnerInterval = 80 * time.Millisecond
	// Elapsed time is only shown once an operation is noticeably slow.
	spinnerShowElapsed = 2 * time.Second
)

// Spinner animates a one-line progress message until stopped.
type Spinner struct {
	w       io.Writer
	message string
	now     func() time.Time

	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:       w,
		message: message,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *Spinner) Start() {
	started := s.now()
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.stop:
				fmt.Fprint(s.w, "\r\033[K")
				return
			case <-ticker.C:
				fmt.Fprint(s.w, "\r"+s.frame(i, s.now().Sub(started)))
			}
		}
	}()
}

// frame renders tick i of the animation after elapsed.
func (s *Spinner) frame(i int, elapsed time.Duration) string {
	line := fmt.Sprintf("  %s %s", StylePurple.Render(spinnerFrames[i%len(spinnerFrames)]), Dim(s.message))
	if elapsed >= spinnerShowElapsed {
		line += Dim(fmt.Sprintf(" (%ds)", int(elapsed.Seconds())))
	}
	return line
}

// Stop clears the line once Start has run. Later calls do nothing.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.stop)
		<-s.done
	})
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// StartSpinner starts a spinner on w and returns the function that stops it.
// Nothing is drawn unless w is a terminal.
func StartSpinner(w io.Writer, message string) func() {
	if !IsTerminal(w) {
		return func() {}
	}
	s := NewSpinner(w, message)
	s.Start()
	return s.Stop
}
