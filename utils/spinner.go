package utils

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

const frames = `⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏`

// Spinner is a progress indicator with an optional completed/total counter.
type Spinner struct {
	mu         sync.Mutex
	delay      time.Duration
	writer     io.Writer
	message    string
	lastOutput string
	StopMsg    string
	hideCursor bool
	stopChan   chan struct{}
	doneChan   chan struct{}

	done  atomic.Int64
	total atomic.Int64
}

// NewSpinner instantiates a new progress indicator writing to stderr.
func NewSpinner(msg string, d time.Duration, hideCursor bool) *Spinner {
	return NewSpinnerTo(os.Stderr, msg, d, hideCursor)
}

// NewSpinnerTo instantiates a progress indicator writing to w.
func NewSpinnerTo(w io.Writer, msg string, d time.Duration, hideCursor bool) *Spinner {
	return &Spinner{
		delay:      d,
		writer:     w,
		message:    msg,
		hideCursor: hideCursor,
	}
}

// Add grows the expected number of steps shown next to the message.
func (s *Spinner) Add(n int) { s.total.Add(int64(n)) }

// Done marks one step as completed.
func (s *Spinner) Done() { s.done.Add(1) }

// Start starts the progress indicator.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopChan != nil {
		return
	}
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})

	if s.hideCursor && runtime.GOOS != "windows" {
		fmt.Fprint(s.writer, "\033[?25l")
	}
	go s.run(s.stopChan, s.doneChan)
}

func (s *Spinner) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.delay)
	defer ticker.Stop()

	for i := 0; ; i++ {
		s.mu.Lock()
		s.draw([]rune(frames)[i%utf8.RuneCountInString(frames)])
		s.mu.Unlock()

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// draw renders a frame. Caller must hold the lock.
func (s *Spinner) draw(r rune) {
	counter := ""
	if total := s.total.Load(); total > 0 {
		counter = fmt.Sprintf(" %d/%d", s.done.Load(), total)
	}
	output := fmt.Sprintf("\r%s%s%s %c%s", s.message, counter, SuccessColor, r, DefaultColor)
	fmt.Fprint(s.writer, output)
	s.lastOutput = output
}

// Stop stops the progress indicator and prints StopMsg. It waits for the
// last frame to be drawn, so nothing is written after it returns.
func (s *Spinner) Stop() {
	s.mu.Lock()
	stop, done := s.stopChan, s.doneChan
	s.stopChan, s.doneChan = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear()
	s.RestoreCursor()
	if len(s.StopMsg) > 0 {
		fmt.Fprint(s.writer, s.StopMsg)
	}
}

// RestoreCursor restores back the cursor visibility.
func (s *Spinner) RestoreCursor() {
	if s.hideCursor && runtime.GOOS != "windows" {
		fmt.Fprint(s.writer, "\033[?25h")
	}
}

// clear deletes the last line. Caller must hold the lock.
func (s *Spinner) clear() {
	n := utf8.RuneCountInString(s.lastOutput)
	if runtime.GOOS == "windows" {
		fmt.Fprint(s.writer, "\r"+strings.Repeat(" ", n)+"\r")
		s.lastOutput = ""
		return
	}
	fmt.Fprint(s.writer, "\r\033[K") // clear line
	s.lastOutput = ""
}
