// Package device provides the oven's leaf components: input sources that
// notify on button presses and door movement, and command sinks for the
// display, light and power tube. None of them carries a state machine.
package device

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Output is a line-oriented log sink.
type Output interface {
	OutputLine(line string)
}

// OutputFunc adapts a function to the Output interface.
type OutputFunc func(line string)

// OutputLine calls f(line).
func (f OutputFunc) OutputLine(line string) { f(line) }

// WriterOutput writes each line, newline terminated, to an io.Writer.
type WriterOutput struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterOutput creates an Output writing to w.
func NewWriterOutput(w io.Writer) *WriterOutput {
	return &WriterOutput{w: w}
}

// OutputLine writes line followed by a newline. Write errors are dropped.
func (o *WriterOutput) OutputLine(line string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, line)
}

type multiOutput []Output

// MultiOutput duplicates every line to each of outs, in order.
func MultiOutput(outs ...Output) Output {
	return multiOutput(outs)
}

func (m multiOutput) OutputLine(line string) {
	for _, o := range m {
		o.OutputLine(line)
	}
}

// Recorder is an Output that keeps every line for test assertions.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OutputLine records the line.
func (r *Recorder) OutputLine(line string) {
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
}

// Lines returns a copy of the recorded lines.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Contains reports whether any recorded line contains substr.
func (r *Recorder) Contains(substr string) bool {
	for _, l := range r.Lines() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// Count returns how many recorded lines equal line exactly.
func (r *Recorder) Count(line string) int {
	n := 0
	for _, l := range r.Lines() {
		if l == line {
			n++
		}
	}
	return n
}

// Reset discards recorded lines.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.lines = nil
	r.mu.Unlock()
}
