// Copyright (C) 2026 Prairie Dog Brewing
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package logging

import (
	"strings"
	"sync"
)

// Tail keeps the most recent log lines in memory so the web status
// page can show them without a log file on disk.
var Tail = NewRingWriter(250)

// RingWriter is an io.Writer that retains the last N lines written.
type RingWriter struct {
	mu    sync.Mutex
	lines []string
	next  int
	count int
}

func NewRingWriter(capacity int) *RingWriter {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingWriter{lines: make([]string, capacity)}
}

func (w *RingWriter) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	w.mu.Lock()
	w.lines[w.next] = line
	w.next = (w.next + 1) % len(w.lines)
	if w.count < len(w.lines) {
		w.count++
	}
	w.mu.Unlock()
	return len(p), nil
}

// Lines returns the retained lines, oldest first.
func (w *RingWriter) Lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, w.count)
	start := (w.next - w.count + len(w.lines)) % len(w.lines)
	for i := 0; i < w.count; i++ {
		out = append(out, w.lines[(start+i)%len(w.lines)])
	}
	return out
}

// Clear drops all retained lines.
func (w *RingWriter) Clear() {
	w.mu.Lock()
	w.count = 0
	w.next = 0
	w.mu.Unlock()
}
