// Package grid models a fixed-size character screen that program output
// is written to.
package grid

import (
	"strings"
	"sync"
)

// GetGridCoords converts a linear cell index into column and row.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// Screen is a cols x rows character grid with a cursor. Writing past the
// last column wraps; a newline on the last row scrolls the screen up.
// Screen is safe for concurrent use.
type Screen struct {
	mu     sync.Mutex
	cols   int
	rows   int
	cells  []rune
	cursor int
}

func NewScreen(cols, rows int) *Screen {
	s := &Screen{cols: cols, rows: rows, cells: make([]rune, cols*rows)}
	s.clear()
	return s
}

func (s *Screen) clear() {
	for i := range s.cells {
		s.cells[i] = ' '
	}
	s.cursor = 0
}

func (s *Screen) Size() (cols, rows int) { return s.cols, s.rows }

// Write implements io.Writer.
func (s *Screen) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range string(p) {
		s.put(r)
	}
	return len(p), nil
}

func (s *Screen) put(r rune) {
	if r == '\b' {
		if s.cursor > 0 {
			s.cursor--
			s.cells[s.cursor] = ' '
		}
		return
	}
	if s.cursor >= len(s.cells) {
		s.scroll()
	}
	switch r {
	case '\n':
		_, y := GetGridCoords(s.cursor, s.cols)
		s.cursor = (y + 1) * s.cols
		if s.cursor >= len(s.cells) {
			s.scroll()
		}
	case '\r':
		_, y := GetGridCoords(s.cursor, s.cols)
		s.cursor = y * s.cols
	default:
		s.cells[s.cursor] = r
		s.cursor++
	}
}

// scroll moves every row up by one and blanks the last.
func (s *Screen) scroll() {
	copy(s.cells, s.cells[s.cols:])
	last := s.cells[len(s.cells)-s.cols:]
	for i := range last {
		last[i] = ' '
	}
	s.cursor -= s.cols
}

// Lines returns the screen contents, one string per row, trailing blanks
// trimmed.
func (s *Screen) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]string, s.rows)
	for y := range lines {
		row := s.cells[y*s.cols : (y+1)*s.cols]
		lines[y] = strings.TrimRight(string(row), " ")
	}
	return lines
}

// Cursor returns the cursor's column and row.
func (s *Screen) Cursor() (x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return GetGridCoords(s.cursor, s.cols)
}
