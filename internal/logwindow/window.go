// Package logwindow computes bounded, line-aligned slices of an append-only
// text buffer around a cursor so that callers can page through a growing log
// without re-reading or duplicating lines.
package logwindow

import (
	"strings"
	"unicode/utf8"
)

// MaxStride is the largest number of lines a single window may span.
const MaxStride = 32

// Window is a slice of the underlying buffer. Data always equals
// buffer[Start:End].
type Window struct {
	Data  string `json:"data"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// WindowOf returns up to |stride| lines of buffer starting at cursor when
// stride is positive, or ending at cursor when stride is negative. The cursor
// defaults to len(buffer). Offsets are byte offsets; a cursor inside a
// multi-byte character moves back to the character's first byte.
//
// To continue paging, pass the previous End (forward) or Start (backward) as
// the next cursor.
func WindowOf(buffer string, stride int, cursor ...int) Window {
	pos := len(buffer)
	if len(cursor) > 0 {
		pos = cursor[0]
	}
	pos = clamp(pos, 0, len(buffer))
	for i := 0; i < utf8.UTFMax-1 && pos > 0 && pos < len(buffer) && !utf8.RuneStart(buffer[pos]); i++ {
		pos--
	}
	stride = clampStride(stride)

	forward := stride >= 0
	// A cursor sitting on a newline belongs to the line before it when paging
	// backward, otherwise the boundary line would be returned twice.
	if pos < len(buffer) && buffer[pos] == '\n' && !forward {
		pos++
	}

	var lines []string
	if forward {
		lines = strings.Split(buffer[pos:], "\n")
		lines = lines[:min(stride, len(lines))]
	} else {
		lines = strings.Split(buffer[:pos], "\n")
		lines = lines[max(len(lines)+stride, 0):]
	}
	data := strings.Join(lines, "\n")

	if forward {
		return Window{Data: data, Start: pos, End: pos + len(data)}
	}
	return Window{Data: data, Start: pos - len(data), End: pos}
}

// Tail is WindowOf with the cursor at the end of buffer.
func Tail(buffer string, stride int) Window {
	return WindowOf(buffer, stride)
}

func clampStride(stride int) int {
	switch {
	case stride > MaxStride:
		return MaxStride
	case stride < -MaxStride:
		return -MaxStride
	}
	return stride
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
