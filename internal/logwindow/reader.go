package logwindow

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"
)

var initialSpan int64 = 64 << 10

// ReadWindow returns WindowOf over the first size bytes of r, reading only
// the span around the cursor that the window can reach.
func ReadWindow(r io.ReaderAt, size int64, stride int, cursor ...int) (Window, error) {
	pos := size
	if len(cursor) > 0 {
		pos = int64(cursor[0])
	}
	pos = min(max(pos, 0), size)
	stride = clampStride(stride)

	// Room for moving back to the start of a character.
	margin := max(pos-(utf8.UTFMax-1), 0)

	var lo, hi int64
	var span []byte
	for n := initialSpan; ; n *= 2 {
		if stride >= 0 {
			lo, hi = margin, min(pos+n, size)
		} else {
			lo, hi = max(margin-n, 0), min(pos+1, size)
		}
		buf, err := readSpan(r, lo, hi)
		if err != nil {
			return Window{}, err
		}
		span = buf
		if enoughLines(span, lo, hi, pos, margin, size, stride) {
			break
		}
	}

	w := WindowOf(string(span), stride, int(pos-lo))
	w.Start += int(lo)
	w.End += int(lo)
	return w, nil
}

// enoughLines reports whether span holds every line the window can cover.
func enoughLines(span []byte, lo, hi, pos, margin, size int64, stride int) bool {
	if stride >= 0 {
		return hi == size || int64(bytes.Count(span[pos-lo:], []byte{'\n'})) >= int64(stride)
	}
	return lo == 0 || bytes.Count(span[:margin-lo], []byte{'\n'}) >= -stride
}

func readSpan(r io.ReaderAt, lo, hi int64) ([]byte, error) {
	buf := make([]byte, hi-lo)
	n, err := r.ReadAt(buf, lo)
	if err != nil && !(err == io.EOF && int64(n) == hi-lo) {
		return nil, fmt.Errorf("read log span [%d,%d): %w", lo, hi, err)
	}
	return buf, nil
}
