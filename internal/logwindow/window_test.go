package logwindow

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testData = strings.Join([]string{"abcd", "efgh", "ijkl", "mnop", "qrst", "uvwx", "yz"}, "\n")

func TestWindowOf_NoCursor(t *testing.T) {
	t.Run("negative stride returns last lines", func(t *testing.T) {
		w := WindowOf(testData, -2)
		assert.Equal(t, "uvwx\nyz", w.Data)
		assert.Equal(t, testData[w.Start:w.End], w.Data)
	})

	t.Run("positive stride returns nothing", func(t *testing.T) {
		w := WindowOf(testData, 10)
		assert.Equal(t, "", w.Data)
		assert.Equal(t, len(testData), w.Start)
		assert.Equal(t, len(testData), w.End)
	})
}

func TestWindowOf_Cursor(t *testing.T) {
	tests := []struct {
		cursor   int
		stride   int
		expected string
		start    int
		end      int
	}{
		{0, -2, "", 0, 0},
		{4, -2, "abcd\n", 0, 5},
		{5, -2, "abcd\n", 0, 5},
		{7, -1, "ef", 5, 7},
		{7, 3, "gh\nijkl\nmnop", 7, 19},
		{19, 2, "\nqrst", 19, 24},
	}

	for _, tt := range tests {
		w := WindowOf(testData, tt.stride, tt.cursor)
		assert.Equal(t, tt.expected, w.Data, "cursor=%d stride=%d", tt.cursor, tt.stride)
		assert.Equal(t, tt.start, w.Start, "cursor=%d stride=%d", tt.cursor, tt.stride)
		assert.Equal(t, tt.end, w.End, "cursor=%d stride=%d", tt.cursor, tt.stride)
		assert.Equal(t, testData[w.Start:w.End], w.Data)
	}
}

func TestWindowOf_ZeroStride(t *testing.T) {
	w := WindowOf(testData, 0, 7)
	assert.Equal(t, Window{Data: "", Start: 7, End: 7}, w)
}

func TestWindowOf_ClampsCursor(t *testing.T) {
	w := WindowOf(testData, -1, 1000)
	assert.Equal(t, "yz", w.Data)
	assert.Equal(t, len(testData), w.End)

	w = WindowOf(testData, 1, -50)
	assert.Equal(t, "abcd", w.Data)
	assert.Equal(t, 0, w.Start)
}

func TestWindowOf_ClampsStride(t *testing.T) {
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = "line"
	}
	buf := strings.Join(lines, "\n")

	back := WindowOf(buf, -1000)
	assert.Len(t, strings.Split(back.Data, "\n"), MaxStride)

	fwd := WindowOf(buf, 1000, 0)
	assert.Len(t, strings.Split(fwd.Data, "\n"), MaxStride)
}

func TestWindowOf_EmptyBuffer(t *testing.T) {
	for _, stride := range []int{-5, 0, 5} {
		w := WindowOf("", stride)
		assert.Equal(t, Window{}, w)
	}
}

func TestWindowOf_RoundTrip(t *testing.T) {
	buffers := []string{
		testData,
		"\n\n\n",
		"single line",
		"trailing\nnewline\n",
		"\nleading",
	}
	for _, buf := range buffers {
		for cursor := -1; cursor <= len(buf)+1; cursor++ {
			for stride := -40; stride <= 40; stride += 3 {
				w := WindowOf(buf, stride, cursor)
				require.LessOrEqual(t, 0, w.Start)
				require.LessOrEqual(t, w.Start, w.End)
				require.LessOrEqual(t, w.End, len(buf))
				require.Equal(t, buf[w.Start:w.End], w.Data, "buf=%q cursor=%d stride=%d", buf, cursor, stride)
			}
		}
	}
}

func TestWindowOf_BackwardPagingDoesNotRepeat(t *testing.T) {
	for _, k := range []int{2, 3, 4} {
		cursor := len(testData)
		var pages []string
		for i := 0; i < 20; i++ {
			w := WindowOf(testData, -k, cursor)
			if w.Data == "" {
				break
			}
			require.LessOrEqual(t, w.End, cursor)
			pages = append([]string{w.Data}, pages...)
			cursor = w.Start
		}
		assert.Equal(t, testData, strings.Join(pages, ""), "stride -%d", k)
	}
}

func TestWindowOf_ForwardPagingDoesNotRepeat(t *testing.T) {
	for _, k := range []int{2, 5} {
		cursor := 0
		var b strings.Builder
		for i := 0; i < 20; i++ {
			w := WindowOf(testData, k, cursor)
			if w.End == cursor {
				break
			}
			b.WriteString(w.Data)
			cursor = w.End
		}
		assert.Equal(t, testData, b.String(), "stride %d", k)
	}
}

func TestWindowOf_SingleLineStrideStopsAtBoundary(t *testing.T) {
	// one line forward from the end of "abcd" only sees the empty fragment
	// before the newline
	w := WindowOf(testData, 1, 4)
	assert.Equal(t, Window{Data: "", Start: 4, End: 4}, w)

	w = WindowOf(testData, -1, 30)
	assert.Equal(t, Window{Data: "", Start: 30, End: 30}, w)
}

func TestTail(t *testing.T) {
	assert.Equal(t, WindowOf(testData, -3), Tail(testData, -3))
}

func TestWindowOf_CursorInsideCharacter(t *testing.T) {
	buf := "héllo\nwörld\n"
	inE := strings.Index(buf, "é") + 1
	inO := strings.Index(buf, "ö") + 1

	w := WindowOf(buf, 1, inE)
	assert.Equal(t, Window{Data: "éllo", Start: inE - 1, End: inE - 1 + len("éllo")}, w)
	assert.True(t, utf8.ValidString(w.Data))

	w = WindowOf(buf, -1, inO)
	assert.Equal(t, "w", w.Data)
	assert.Equal(t, inO-1, w.End)
	assert.Equal(t, buf[w.Start:w.End], w.Data)
}
