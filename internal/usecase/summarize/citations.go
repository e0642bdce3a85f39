package summarize

import (
	"strconv"
	"strings"
)

const (
	citationMarker = "[citation:"
	// markers with longer numbers are passed through as plain text
	maxCitationDigits = 6
)

// citationFilter drops [citation:N] markers with N outside [0, limit) from a
// stream of deltas. A marker split across deltas is held back until it is
// complete. A nil filter passes text through.
type citationFilter struct {
	limit   int
	pending string
}

func newCitationFilter(limit int) *citationFilter {
	return &citationFilter{limit: limit}
}

// push returns the part of delta that is safe to emit.
func (f *citationFilter) push(delta string) string {
	if f == nil {
		return delta
	}
	in := f.pending + delta
	f.pending = ""

	var out strings.Builder
	for in != "" {
		i := strings.IndexByte(in, '[')
		if i < 0 {
			out.WriteString(in)
			break
		}
		out.WriteString(in[:i])
		in = in[i:]

		if len(in) < len(citationMarker) {
			if strings.HasPrefix(citationMarker, in) {
				f.pending = in
				break
			}
			out.WriteByte('[')
			in = in[1:]
			continue
		}
		if !strings.HasPrefix(in, citationMarker) {
			out.WriteByte('[')
			in = in[1:]
			continue
		}

		rest := in[len(citationMarker):]
		j := 0
		for j < len(rest) && j <= maxCitationDigits && rest[j] >= '0' && rest[j] <= '9' {
			j++
		}
		if j == len(rest) && j <= maxCitationDigits {
			f.pending = in
			break
		}
		if j == 0 || j > maxCitationDigits || rest[j] != ']' {
			out.WriteString(citationMarker)
			in = rest
			continue
		}

		n, _ := strconv.Atoi(rest[:j])
		if n < f.limit {
			out.WriteString(in[:len(citationMarker)+j+1])
		}
		in = rest[j+1:]
	}
	return out.String()
}

// flush returns text held back at the end of the stream.
func (f *citationFilter) flush() string {
	if f == nil {
		return ""
	}
	p := f.pending
	f.pending = ""
	return p
}
