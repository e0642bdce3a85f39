package quest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameSize caps one NDJSON line. Snapshots carry crawled page text.
const maxFrameSize = 8 << 20

type rawFrame struct {
	ThreadID  *string          `json:"thread_id"`
	Delta     *json.RawMessage `json:"delta"`
	FollowUps *[]string        `json:"follow_ups"`
}

type deltaPayload struct {
	Summary string `json:"summary"`
}

// decodeFrame classifies a line by its keys. Snapshots also carry
// follow_ups, so thread_id is checked first.
func decodeFrame(line []byte) (Frame, string, error) {
	var raw rawFrame
	if err := json.Unmarshal(line, &raw); err != nil {
		return Frame{}, "", fmt.Errorf("decode frame: %w", err)
	}
	switch {
	case raw.ThreadID != nil:
		var s Snapshot
		if err := json.Unmarshal(line, &s); err != nil {
			return Frame{}, "", fmt.Errorf("decode snapshot: %w", err)
		}
		return Frame{Snapshot: &s}, "snapshot", nil
	case raw.Delta != nil:
		var d deltaPayload
		if err := json.Unmarshal(*raw.Delta, &d); err != nil {
			return Frame{}, "", fmt.Errorf("decode delta: %w", err)
		}
		return Frame{Delta: d.Summary}, "delta", nil
	case raw.FollowUps != nil:
		fu := *raw.FollowUps
		if fu == nil {
			fu = []string{}
		}
		return Frame{FollowUps: fu}, "follow_ups", nil
	default:
		return Frame{}, "", fmt.Errorf("decode frame: unknown shape %.64q", line)
	}
}

// readStream decodes frames until EOF, folding them into an Answer and
// handing each to fn. A non-nil error from fn stops the read.
func readStream(r io.Reader, obs *observer, fn func(Frame) error) (*Answer, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxFrameSize)

	ans := &Answer{}
	var summary bytes.Buffer
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		f, kind, err := decodeFrame(line)
		if err != nil {
			return ans, err
		}
		obs.frame(kind)
		ans.Frames++

		switch {
		case f.Snapshot != nil:
			ans.Snapshot = f.Snapshot
		case f.FollowUps != nil:
			ans.FollowUps = f.FollowUps
		default:
			summary.WriteString(f.Delta)
		}
		ans.Summary = summary.String()

		if fn != nil {
			if err := fn(f); err != nil {
				return ans, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return ans, fmt.Errorf("read stream: %w", err)
	}
	if ans.Summary == "" && ans.Snapshot != nil && ans.Snapshot.Summary != nil {
		ans.Summary = *ans.Snapshot.Summary
	}
	return ans, nil
}
