package search

import (
	"encoding/json"
	"sync"
	"time"
)

// Stage names a timed step of a turn.
type Stage string

// Timed stages.
const (
	StageKeywords  Stage = "keyword_generation"
	StageWeb       Stage = "web_search"
	StageImage     Stage = "image_search"
	StageKnowledge Stage = "knowledge_panel"
	StagePlace     Stage = "place_search"
)

var stages = []Stage{StageKeywords, StageWeb, StageImage, StageKnowledge, StagePlace}

// Log records per-stage timings and the raw intent completion.
// Each stage is written once by the step that owns it; stages may record
// concurrently.
type Log struct {
	mu          sync.Mutex
	durations   map[Stage]time.Duration
	rawKeywords string
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{durations: make(map[Stage]time.Duration, len(stages))}
}

// Record stores the elapsed time of a stage. Later writes for the same stage
// are ignored and reported as false.
func (l *Log) Record(stage Stage, d time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.durations[stage]; ok {
		return false
	}
	l.durations[stage] = d
	return true
}

// SetRawKeywords stores the raw intent completion once.
func (l *Log) SetRawKeywords(raw string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rawKeywords == "" {
		l.rawKeywords = raw
	}
}

// Duration returns the recorded time of a stage.
func (l *Log) Duration(stage Stage) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.durations[stage]
	return d, ok
}

// RawKeywords returns the raw intent completion.
func (l *Log) RawKeywords() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rawKeywords
}

// MarshalJSON writes timings as float seconds keyed "<stage>_time".
func (l *Log) MarshalJSON() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]any, len(stages)+1)
	for _, s := range stages {
		out[string(s)+"_time"] = l.durations[s].Seconds()
	}
	if l.rawKeywords != "" {
		out["raw_keywords"] = l.rawKeywords
	} else {
		out["raw_keywords"] = nil
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a stored log. Zero timings are treated as unrecorded.
func (l *Log) UnmarshalJSON(data []byte) error {
	var in map[string]any
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.durations = make(map[Stage]time.Duration, len(stages))
	for _, s := range stages {
		if secs, ok := in[string(s)+"_time"].(float64); ok && secs > 0 {
			l.durations[s] = time.Duration(secs * float64(time.Second))
		}
	}
	if raw, ok := in["raw_keywords"].(string); ok {
		l.rawKeywords = raw
	}
	return nil
}
