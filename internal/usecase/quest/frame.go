package quest

import "go.uber.org/zap"

// Emit writes one frame of the response stream. A stream is one or two
// search.Snapshot frames, then DeltaFrame frames, then one FollowUpsFrame.
// The second snapshot only follows a place turn that fell back to web.
type Emit func(frame any) error

// DeltaFrame carries one piece of the streamed summary.
type DeltaFrame struct {
	Delta SummaryDelta `json:"delta"`
}

// SummaryDelta is the payload of a DeltaFrame.
type SummaryDelta struct {
	Summary string `json:"summary"`
}

// FollowUpsFrame ends the stream.
type FollowUpsFrame struct {
	FollowUps []string `json:"follow_ups"`
}

// stream forwards frames until the first write error, then drops the rest.
type stream struct {
	emit Emit
	log  *zap.Logger
	err  error
}

func (s *stream) send(frame any) error {
	if s.err != nil {
		return s.err
	}
	if err := s.emit(frame); err != nil {
		s.err = err
		s.log.Info("client stopped reading, finishing turn without it", zap.Error(err))
	}
	return s.err
}

func (s *stream) delta(text string) error {
	return s.send(DeltaFrame{Delta: SummaryDelta{Summary: text}})
}
