// Package sse splits a text/event-stream byte source into event payloads.
package sse

import (
	"bytes"
	"strings"
)

const (
	dataPrefix  = "data: "
	donePayload = "[DONE]"
)

// DonePolicy decides what a "[DONE]" payload does to the stream reading it.
type DonePolicy int

const (
	// StopOnDone ends the stream at the first "[DONE]"; trailing bytes are ignored.
	StopOnDone DonePolicy = iota
	// SkipDone drops the "[DONE]" event and keeps reading until the source ends.
	SkipDone
)

func (p DonePolicy) String() string {
	if p == SkipDone {
		return "skip"
	}
	return "stop"
}

// Frame is the payload of one event.
type Frame struct {
	// Data is the text after the first "data: " prefix of the event.
	Data string
	// Done is set for the "[DONE]" end of stream marker.
	Done bool
}

// Splitter accumulates raw fragments and cuts them into events at blank lines.
// Fragments may be split anywhere, including inside a delimiter or a rune.
type Splitter struct {
	buf []byte
}

// Feed appends a fragment and returns the frames of every event it completed.
func (s *Splitter) Feed(fragment []byte) []Frame {
	s.buf = append(s.buf, fragment...)

	var frames []Frame
	for {
		end := delimiter(s.buf)
		if end < 0 {
			break
		}

		event := strings.ToValidUTF8(string(s.buf[:end]), "\uFFFD")
		s.buf = s.buf[end:]

		if frame, ok := parse(event); ok {
			frames = append(frames, frame)
		}
	}

	// Release the backing array once fully drained.
	if len(s.buf) == 0 {
		s.buf = nil
	}
	return frames
}

// Pending returns the number of buffered bytes not yet forming an event.
func (s *Splitter) Pending() int {
	return len(s.buf)
}

// delimiter returns the end offset of the first blank line delimiter, or -1.
func delimiter(b []byte) int {
	lf := bytes.Index(b, []byte("\n\n"))
	crlf := bytes.Index(b, []byte("\r\n\r\n"))

	switch {
	case lf < 0 && crlf < 0:
		return -1
	case crlf < 0 || (lf >= 0 && lf < crlf):
		return lf + 2
	default:
		return crlf + 4
	}
}

func parse(event string) (Frame, bool) {
	for _, line := range strings.Split(event, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}

		data := line[len(dataPrefix):]
		if data == donePayload {
			return Frame{Done: true}, true
		}
		return Frame{Data: data}, true
	}
	return Frame{}, false
}
