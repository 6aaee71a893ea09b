package ffmpeg

import (
	"regexp"
	"strconv"
)

// timePattern matches the elapsed-time token ffmpeg prints on its status
// line, e.g. "time=00:01:23.45".
var timePattern = regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)

// pendingLimit bounds the carry buffer. A status line is well under this;
// anything longer without a time token is noise we can discard.
const pendingLimit = 4096

// ProgressParser extracts elapsed encode time from ffmpeg's stderr stream.
// Status chunks arrive at arbitrary boundaries, so a time token split
// between two reads is carried and reassembled before matching. A token at
// the very end of the buffer is held until the next chunk proves it can no
// longer grow (more fractional digits could still arrive); call Flush once
// the stream closes to emit it.
type ProgressParser struct {
	onElapsed func(seconds float64)
	pending   string
}

// NewProgressParser builds a parser that invokes onElapsed once per parsed
// time token, in stream order.
func NewProgressParser(onElapsed func(seconds float64)) *ProgressParser {
	return &ProgressParser{onElapsed: onElapsed}
}

// Write consumes a raw stderr chunk. Safe to call with partial tokens.
func (p *ProgressParser) Write(chunk []byte) {
	p.pending += string(chunk)

	consumed := 0
	for _, m := range timePattern.FindAllStringSubmatchIndex(p.pending, -1) {
		if m[1] == len(p.pending) {
			// Token touches the buffer end; the fraction may continue
			// in the next chunk. Hold it.
			break
		}
		p.emit(p.pending[m[0]:m[1]])
		consumed = m[1]
	}
	p.pending = p.pending[consumed:]

	if len(p.pending) > pendingLimit {
		p.pending = p.pending[len(p.pending)-pendingLimit:]
	}
}

// Flush processes any buffered trailing segment. Call after the stream ends.
func (p *ProgressParser) Flush() {
	if m := timePattern.FindStringSubmatch(p.pending); m != nil {
		p.emit(m[0])
	}
	p.pending = ""
}

func (p *ProgressParser) emit(token string) {
	match := timePattern.FindStringSubmatch(token)
	if match == nil {
		return
	}
	hours, _ := strconv.Atoi(match[1])
	minutes, _ := strconv.Atoi(match[2])
	seconds, _ := strconv.Atoi(match[3])
	fraction, _ := strconv.ParseFloat("0."+match[4], 64)
	elapsed := float64(hours*3600+minutes*60+seconds) + fraction
	if p.onElapsed != nil {
		p.onElapsed(elapsed)
	}
}
