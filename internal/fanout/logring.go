package fanout

// logRing is the bounded log-line buffer: "latest" appends a line,
// "history" replaces the whole buffer keeping only the trailing capacity
// lines. Callers hold the Fanout mutex; the ring itself is not
// goroutine-safe.
type logRing struct {
	capacity int
	lines    []string
}

func newLogRing(capacity int) *logRing {
	return &logRing{capacity: capacity}
}

func (r *logRing) append(line string) {
	r.lines = append(r.lines, line)
	if len(r.lines) > r.capacity {
		r.lines = r.lines[len(r.lines)-r.capacity:]
	}
}

func (r *logRing) replace(lines []string) {
	if len(lines) > r.capacity {
		lines = lines[len(lines)-r.capacity:]
	}
	r.lines = append([]string(nil), lines...)
}

// snapshot returns a defensive copy safe to hand to callers outside the
// lock.
func (r *logRing) snapshot() []string {
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}
