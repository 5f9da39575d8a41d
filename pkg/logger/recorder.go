package logger

import "sync"

// Entry is one message captured by a Recorder.
type Entry struct {
	Level   string
	Message string
	Fields  []Field
}

// Recorder keeps every entry in memory so tests can assert on log output.
type Recorder struct {
	mu      *sync.Mutex
	entries *[]Entry
	fields  []Field
}

func NewRecorder() *Recorder {
	return &Recorder{mu: &sync.Mutex{}, entries: &[]Entry{}}
}

func (r *Recorder) record(level, msg string, fields []Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := append(append([]Field(nil), r.fields...), fields...)
	*r.entries = append(*r.entries, Entry{Level: level, Message: msg, Fields: all})
}

func (r *Recorder) Debug(msg string, fields ...Field) { r.record("debug", msg, fields) }
func (r *Recorder) Info(msg string, fields ...Field) { r.record("info", msg, fields) }
func (r *Recorder) Warn(msg string, fields ...Field) { r.record("warn", msg, fields) }
func (r *Recorder) Error(msg string, fields ...Field) { r.record("error", msg, fields) }

func (r *Recorder) With(fields ...Field) Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Recorder{mu: r.mu, entries: r.entries, fields: append(append([]Field(nil), r.fields...), fields...)}
}

func (r *Recorder) Sync() error { return nil }

// Entries returns a copy of everything logged so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), (*r.entries)...)
}

// Has reports whether any entry carries msg.
func (r *Recorder) Has(msg string) bool {
	for _, e := range r.Entries() {
		if e.Message == msg {
			return true
		}
	}
	return false
}
