package buffer

import "fmt"

// Snapshot is an immutable, versioned view of a document's text.
// A new version is a new Snapshot; nothing ever writes into an existing one.
type Snapshot struct {
	name    string
	version int32
	text    string
}

func New(name string, version int32, text string) Snapshot {
	return Snapshot{name: name, version: version, text: text}
}

func (me Snapshot) Name() string {
	return me.name
}

func (me Snapshot) Version() int32 {
	return me.version
}

// Len returns the length of the text in bytes
func (me Snapshot) Len() int {
	return len(me.text)
}

// Text returns the text in [start,end). Out of range bounds are clamped so callers
// holding a stale range never panic.
func (me Snapshot) Text(start, end int) string {
	start = clamp(start, 0, len(me.text))
	end = clamp(end, start, len(me.text))
	return me.text[start:end]
}

func (me Snapshot) String() string {
	return me.text
}

// Next returns a snapshot of the same document one version ahead.
func (me Snapshot) Next(text string) Snapshot {
	return Snapshot{name: me.name, version: me.version + 1, text: text}
}

func (me Snapshot) ID() string {
	return fmt.Sprintf("%s@%d", me.name, me.version)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
