// SPDX-License-Identifier: MIT

package document

import (
	"strconv"
	"strings"
)

type segmentKind uint8

const (
	segKey segmentKind = iota
	segIndex
	// segRaw comes from parsing a dotted string: whether it addresses a key
	// or an index is decided at traversal time by the container shape.
	segRaw
)

// Segment is one step of a field path: a mapping key or a sequence index.
type Segment struct {
	kind  segmentKind
	key   string
	index int
}

// Key builds a mapping-key segment.
func Key(k string) Segment { return Segment{kind: segKey, key: k} }

// Index builds a sequence-index segment.
func Index(i int) Segment { return Segment{kind: segIndex, index: i} }

// IsIndex reports whether the segment addresses a sequence element.
func (s Segment) IsIndex() bool { return s.kind == segIndex }

// String renders the segment in dotted-path form.
func (s Segment) String() string {
	if s.kind == segIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// Path addresses a value inside a document. Serialized form joins segments
// with dots; numeric segments denote sequence indices (`media.0.url`).
type Path []Segment

// String renders the dotted form of the path.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Child returns a new path extended by seg. The receiver is not mutated.
func (p Path) Child(seg Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// HasIndex reports whether any segment addresses a sequence element.
func (p Path) HasIndex() bool {
	for _, s := range p {
		if s.kind == segIndex {
			return true
		}
	}
	return false
}

// LeafKey returns the last key segment's name, or the empty string when the
// path is empty or terminates in an index.
func (p Path) LeafKey() string {
	if len(p) == 0 {
		return ""
	}
	last := p[len(p)-1]
	if last.kind == segIndex {
		return ""
	}
	return last.key
}

// FieldNames returns every key segment in order, used for field-name hints.
func (p Path) FieldNames() []string {
	names := make([]string, 0, len(p))
	for _, s := range p {
		if s.kind == segKey {
			names = append(names, s.key)
		}
	}
	return names
}

// ParsePath splits a dotted string into raw segments. A raw segment resolves
// to an index only when the traversed container is a sequence and the segment
// parses as a non-negative integer; otherwise it acts as a mapping key.
// Parsing is therefore lossy for all-digit mapping keys, which the store's
// schema does not use.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ".")
	p := make(Path, len(parts))
	for i, part := range parts {
		if idx, err := strconv.Atoi(part); err == nil && idx >= 0 && part == strconv.Itoa(idx) {
			p[i] = Segment{kind: segRaw, key: part, index: idx}
		} else {
			p[i] = Segment{kind: segKey, key: part}
		}
	}
	return p
}

// resolve pins a raw segment against the container it addresses.
func (s Segment) resolve(container Value) Segment {
	if s.kind != segRaw {
		return s
	}
	if container.Kind() == KindSequence {
		return Segment{kind: segIndex, index: s.index}
	}
	return Segment{kind: segKey, key: s.key}
}
