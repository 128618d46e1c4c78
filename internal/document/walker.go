// SPDX-License-Identifier: MIT

package document

import (
	"fmt"
	"strings"

	"github.com/pbartsch/mediamend/internal/mediaurl"
)

// mediaKeyHints marks leaf keys whose string values carry media URLs.
var mediaKeyHints = []string{
	"image", "photo", "picture", "avatar", "thumbnail", "cover", "media", "video", "url",
}

func keyHintsMedia(key string) bool {
	lower := strings.ToLower(key)
	for _, hint := range mediaKeyHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// Discover walks the document and returns the paths of every URL-bearing
// field, in deterministic (sorted-key) order. A path is emitted when
//   - the leaf key name carries a media hint (image, photo, url, ...); or
//   - the leaf sits under a `media` sequence as a mapping with a `url` scalar; or
//   - the leaf string itself looks like a media URL and some ancestor key
//     carries a media hint.
//
// Emitted paths always resolve through Read on the same document.
func Discover(doc Value) []Path {
	var out []Path
	discover(doc, nil, false, &out)
	return out
}

func discover(v Value, prefix Path, ancestorHinted bool, out *[]Path) {
	switch v.Kind() {
	case KindMapping:
		m, _ := v.MappingVal()
		for _, key := range v.Keys() {
			child := m[key]
			childPath := prefix.Child(Key(key))
			switch child.Kind() {
			case KindString:
				s, _ := child.Str()
				if keyHintsMedia(key) {
					*out = append(*out, childPath)
				} else if ancestorHinted && mediaurl.LooksLikeMedia(s) {
					*out = append(*out, childPath)
				}
			case KindNull:
				// Absent media slots still count: the schema names the field.
				if keyHintsMedia(key) {
					*out = append(*out, childPath)
				}
			case KindMapping, KindSequence:
				discover(child, childPath, ancestorHinted || keyHintsMedia(key), out)
			}
		}
	case KindSequence:
		seq, _ := v.SequenceVal()
		for i, elem := range seq {
			childPath := prefix.Child(Index(i))
			switch elem.Kind() {
			case KindString:
				s, _ := elem.Str()
				if ancestorHinted && mediaurl.LooksLikeMedia(s) {
					*out = append(*out, childPath)
				}
			case KindMapping, KindSequence:
				discover(elem, childPath, ancestorHinted, out)
			}
		}
	}
}

// Read resolves a path inside the document. The second return value is false
// when any segment does not resolve (the missing marker).
func Read(doc Value, p Path) (Value, bool) {
	cur := doc
	for _, seg := range p {
		seg = seg.resolve(cur)
		switch {
		case seg.IsIndex():
			seq, ok := cur.SequenceVal()
			if !ok || seg.index < 0 || seg.index >= len(seq) {
				return Null(), false
			}
			cur = seq[seg.index]
		default:
			m, ok := cur.MappingVal()
			if !ok {
				return Null(), false
			}
			child, ok := m[seg.key]
			if !ok {
				return Null(), false
			}
			cur = child
		}
	}
	return cur, true
}

// Apply returns a copy of the document with the value at p replaced by
// newValue. The original document is unchanged.
func Apply(doc Value, p Path, newValue Value) (Value, error) {
	if len(p) == 0 {
		return newValue, nil
	}
	seg := p[0].resolve(doc)
	if seg.IsIndex() {
		seq, ok := doc.SequenceVal()
		if !ok {
			return Null(), fmt.Errorf("segment %q: expected sequence, found %s", seg, doc.Kind())
		}
		if seg.index < 0 || seg.index >= len(seq) {
			return Null(), fmt.Errorf("segment %q: index out of range (len %d)", seg, len(seq))
		}
		child, err := Apply(seq[seg.index], p[1:], newValue)
		if err != nil {
			return Null(), err
		}
		next := make([]Value, len(seq))
		copy(next, seq)
		next[seg.index] = child
		return Sequence(next...), nil
	}
	m, ok := doc.MappingVal()
	if !ok {
		return Null(), fmt.Errorf("segment %q: expected mapping, found %s", seg, doc.Kind())
	}
	cur, ok := m[seg.key]
	if !ok && len(p) > 1 {
		return Null(), fmt.Errorf("segment %q: key not found", seg)
	}
	child, err := Apply(cur, p[1:], newValue)
	if err != nil {
		return Null(), err
	}
	next := make(map[string]Value, len(m)+1)
	for k, v := range m {
		next[k] = v
	}
	next[seg.key] = child
	return Mapping(next), nil
}

// Update is the store-level write computed for one logical field write. When
// the target path crosses a sequence, the store cannot address the element
// directly and the enclosing sequence is rewritten in full: Path is then the
// mapping-addressed prefix and Value the complete rewritten sequence.
type Update struct {
	Path  Path
	Value Value
}

// PlanWrite computes the Update that sets the value at p to newValue.
// The returned update is always mapping-addressed and safe to hand to a
// store's UpdateFields.
func PlanWrite(doc Value, p Path, newValue Value) (Update, error) {
	if len(p) == 0 {
		return Update{}, fmt.Errorf("empty field path")
	}
	applied, err := Apply(doc, p, newValue)
	if err != nil {
		return Update{}, err
	}
	prefix := sequencePrefix(doc, p)
	if prefix == nil {
		// Pure mapping path: direct field update.
		resolved := resolveAll(doc, p)
		return Update{Path: resolved, Value: newValue}, nil
	}
	rewritten, ok := Read(applied, prefix)
	if !ok {
		return Update{}, fmt.Errorf("path %q: ancestor sequence %q vanished", p, prefix)
	}
	return Update{Path: prefix, Value: rewritten}, nil
}

// SequencePrefix returns the mapping-addressed path of the first sequence the
// path descends into, or false when the path never crosses a sequence.
// Callers that batch several writes against the same document use it to
// coalesce sequence rewrites into a single parent update.
func SequencePrefix(doc Value, p Path) (Path, bool) {
	prefix := sequencePrefix(doc, p)
	return prefix, prefix != nil
}

// sequencePrefix returns the mapping-addressed path of the first sequence the
// path descends into, or nil when the path never crosses a sequence.
func sequencePrefix(doc Value, p Path) Path {
	cur := doc
	for i, seg := range p {
		seg = seg.resolve(cur)
		if seg.IsIndex() {
			prefix := make(Path, i)
			copy(prefix, p[:i])
			return resolveAll(doc, prefix)
		}
		m, ok := cur.MappingVal()
		if !ok {
			return nil
		}
		child, ok := m[seg.key]
		if !ok {
			return nil
		}
		cur = child
	}
	return nil
}

// resolveAll pins raw segments against the document so the returned path
// serializes identically to the one discovery would emit.
func resolveAll(doc Value, p Path) Path {
	out := make(Path, len(p))
	cur := doc
	for i, seg := range p {
		seg = seg.resolve(cur)
		out[i] = seg
		if seg.IsIndex() {
			seq, ok := cur.SequenceVal()
			if !ok || seg.index >= len(seq) {
				return out
			}
			cur = seq[seg.index]
			continue
		}
		m, ok := cur.MappingVal()
		if !ok {
			return out
		}
		cur = m[seg.key]
	}
	return out
}
