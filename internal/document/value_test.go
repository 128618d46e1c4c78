// SPDX-License-Identifier: MIT

package document

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKinds(t *testing.T) {
	assert.Equal(t, KindNull, Null().Kind())
	assert.Equal(t, KindBool, Bool(true).Kind())
	assert.Equal(t, KindNumber, Number(4.5).Kind())
	assert.Equal(t, KindString, String("x").Kind())
	assert.Equal(t, KindTimestamp, Timestamp(time.Now()).Kind())
	assert.Equal(t, KindSequence, Sequence().Kind())
	assert.Equal(t, KindMapping, Mapping(nil).Kind())

	var zero Value
	assert.True(t, zero.IsNull())
}

func TestValueAccessors(t *testing.T) {
	s, ok := String("hello").Str()
	require.True(t, ok)
	assert.Equal(t, "hello", s)

	_, ok = Number(1).Str()
	assert.False(t, ok)

	n, ok := Number(3.25).NumberVal()
	require.True(t, ok)
	assert.Equal(t, 3.25, n)

	b, ok := Bool(true).BoolVal()
	require.True(t, ok)
	assert.True(t, b)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts, ok := Timestamp(now).TimestampVal()
	require.True(t, ok)
	assert.True(t, ts.Equal(now))
}

func TestValueEqual(t *testing.T) {
	a := Mapping(map[string]Value{
		"name":  String("a"),
		"tags":  Sequence(String("x"), String("y")),
		"count": Number(2),
	})
	b := Mapping(map[string]Value{
		"name":  String("a"),
		"tags":  Sequence(String("x"), String("y")),
		"count": Number(2),
	})
	assert.True(t, a.Equal(b))

	c := Mapping(map[string]Value{
		"name":  String("a"),
		"tags":  Sequence(String("x"), String("z")),
		"count": Number(2),
	})
	assert.False(t, a.Equal(c))
	assert.False(t, String("1").Equal(Number(1)))
}

func TestValueClone(t *testing.T) {
	orig := Mapping(map[string]Value{
		"media": Sequence(Mapping(map[string]Value{"url": String("/a.jpg")})),
	})
	clone := orig.Clone()
	require.True(t, orig.Equal(clone))

	// Mutating the clone's containers must not leak into the original.
	m, _ := clone.MappingVal()
	m["media"] = Null()
	seq, ok := orig.m["media"].SequenceVal()
	require.True(t, ok)
	assert.Len(t, seq, 1)
}

func TestFromGoToGoRoundTrip(t *testing.T) {
	in := map[string]any{
		"name":   "Yacht A",
		"active": true,
		"length": 42.5,
		"media": []any{
			map[string]any{"url": "https://cdn.example.com/a.jpg", "type": "image"},
		},
		"notes": nil,
	}
	v := FromGo(in)
	require.Equal(t, KindMapping, v.Kind())

	out := v.ToGo()
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestToGoTimestampFormatting(t *testing.T) {
	ts := time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC)
	v := FromGo(map[string]any{"updatedAt": ts})
	out, ok := v.ToGo().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2026-08-24T10:30:00Z", out["updatedAt"])
}

func TestKeysSorted(t *testing.T) {
	v := Mapping(map[string]Value{"zeta": Null(), "alpha": Null(), "mid": Null()})
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, v.Keys())
	assert.Nil(t, String("x").Keys())
}
