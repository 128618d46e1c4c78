// SPDX-License-Identifier: MIT

package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathString(t *testing.T) {
	p := Path{Key("media"), Index(0), Key("url")}
	assert.Equal(t, "media.0.url", p.String())
	assert.Equal(t, "", Path{}.String())
	assert.Equal(t, "profileImage", Path{Key("profileImage")}.String())
}

func TestParsePathRoundTrip(t *testing.T) {
	for _, s := range []string{"profileImage", "media.0.url", "a.b.c", "gallery.12.thumbnail"} {
		assert.Equal(t, s, ParsePath(s).String())
	}
	assert.Nil(t, ParsePath(""))
}

func TestPathChildDoesNotMutate(t *testing.T) {
	base := Path{Key("media")}
	a := base.Child(Index(0))
	b := base.Child(Index(1))
	assert.Equal(t, "media.0", a.String())
	assert.Equal(t, "media.1", b.String())
	assert.Equal(t, "media", base.String())
}

func TestPathHasIndexAndLeafKey(t *testing.T) {
	withIndex := Path{Key("media"), Index(0), Key("url")}
	assert.True(t, withIndex.HasIndex())
	assert.Equal(t, "url", withIndex.LeafKey())

	flat := Path{Key("profile"), Key("avatar")}
	assert.False(t, flat.HasIndex())
	assert.Equal(t, "avatar", flat.LeafKey())

	endsInIndex := Path{Key("tags"), Index(3)}
	assert.Equal(t, "", endsInIndex.LeafKey())
	assert.Equal(t, "", Path{}.LeafKey())
}

func TestPathFieldNames(t *testing.T) {
	p := Path{Key("media"), Index(0), Key("url")}
	assert.Equal(t, []string{"media", "url"}, p.FieldNames())
}

// A parsed digit segment addresses an index only when the container it
// traverses is a sequence; against a mapping it stays a key.
func TestRawSegmentResolution(t *testing.T) {
	seqDoc := Mapping(map[string]Value{
		"media": Sequence(Mapping(map[string]Value{"url": String("https://cdn.example.com/a.jpg")})),
	})
	v, ok := Read(seqDoc, ParsePath("media.0.url"))
	require.True(t, ok)
	s, _ := v.Str()
	assert.Equal(t, "https://cdn.example.com/a.jpg", s)

	mapDoc := Mapping(map[string]Value{
		"media": Mapping(map[string]Value{
			"0": Mapping(map[string]Value{"url": String("keyed")}),
		}),
	})
	v, ok = Read(mapDoc, ParsePath("media.0.url"))
	require.True(t, ok)
	s, _ = v.Str()
	assert.Equal(t, "keyed", s)
}
