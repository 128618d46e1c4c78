// SPDX-License-Identifier: MIT

package mediaurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRelative(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"/assets/x.jpg", true},
		{"/deep/path/img.png", true},
		{"https://cdn.example.com/x.jpg", false},
		{"http://cdn.example.com/x.jpg", false},
		{"x.jpg", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRelative(tt.url), "IsRelative(%q)", tt.url)
	}
}

func TestIsBlobAndData(t *testing.T) {
	assert.True(t, IsBlob("blob:https://app.example.com/550e8400"))
	assert.True(t, IsBlob("BLOB:something"))
	assert.False(t, IsBlob("https://example.com/blob:x"))

	assert.True(t, IsData("data:image/png;base64,iVBOR"))
	assert.True(t, IsDataImage("data:image/png;base64,iVBOR"))
	assert.False(t, IsDataImage("data:text/plain,hello"))
	assert.True(t, IsDataVideo("data:video/mp4;base64,AAAA"))
}

func TestHasVideoMarkers(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.example.com/clip.mp4", true},
		{"https://cdn.example.com/clip.MOV", true},
		{"https://cdn.example.com/foo-SBV-1.bin", true},
		{"https://cdn.example.com/Dynamic Motion reel", true},
		{"https://cdn.example.com/stream?type=video/hls", true},
		{"https://cdn.example.com/photo.jpg", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasVideoMarkers(tt.url), "HasVideoMarkers(%q)", tt.url)
	}
}

func TestLooksLikeMedia(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"data url", "data:image/png;base64,AAAA", true},
		{"blob url", "blob:https://app.example.com/1", true},
		{"cloudinary host", "https://res.cloudinary.com/demo/upload/v1/a", true},
		{"gcs host", "https://storage.googleapis.com/bucket/a", true},
		{"media extension", "https://example.com/x.webp", true},
		{"media extension with query", "https://example.com/x.jpg?w=800", true},
		{"plain absolute url", "https://example.com/some/page", true},
		{"swagger endpoint", "https://example.com/swagger/index.html", false},
		{"api endpoint", "https://example.com/api/v1/things", false},
		{"graphql endpoint", "https://example.com/graphql", false},
		{"relative path", "/assets/x", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeMedia(tt.url))
		})
	}
}

func TestInferExpectedType(t *testing.T) {
	tests := []struct {
		name  string
		field string
		url   string
		want  Type
	}{
		{"url video marker wins", "coverImage", "https://cdn.example.com/x.mp4", TypeVideo},
		{"sbv marker", "thumbnail", "https://cdn.example.com/a-SBV-2", TypeVideo},
		{"image extension", "someField", "https://cdn.example.com/x.png", TypeImage},
		{"image substring", "someField", "https://cdn.example.com/image/upload/a", TypeImage},
		{"video field hint", "promoVideo", "https://cdn.example.com/asset", TypeVideo},
		{"movie field hint", "movieReel", "https://cdn.example.com/asset", TypeVideo},
		{"image field hint", "profilePhoto", "https://cdn.example.com/asset", TypeImage},
		{"default image", "attachment", "https://cdn.example.com/asset", TypeImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferExpectedType(tt.field, tt.url))
		})
	}
}

// Every input must resolve to exactly one type: the precedence chain is total.
func TestInferExpectedType_Total(t *testing.T) {
	inputs := []string{"", "x", "/rel", "blob:x", "data:video/mp4", "https://e.com/a.mp4"}
	for _, url := range inputs {
		got := InferExpectedType("", url)
		assert.Contains(t, []Type{TypeImage, TypeVideo}, got, "url %q", url)
	}
}
