// SPDX-License-Identifier: MIT

// Package mediaurl holds the pure URL classification predicates: scheme
// checks, media heuristics and expected-type inference. No I/O happens here.
package mediaurl

import (
	"strings"
)

// Type is a coarse media classification.
type Type string

const (
	TypeImage   Type = "image"
	TypeVideo   Type = "video"
	TypeUnknown Type = "unknown"
)

// mediaHosts are CDN/storage hosts that serve media with opaque paths.
var mediaHosts = []string{
	"cloudinary.com",
	"storage.googleapis.com",
	"firebasestorage.googleapis.com",
	"amazonaws.com",
	"imgix.net",
}

var imageExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".bmp", ".tiff",
}

var videoExtensions = []string{
	".mp4", ".mov", ".avi", ".webm", ".ogg", ".mkv", ".flv", ".m4v",
}

// videoMarkers are substrings that mark a URL as video content even without
// a recognizable extension. "-SBV-" and "Dynamic motion" are asset-naming
// conventions of the upstream media library.
var videoMarkers = []string{
	".mp4", ".mov", ".webm", "video/", "-sbv-", "dynamic motion",
}

// nonMediaHints disqualify absolute URLs that are clearly API endpoints.
var nonMediaHints = []string{"swagger", "api", "json", "xml", "graphql"}

var videoFieldHints = []string{"video", "movie", "clip"}

var imageFieldHints = []string{"image", "photo", "picture", "thumbnail", "cover", "avatar"}

// IsRelative reports whether the URL is a root-relative path.
func IsRelative(s string) bool {
	return strings.HasPrefix(s, "/") && !isSchemeURL(s)
}

// IsBlob reports whether the URL is a browser blob object URL.
func IsBlob(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "blob:")
}

// IsData reports whether the URL is a data URL.
func IsData(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "data:")
}

// IsDataImage reports whether the URL is an inline image data URL.
func IsDataImage(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "data:image/")
}

// IsDataVideo reports whether the URL is an inline video data URL.
func IsDataVideo(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "data:video/")
}

// IsAbsolute reports whether the URL carries an http or https scheme.
func IsAbsolute(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func isSchemeURL(s string) bool {
	return strings.Contains(s, "://")
}

// HasVideoMarkers reports whether the URL carries any video marker,
// case-insensitively.
func HasVideoMarkers(s string) bool {
	lower := strings.ToLower(s)
	for _, marker := range videoMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// HasMediaExtension reports whether the URL path ends in a known media
// extension, ignoring query strings.
func HasMediaExtension(s string) bool {
	lower := strings.ToLower(s)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func hasImageExtension(s string) bool {
	lower := strings.ToLower(s)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// LooksLikeMedia reports whether the string plausibly references a media
// asset: data/blob URLs, known media hosts, media file extensions, or any
// absolute http(s) URL that does not smell like an API endpoint.
func LooksLikeMedia(s string) bool {
	if s == "" {
		return false
	}
	if IsData(s) || IsBlob(s) {
		return true
	}
	lower := strings.ToLower(s)
	for _, host := range mediaHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	if HasMediaExtension(s) {
		return true
	}
	if IsAbsolute(s) {
		for _, hint := range nonMediaHints {
			if strings.Contains(lower, hint) {
				return false
			}
		}
		return true
	}
	return false
}

// InferExpectedType decides what media type a field should hold. Precedence:
// URL video markers, then URL image cues, then field-name hints, then image.
func InferExpectedType(fieldName, url string) Type {
	if HasVideoMarkers(url) {
		return TypeVideo
	}
	if hasImageExtension(url) || strings.Contains(strings.ToLower(url), "image/") {
		return TypeImage
	}
	lowerField := strings.ToLower(fieldName)
	for _, hint := range videoFieldHints {
		if strings.Contains(lowerField, hint) {
			return TypeVideo
		}
	}
	for _, hint := range imageFieldHints {
		if strings.Contains(lowerField, hint) {
			return TypeImage
		}
	}
	return TypeImage
}
