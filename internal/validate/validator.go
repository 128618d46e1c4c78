// SPDX-License-Identifier: MIT

// Package validate combines URL classification and HTTP probing into a
// single verdict per URL. Validation never fails with an error: every
// outcome, including transport failures, becomes a Verdict.
package validate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pbartsch/mediamend/internal/mediaurl"
	"github.com/pbartsch/mediamend/internal/metrics"
	"github.com/pbartsch/mediamend/internal/probe"
)

// Verdict is the outcome of validating one URL.
type Verdict struct {
	URL            string        `json:"url"`
	IsValid        bool          `json:"isValid"`
	HTTPStatus     int           `json:"httpStatus,omitempty"`
	HTTPStatusText string        `json:"httpStatusText,omitempty"`
	ContentType    string        `json:"contentType,omitempty"`
	DetectedType   mediaurl.Type `json:"detectedType"`
	ExpectedType   mediaurl.Type `json:"expectedType,omitempty"`
	Error          string        `json:"error,omitempty"`
	ValidatedAt    time.Time     `json:"validatedAt"`
}

// Prober is the single HTTP capability the validator consumes.
type Prober interface {
	Head(ctx context.Context, url string) (probe.Result, error)
}

// Validator turns URLs into Verdicts.
type Validator struct {
	prober Prober
	now    func() time.Time
}

// Option customises a Validator.
type Option func(*Validator)

// WithClock overrides the timestamp source (tests).
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// New builds a Validator around the given prober.
func New(p Prober, opts ...Option) *Validator {
	v := &Validator{prober: p, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateURL produces the verdict for url. expected may be empty when the
// caller has no type expectation.
func (v *Validator) ValidateURL(ctx context.Context, url string, expected mediaurl.Type) Verdict {
	verdict := v.validate(ctx, url, expected)
	if verdict.IsValid {
		metrics.IncURLCheck("valid")
	} else {
		metrics.IncURLCheck("invalid")
	}
	return verdict
}

// ValidateLocal classifies url without touching the network. Repair scans
// use it to find relative and blob URLs cheaply; URLs that would need a
// probe are reported as valid with their type inferred from URL cues alone.
func (v *Validator) ValidateLocal(url string, expected mediaurl.Type) Verdict {
	verdict := v.classifyLocal(url, expected)
	return verdict
}

func (v *Validator) classifyLocal(url string, expected mediaurl.Type) Verdict {
	verdict := Verdict{
		URL:          url,
		DetectedType: mediaurl.TypeUnknown,
		ValidatedAt:  v.now(),
	}
	if expected == mediaurl.TypeImage || expected == mediaurl.TypeVideo {
		verdict.ExpectedType = expected
	}

	trimmed := strings.TrimSpace(url)
	switch {
	case trimmed == "":
		verdict.HTTPStatus = 400
		verdict.Error = "URL is empty or undefined"
	case mediaurl.IsRelative(trimmed):
		verdict.HTTPStatus = 400
		verdict.Error = "Relative URLs are not supported"
	case mediaurl.IsBlob(trimmed):
		verdict.HTTPStatus = 400
		verdict.Error = "Blob URLs are not supported"
	case mediaurl.IsData(trimmed):
		verdict.IsValid = true
		if mediaurl.IsDataImage(trimmed) {
			verdict.DetectedType = mediaurl.TypeImage
		}
	default:
		verdict.IsValid = true
		if mediaurl.HasVideoMarkers(trimmed) {
			verdict.DetectedType = mediaurl.TypeVideo
		}
	}
	return verdict
}

func (v *Validator) validate(ctx context.Context, url string, expected mediaurl.Type) Verdict {
	verdict := Verdict{
		URL:          url,
		DetectedType: mediaurl.TypeUnknown,
		ValidatedAt:  v.now(),
	}
	if expected == mediaurl.TypeImage || expected == mediaurl.TypeVideo {
		verdict.ExpectedType = expected
	}

	trimmed := strings.TrimSpace(url)
	switch {
	case trimmed == "":
		verdict.HTTPStatus = 400
		verdict.Error = "URL is empty or undefined"
		return verdict
	case mediaurl.IsRelative(trimmed):
		verdict.HTTPStatus = 400
		verdict.Error = "Relative URLs are not supported"
		return verdict
	case mediaurl.IsBlob(trimmed):
		verdict.HTTPStatus = 400
		verdict.Error = "Blob URLs are not supported"
		return verdict
	case mediaurl.IsData(trimmed):
		verdict.IsValid = true
		if mediaurl.IsDataImage(trimmed) {
			verdict.DetectedType = mediaurl.TypeImage
		}
		return verdict
	}

	res, err := v.prober.Head(ctx, trimmed)
	if err != nil {
		verdict.HTTPStatus = 0
		verdict.Error = err.Error()
		return verdict
	}

	verdict.HTTPStatus = res.Status
	verdict.HTTPStatusText = res.StatusText
	verdict.ContentType = res.ContentType

	if res.Status >= 400 {
		verdict.Error = fmt.Sprintf("HTTP %d", res.Status)
		return verdict
	}

	isImage := strings.HasPrefix(res.ContentType, "image/")
	isVideo := strings.HasPrefix(res.ContentType, "video/") || mediaurl.HasVideoMarkers(trimmed)
	switch {
	case isVideo:
		verdict.DetectedType = mediaurl.TypeVideo
	case isImage:
		verdict.DetectedType = mediaurl.TypeImage
	}

	if expected == mediaurl.TypeImage && !isImage {
		verdict.Error = fmt.Sprintf("Expected image, got %s", res.ContentType)
		return verdict
	}
	if expected == mediaurl.TypeVideo && !isVideo {
		verdict.Error = fmt.Sprintf("Expected video, got %s", res.ContentType)
		return verdict
	}

	verdict.IsValid = true
	return verdict
}
