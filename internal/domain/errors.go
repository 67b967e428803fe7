package domain

import "errors"

var (
	// ErrTitleNotFound signals a title absent from the index.
	ErrTitleNotFound = errors.New("title not found")
	// ErrUnknownMediaType signals a media type outside movie/series.
	ErrUnknownMediaType = errors.New("unknown media type")
	// ErrNoQualifyingTitles rejects a build whose input is empty after filtering.
	ErrNoQualifyingTitles = errors.New("no qualifying titles for index build")
	// ErrArtifactMismatch signals row-count or version divergence between artifacts.
	ErrArtifactMismatch = errors.New("artifact mismatch")
	// ErrArtifactMissing signals an absent or unreadable artifact file.
	ErrArtifactMissing = errors.New("artifact missing")
	// ErrInvalidConfig signals a deployment misconfiguration.
	ErrInvalidConfig = errors.New("invalid configuration")
)
