package chzzk_archiver

import (
	"context"

	"github.com/chzzk-archiver/chzzk-archiver/internal/manifest"
)

// SourceInfo describes a matched source after recon.
type SourceInfo interface {
	ID() string
	Title() string
	Channel() string
	Thumbnail() string
}

// A Source is something the archiver knows how to download, produced by a
// Provider matching a URL or bare content ID.
type Source interface {
	// URL returns the canonical URL for the source.
	URL() string
	// Recon fetches metadata ahead of downloading.
	Recon(context.Context, *Download) (ResolvedSource, error)
}

// A ResolvedSource has its metadata and can perform the download.
type ResolvedSource interface {
	Info() SourceInfo
	// Download runs the full pipeline and returns the output path.
	Download(*Download) (string, error)
}

// QualityEnumerator is implemented by resolved sources that offer a choice
// of renditions.
type QualityEnumerator interface {
	Qualities(context.Context, *Download) ([]manifest.Quality, error)
}
