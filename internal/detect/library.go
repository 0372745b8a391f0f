package detect

import (
	"context"

	"github.com/Binidu01/video-fetcher/internal/fetch"
)

// Resolver turns a page URL into rich video metadata. The production
// resolver delegates to an external extraction library; tests supply
// their own.
type Resolver interface {
	// Resolve returns one candidate per video the library can identify
	// at rawURL: zero or one for a single video page, many for a
	// playlist. An unsupported or blocked URL is an error.
	Resolve(ctx context.Context, rawURL string) ([]Candidate, error)
}

// LibraryDetector adapts a Resolver to the Detector interface. It works
// from the original request URL only; the fetched page body is not
// consulted because the library does its own retrieval.
type LibraryDetector struct {
	Resolver Resolver
}

func (d *LibraryDetector) Name() string { return "extraction_library" }

func (d *LibraryDetector) Detect(ctx context.Context, page *fetch.Page) ([]Candidate, error) {
	candidates, err := d.Resolver.Resolve(ctx, page.RequestURL)
	if err != nil {
		return nil, &Error{Detector: d.Name(), Err: err}
	}
	for i := range candidates {
		candidates[i].Methods = MethodExtractionLibrary
	}
	return candidates, nil
}
