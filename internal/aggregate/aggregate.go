// Package aggregate runs the three video detectors over a single page
// fetch and merges their raw candidates into one deduplicated, ordered
// result.
package aggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Binidu01/video-fetcher/internal/config"
	"github.com/Binidu01/video-fetcher/internal/detect"
	"github.com/Binidu01/video-fetcher/internal/fetch"
)

// defaultPrecedence orders detectors by reliability, most trusted
// first. A higher-precedence detector's descriptive fields win when the
// same URL is found more than once.
var defaultPrecedence = []string{"extraction_library", "tag_scan", "pattern_scan"}

// Result is the envelope returned to the CLI and API layers.
type Result struct {
	URL         string             `json:"url"`
	Videos      []detect.Candidate `json:"videos"`
	MethodsUsed []string           `json:"methods_used"`
	Errors      []string           `json:"errors"`
}

// PageFetcher retrieves a page once per request. *fetch.Client is the
// production implementation.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Page, error)
}

// Aggregator owns a request's fan-out over the detectors and the
// deterministic merge of their output.
type Aggregator struct {
	fetcher    PageFetcher
	detectors  map[string]detect.Detector
	precedence []string
}

// New builds an Aggregator with the production detector set: the
// extraction-library adapter, the tag scanner, and the pattern scanner.
func New(cfg *config.Config) *Aggregator {
	return NewWithDetectors(
		fetch.NewClient(cfg.Timeout(), cfg.UserAgent),
		[]detect.Detector{
			&detect.LibraryDetector{Resolver: detect.NewYouTubeResolver()},
			&detect.TagScanner{},
			&detect.PatternScanner{},
		},
		cfg.Precedence,
	)
}

// NewWithDetectors wires an explicit fetcher and detector set. An empty
// or invalid precedence falls back to the default reliability order;
// detectors not named in the precedence are appended in default order.
func NewWithDetectors(fetcher PageFetcher, detectors []detect.Detector, precedence []string) *Aggregator {
	byName := make(map[string]detect.Detector, len(detectors))
	for _, d := range detectors {
		byName[d.Name()] = d
	}

	order := make([]string, 0, len(byName))
	seen := make(map[string]bool)
	for _, name := range precedence {
		if _, ok := byName[name]; ok && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}
	for _, name := range defaultPrecedence {
		if _, ok := byName[name]; ok && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}

	return &Aggregator{
		fetcher:    fetcher,
		detectors:  byName,
		precedence: order,
	}
}

// Run fetches rawURL once, fans the detectors out over the shared page,
// and merges their candidates. Only an invalid URL or a failed page
// fetch is a hard error; detector failures land in Result.Errors.
func (a *Aggregator) Run(ctx context.Context, rawURL string) (*Result, error) {
	if _, err := fetch.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	page, err := a.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	type detection struct {
		candidates []detect.Candidate
		err        error
	}

	results := make(map[string]*detection, len(a.precedence))
	var wg sync.WaitGroup
	for _, name := range a.precedence {
		d := a.detectors[name]
		res := &detection{}
		results[name] = res

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					res.err = fmt.Errorf("%s: panic: %v", d.Name(), r)
				}
			}()
			res.candidates, res.err = d.Detect(ctx, page)
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, &fetch.Error{URL: rawURL, Err: ctx.Err()}
	}

	result := &Result{
		URL:         rawURL,
		Videos:      []detect.Candidate{},
		MethodsUsed: []string{},
		Errors:      []string{},
	}

	ordered := make([][]detect.Candidate, 0, len(a.precedence))
	for _, name := range a.precedence {
		res := results[name]
		if res.err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, unwrapDetectorError(res.err)))
			continue
		}
		result.MethodsUsed = append(result.MethodsUsed, name)
		ordered = append(ordered, res.candidates)
	}

	result.Videos = merge(ordered)
	return result, nil
}

// unwrapDetectorError drops the detector-name prefix a *detect.Error
// already carries so error strings don't repeat it.
func unwrapDetectorError(err error) error {
	if de, ok := err.(*detect.Error); ok {
		return de.Err
	}
	return err
}

// merge deduplicates candidates across the precedence-ordered detector
// outputs. First-seen order is preserved; a duplicate found later only
// contributes its method bit, missing descriptive fields, and any Extra
// keys the earlier record lacks.
func merge(ordered [][]detect.Candidate) []detect.Candidate {
	index := make(map[string]int)
	out := []detect.Candidate{}

	for _, list := range ordered {
		for _, c := range list {
			key, ok := NormalizeURL(c.URL)
			if !ok {
				continue
			}

			i, dup := index[key]
			if !dup {
				merged := c
				merged.Extra = cloneExtra(c.Extra)
				index[key] = len(out)
				out = append(out, merged)
				continue
			}

			out[i].Methods |= c.Methods
			if out[i].Title == "" {
				out[i].Title = c.Title
			}
			if out[i].Duration == 0 {
				out[i].Duration = c.Duration
			}
			if out[i].MediaType == "" {
				out[i].MediaType = c.MediaType
			}
			for k, v := range c.Extra {
				if _, exists := out[i].Extra[k]; !exists {
					out[i].SetExtra(k, v)
				}
			}
		}
	}

	return out
}

func cloneExtra(extra map[string]string) map[string]string {
	if extra == nil {
		return nil
	}
	clone := make(map[string]string, len(extra))
	for k, v := range extra {
		clone[k] = v
	}
	return clone
}

// RunWithTimeout is a convenience wrapper that bounds the whole request.
func (a *Aggregator) RunWithTimeout(parent context.Context, rawURL string, timeout time.Duration) (*Result, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return a.Run(ctx, rawURL)
}
