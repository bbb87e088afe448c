// Package scrape reads the link page and turns it into a catalog.
//
// Fetching (headless browser, plain HTTP, or a saved file) is separate from
// extraction, which walks headings and links with goquery, and from link
// text parsing, which pulls out price, pick flag, and display name.
package scrape

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/errors"
	"github.com/bmedia/gearsync/pkg/logging"
)

// Scraper fetches the link page and builds the scraped catalog.
type Scraper struct {
	fetcher    Fetcher
	parser     *TextParser
	exclusions catalog.Exclusions
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithPickMarker sets the text that flags a featured pick.
func WithPickMarker(marker string) Option {
	return func(s *Scraper) {
		s.parser = NewTextParser(marker)
	}
}

// WithExclusions replaces the default exclusions.
func WithExclusions(e catalog.Exclusions) Option {
	return func(s *Scraper) {
		s.exclusions = e
	}
}

// New creates a Scraper using fetcher.
func New(fetcher Fetcher, opts ...Option) *Scraper {
	s := &Scraper{
		fetcher:    fetcher,
		parser:     NewTextParser(""),
		exclusions: catalog.DefaultExclusions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape fetches pageURL and parses it. Any fetch or extraction failure is
// returned as a *errors.SourceError; callers treat that as an empty source.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (*catalog.Catalog, error) {
	ctx = logging.WithSource(ctx, pageURL)
	logger := logging.FromContext(ctx)

	html, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		var se *errors.SourceError
		if errors.As(err, &se) {
			return catalog.New(), err
		}
		return catalog.New(), errors.NewSourceError(pageURL, "fetch", err)
	}

	sections, err := ExtractSections(strings.NewReader(html))
	if err != nil {
		return catalog.New(), errors.NewSourceError(pageURL, "extract", err)
	}

	cat := s.Build(sections, pageURL, logger)
	logger.Info().
		Int("categories", cat.Len()).
		Int("products", cat.ProductCount()).
		Msg("Parsed link page")
	return cat, nil
}

// Build turns extracted sections into a catalog. Excluded categories and
// items are skipped, and categories left without products are dropped.
// Relative image URLs are resolved against pageURL.
func (s *Scraper) Build(sections []Section, pageURL string, logger *zerolog.Logger) *catalog.Catalog {
	if logger == nil {
		logger = logging.Default()
	}
	base, _ := url.Parse(pageURL)

	cat := catalog.New()
	for _, sec := range sections {
		if s.exclusions.ExcludesCategory(sec.Key) {
			logger.Debug().Str("category", sec.Key).Msg("Category excluded")
			continue
		}

		var items []catalog.Product
		for _, link := range sec.Links {
			p, ok := s.parser.parse(link.Text, link.URL, logger)
			if !ok {
				logger.Debug().Str("category", sec.Key).Str("text", link.Text).Msg("Skipped link")
				continue
			}
			if s.exclusions.ExcludesItem(sec.Key, p.Name) {
				logger.Debug().Str("category", sec.Key).Str("product", p.Name).Msg("Item excluded")
				continue
			}
			p.ImageSourceURL = resolve(base, link.ImageURL)
			items = append(items, p)
		}

		if len(items) == 0 {
			continue
		}
		cat.Set(catalog.Category{Key: sec.Key, Items: items})
		logger.Debug().Str("category", sec.Key).Int("items", len(items)).Msg("Parsed category")
	}
	return cat
}

func resolve(base *url.URL, ref string) string {
	if ref == "" || base == nil || strings.HasPrefix(ref, "data:") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
