package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmedia/gearsync/internal/utils/ptr"
	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/errors"
	"github.com/bmedia/gearsync/pkg/logging"
)

const page = `<!DOCTYPE html>
<html><body>
<a href="https://linktr.ee/">Linktree home</a>
<h1>BostromMediaStrategies</h1>
<h2>IEMs</h2>
<div>
  <a href="https://amzn.to/gate"><img src="https://cdn.example.com/gate.png"><p>$20 Truthear Gate</p></a>
  <a href="https://amzn.to/klean"><p>$50 *B_Media Pick* Kefine Klean</p></a>
  <a href="#top">Back to top</a>
  <a href="https://amzn.to/none"></a>
</div>
<h2>USB DACs</h2>
<a href="https://amzn.to/k7"><img src="/img/k7.webp"><span>$199-ish</span> <span>FiiO K7</span></a>
<a href="https://linktr.ee/next">Next</a>
<h2>#hashtags</h2>
<a href="https://x">$5 Stray</a>
<h2>bostrommediastrategies@gmail.com</h2>
<a href="mailto:b@example.com">Email me</a>
<h3>Headphone Cables and Interconnects by Hart Audio</h3>
<a href="https://hart.example/cable">$80 Hart Cable</a>
<a href="https://linktr.ee/s/privacy">Privacy</a>
<a href="https://linktr.ee/s/report">Report</a>
<h2>Empty Section</h2>
<a href="https://x">DAP Players</a>
</body></html>`

func TestExtractSections(t *testing.T) {
	sections, err := ExtractSections(strings.NewReader(page))
	require.NoError(t, err)

	keys := make([]string, len(sections))
	for i, s := range sections {
		keys[i] = s.Key
	}
	assert.Equal(t, []string{
		"bostrommediastrategies",
		"iems",
		"usb-dacs",
		"bostrommediastrategies@gmail.com",
		"headphone-cables-and-interconnects-by-hart-audio",
		"empty-section",
	}, keys)

	iems := sections[1]
	require.Len(t, iems.Links, 2)
	assert.Equal(t, Link{Text: "$20 Truthear Gate", URL: "https://amzn.to/gate", ImageURL: "https://cdn.example.com/gate.png"}, iems.Links[0])
	assert.Equal(t, "$50 *B_Media Pick* Kefine Klean", iems.Links[1].Text)

	// the hashtag heading is ignored, so its link lands in usb-dacs
	dacs := sections[2]
	require.Len(t, dacs.Links, 3)
	assert.Equal(t, "$199-ish FiiO K7", dacs.Links[0].Text)
	assert.Equal(t, "/img/k7.webp", dacs.Links[0].ImageURL)
}

func TestExtractRepeatedHeadingRestarts(t *testing.T) {
	html := `<h2>IEMs</h2><a href="https://a">$1 A</a><h2>Amps</h2><a href="https://b">$2 B</a>
<h2>IEMs</h2><a href="https://c">$3 C</a>`
	sections, err := ExtractSections(strings.NewReader(html))
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "iems", sections[0].Key)
	require.Len(t, sections[0].Links, 1)
	assert.Equal(t, "$3 C", sections[0].Links[0].Text)
}

func TestParseProductText(t *testing.T) {
	tests := []struct {
		text  string
		name  string
		price *int
		pick  bool
		ok    bool
	}{
		{"$20 Truthear Gate", "Truthear Gate", ptr.To(20), false, true},
		{"$50 *B_Media Pick* Kefine Klean", "Kefine Klean", ptr.To(50), true, true},
		{"$199-ish FiiO K7", "FiiO K7", ptr.To(199), false, true},
		{"Moondrop Aria *Basshead*", "Moondrop Aria", nil, false, true},
		{"[Image: thumb] $30 Tin T2", "Tin T2", ptr.To(30), false, true},
		{"Sennheiser HD600 $299.99 on sale", "Sennheiser HD600 on sale", nil, false, true},
		{"B_Media Pick HiBy R4", "B_Media Pick HiBy R4", nil, true, true},
		{"Previous page", "", nil, false, false},
		{"NEXT", "", nil, false, false},
		{"", "", nil, false, false},
		{"$40", "", nil, false, false},
		{"IEM Recommendations", "", nil, false, false},
		{"DAP Players", "", nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			p, ok := ParseProductText(tt.text, "https://u")
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.name, p.Name)
			assert.Equal(t, tt.price, p.Price)
			assert.Equal(t, tt.pick, p.Pick)
			assert.Equal(t, "https://u", p.URL)
		})
	}
}

func TestCustomPickMarker(t *testing.T) {
	p, ok := NewTextParser("Staff Pick").Parse("$10 *Staff Pick* Foo", "https://u")
	require.True(t, ok)
	assert.True(t, p.Pick)
	assert.Equal(t, "Foo", p.Name)
}

func TestBuildOversizedPrice(t *testing.T) {
	tl := logging.NewTestLogger(t)
	sections := []Section{{Key: "iems", Links: []Link{{Text: "$99999999999999999999 Tin T2", URL: "https://u"}}}}

	cat := New(nil).Build(sections, "https://linktr.ee/x", tl.Logger)

	iems, ok := cat.Category("iems")
	require.True(t, ok)
	require.Len(t, iems.Items, 1)
	assert.Equal(t, "Tin T2", iems.Items[0].Name)
	assert.Nil(t, iems.Items[0].Price)
	tl.AssertContains(t, "Price out of range")
}

func staticFetcher(html string) Fetcher {
	return FetcherFunc(func(context.Context, string) (string, error) { return html, nil })
}

func TestScrape(t *testing.T) {
	s := New(staticFetcher(page))
	cat, err := s.Scrape(context.Background(), "https://linktr.ee/BostromMediaStrategies")
	require.NoError(t, err)

	assert.Equal(t, []string{"iems", "usb-dacs", "headphone-cables-and-interconnects-by-hart-audio"}, cat.Keys())

	iems, _ := cat.Category("iems")
	require.Len(t, iems.Items, 2)
	assert.Equal(t, "Truthear Gate", iems.Items[0].Name)
	assert.Equal(t, "https://cdn.example.com/gate.png", iems.Items[0].ImageSourceURL)
	assert.True(t, iems.Items[1].Pick)
	assert.Empty(t, iems.Items[1].ImageSourceURL)

	dacs, _ := cat.Category("usb-dacs")
	require.Len(t, dacs.Items, 2)
	assert.Equal(t, "FiiO K7", dacs.Items[0].Name)
	assert.Equal(t, "https://linktr.ee/img/k7.webp", dacs.Items[0].ImageSourceURL)
	assert.Equal(t, "Stray", dacs.Items[1].Name)

	cables, _ := cat.Category("headphone-cables-and-interconnects-by-hart-audio")
	assert.Equal(t, []string{"Hart Cable"}, cables.Names())
}

func TestScrapeCustomExclusions(t *testing.T) {
	s := New(staticFetcher(page), WithExclusions(catalog.Exclusions{Categories: []string{"iems"}}))
	cat, err := s.Scrape(context.Background(), "https://linktr.ee/x")
	require.NoError(t, err)
	assert.False(t, cat.Has("iems"))
	assert.True(t, cat.Has("bostrommediastrategies@gmail.com"))

	cables, _ := cat.Category("headphone-cables-and-interconnects-by-hart-audio")
	assert.Contains(t, cables.Names(), "Privacy")
}

func TestScrapeSourceUnavailable(t *testing.T) {
	s := New(FetcherFunc(func(context.Context, string) (string, error) {
		return "", fmt.Errorf("connection refused")
	}))
	cat, err := s.Scrape(context.Background(), "https://linktr.ee/x")
	require.Error(t, err)
	assert.True(t, errors.IsSourceUnavailable(err))
	assert.True(t, cat.IsEmpty())
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/page" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	html, err := (&HTTPFetcher{}).Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Contains(t, html, "Truthear Gate")

	_, err = (&HTTPFetcher{}).Fetch(context.Background(), srv.URL+"/missing")
	assert.True(t, errors.IsSourceUnavailable(err))
}

func TestFileFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))

	cat, err := New(&FileFetcher{Path: path}).Scrape(context.Background(), "https://linktr.ee/x")
	require.NoError(t, err)
	assert.True(t, cat.Has("iems"))

	_, err = (&FileFetcher{Path: filepath.Join(t.TempDir(), "nope.html")}).Fetch(context.Background(), "u")
	assert.True(t, errors.IsSourceUnavailable(err))
}
