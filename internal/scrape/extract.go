package scrape

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/errors"
)

// Link is one anchor found under a section heading.
type Link struct {
	Text     string
	URL      string
	ImageURL string
}

// Section is a heading and the links that follow it in document order.
type Section struct {
	Key   string
	Links []Link
}

// ExtractSections walks h1, h2, h3, and a elements in document order.
// Headings open a section keyed by catalog.CategoryKey; links before the
// first heading, links without text or href, and in-page anchors are
// dropped. A heading seen again starts its section over in place.
func ExtractSections(r io.Reader) ([]Section, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.WrapParse("html", "page", err)
	}

	var sections []Section
	index := map[string]int{}
	current := -1

	doc.Find("h1, h2, h3, a").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) != "a" {
			key := catalog.CategoryKey(strippedText(s))
			if key == "" || strings.HasPrefix(key, "#") {
				return
			}
			if i, ok := index[key]; ok {
				sections[i].Links = nil
				current = i
				return
			}
			index[key] = len(sections)
			current = len(sections)
			sections = append(sections, Section{Key: key})
			return
		}

		if current < 0 {
			return
		}
		text := strippedText(s)
		href, _ := s.Attr("href")
		if text == "" || href == "" || strings.HasPrefix(href, "#") {
			return
		}
		link := Link{Text: text, URL: href}
		if src, ok := s.Find("img").First().Attr("src"); ok {
			link.ImageURL = src
		}
		sections[current].Links = append(sections[current].Links, link)
	})

	return sections, nil
}

// strippedText joins the trimmed, non-empty text nodes under s with single
// spaces.
func strippedText(s *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
			case "script", "style", "#comment":
			default:
				walk(c)
			}
		})
	}
	walk(s)
	return strings.Join(parts, " ")
}
