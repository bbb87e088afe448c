package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/logging"
)

var (
	imageTagRe    = regexp.MustCompile(`\[Image:.*?\]`)
	leadPriceRe   = regexp.MustCompile(`^\$(\d+)`)
	stripLeadRe   = regexp.MustCompile(`^\$\d+(?:-ish)?\s*`)
	stripPricesRe = regexp.MustCompile(`\$\d+(?:\.\d+)?\s*`)
	tagRe         = regexp.MustCompile(`\*[^*]+\*`)
)

// TextParser turns link text such as "$50 *B_Media Pick* Kefine Klean"
// into a product.
type TextParser struct {
	marker   string
	markerRe *regexp.Regexp
}

// NewTextParser returns a parser flagging picks by marker. An empty marker
// uses constants.PickMarker.
func NewTextParser(marker string) *TextParser {
	if marker == "" {
		marker = constants.PickMarker
	}
	return &TextParser{
		marker:   marker,
		markerRe: regexp.MustCompile(`\*` + regexp.QuoteMeta(marker) + `\*`),
	}
}

// Parse extracts name, price, and pick from link text. It returns false for
// text that is not a product: pagination links, section titles, and text
// that is empty once tags and prices are removed.
func (tp *TextParser) Parse(text, url string) (catalog.Product, bool) {
	return tp.parse(text, url, logging.Default())
}

func (tp *TextParser) parse(text, url string, logger *zerolog.Logger) (catalog.Product, bool) {
	text = strings.TrimSpace(imageTagRe.ReplaceAllString(text, ""))

	lower := strings.ToLower(text)
	if text == "" || strings.Contains(lower, "previous") || strings.Contains(lower, "next") {
		return catalog.Product{}, false
	}

	p := catalog.Product{URL: url, Pick: strings.Contains(text, tp.marker)}
	if m := leadPriceRe.FindStringSubmatch(text); m != nil {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			logger.Debug().Err(err).Str("text", text).Msg("Price out of range, recording as unknown")
		} else {
			p.Price = &v
		}
	}

	name := stripLeadRe.ReplaceAllString(text, "")
	name = stripPricesRe.ReplaceAllString(name, "")
	name = tp.markerRe.ReplaceAllString(name, "")
	name = tagRe.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)

	if name == "" || strings.Contains(name, "Recommendation") || strings.Contains(name, "Players") {
		return catalog.Product{}, false
	}
	p.Name = name
	return p, true
}

// ParseProductText parses with the default pick marker.
func ParseProductText(text, url string) (catalog.Product, bool) {
	return defaultParser.Parse(text, url)
}

var defaultParser = NewTextParser("")
