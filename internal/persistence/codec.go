package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/errors"
)

// CatalogVar is the JavaScript variable the site reads the catalog from.
const CatalogVar = "gearData"

// Decode parses catalog file content in the given format.
// Blank content decodes to an empty catalog.
func Decode(data []byte, format Format) (*catalog.Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return catalog.New(), nil
	}

	var obj Object
	switch format {
	case FormatJS:
		o, err := ParseLiteral(string(data), CatalogVar)
		if err != nil {
			return nil, parseError(format, err)
		}
		obj = o
	case FormatJSON:
		o, err := ParseLiteral(string(data), "")
		if err != nil {
			return nil, parseError(format, err)
		}
		obj = o
	case FormatYAML:
		o, err := decodeYAML(data)
		if err != nil {
			return nil, parseError(format, err)
		}
		obj = o
	default:
		return nil, errors.NewValidationError("format", string(format), "unsupported catalog format")
	}

	cat, err := catalogFromObject(obj)
	if err != nil {
		return nil, parseError(format, err)
	}
	return cat, nil
}

func parseError(format Format, err error) *errors.ParseError {
	pe := errors.NewParseError(string(format), "", err.Error(), err)
	var se *syntaxError
	if errors.As(err, &se) {
		pe.Line, pe.Column, pe.Message = se.line, se.col, se.msg
	}
	return pe
}

func decodeYAML(data []byte) (Object, error) {
	var v any
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
		return nil, err
	}
	root, ok := fromYAML(v).(Object)
	if !ok {
		return nil, fmt.Errorf("top level must be a mapping of categories")
	}
	return root, nil
}

// fromYAML converts decoded YAML values into the literal value model.
func fromYAML(v any) any {
	switch t := v.(type) {
	case yaml.MapSlice:
		obj := make(Object, 0, len(t))
		for _, item := range t {
			obj = append(obj, Member{Key: fmt.Sprint(item.Key), Value: fromYAML(item.Value)})
		}
		return obj
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromYAML(e)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	}
	return v
}

func catalogFromObject(obj Object) (*catalog.Catalog, error) {
	cat := catalog.New()
	for _, m := range obj {
		list, ok := m.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("category %q: expected a list of products", m.Key)
		}
		items := make([]catalog.Product, 0, len(list))
		for i, raw := range list {
			p, err := productFromValue(raw)
			if err != nil {
				return nil, fmt.Errorf("category %q item %d: %w", m.Key, i, err)
			}
			items = append(items, p)
		}
		cat.Set(catalog.Category{Key: m.Key, Items: items})
	}
	return cat, nil
}

func productFromValue(raw any) (catalog.Product, error) {
	obj, ok := raw.(Object)
	if !ok {
		return catalog.Product{}, fmt.Errorf("expected an object")
	}

	var p catalog.Product
	var err error
	if p.Name, err = stringField(obj, "name"); err != nil {
		return p, err
	}
	if strings.TrimSpace(p.Name) == "" {
		return p, fmt.Errorf("missing product name")
	}
	if p.URL, err = stringField(obj, "url"); err != nil {
		return p, err
	}
	if p.Image, err = stringField(obj, "image"); err != nil {
		return p, err
	}
	if v, ok := obj.Get("pick"); ok && v != nil {
		b, isBool := v.(bool)
		if !isBool {
			return p, fmt.Errorf("pick: expected a boolean, got %v", v)
		}
		p.Pick = b
	}
	if v, ok := obj.Get("price"); ok {
		if p.Price, err = priceValue(v); err != nil {
			return p, err
		}
	}
	return p, nil
}

func stringField(obj Object, key string) (string, error) {
	v, ok := obj.Get(key)
	if !ok || v == nil {
		return "", nil
	}
	s, isString := v.(string)
	if !isString {
		return "", fmt.Errorf("%s: expected a string, got %v", key, v)
	}
	return s, nil
}

// priceValue accepts null, a whole non-negative number, or a string of digits.
func priceValue(v any) (*int, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case float64:
		if t < 0 || t != math.Trunc(t) || t > math.MaxInt32 {
			return nil, fmt.Errorf("price: %v is not a whole non-negative number", t)
		}
		n := int(t)
		return &n, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("price: %q is not a whole non-negative number", t)
		}
		return &n, nil
	}
	return nil, fmt.Errorf("price: unexpected value %v", v)
}

// Encode renders a catalog in the given format.
func Encode(cat *catalog.Catalog, format Format) ([]byte, error) {
	switch format {
	case FormatJS:
		return encodeJS(cat), nil
	case FormatJSON:
		return encodeJSON(cat)
	case FormatYAML:
		return encodeYAML(cat)
	}
	return nil, errors.NewValidationError("format", string(format), "unsupported catalog format")
}

// encodeJS writes the legacy layout: one product per line, categories in order.
func encodeJS(cat *catalog.Catalog) []byte {
	var b strings.Builder
	b.WriteString("const " + CatalogVar + " = {\n")

	cats := cat.Categories()
	for ci, c := range cats {
		fmt.Fprintf(&b, "    %s: [\n", jsKey(c.Key))
		for i, p := range c.Items {
			price := "null"
			if v, ok := p.PriceValue(); ok {
				price = strconv.Itoa(v)
			}
			fmt.Fprintf(&b, "        { name: %s, price: %s, url: %s, pick: %t, image: %s }",
				jsString(p.Name), price, jsString(p.URL), p.Pick, jsString(p.Image))
			if i < len(c.Items)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		if ci < len(cats)-1 {
			b.WriteString("    ],\n")
		} else {
			b.WriteString("    ]\n")
		}
	}

	b.WriteString("};\n")
	return []byte(b.String())
}

// jsKey leaves plain identifiers bare and quotes everything else,
// including hyphenated keys such as "usb-dacs".
func jsKey(key string) string {
	if key == "" {
		return `""`
	}
	for i, r := range key {
		if r == '_' || r == '$' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') ||
			(i > 0 && '0' <= r && r <= '9') {
			continue
		}
		return jsString(key)
	}
	return key
}

// jsString quotes s as a double-quoted JavaScript string literal.
func jsString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// encodeJSON writes categories in catalog order, which a Go map cannot hold.
func encodeJSON(cat *catalog.Catalog) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	cats := cat.Categories()
	for ci, c := range cats {
		key, err := marshalJSON(c.Key, "")
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "  %s: [", key)
		for i, p := range c.Items {
			item, err := marshalJSON(p.Persisted(), "    ")
			if err != nil {
				return nil, errors.WrapValidation(c.Key, err)
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString("\n    ")
			buf.Write(item)
		}
		if len(c.Items) > 0 {
			buf.WriteString("\n  ")
		}
		buf.WriteByte(']')
		if ci < len(cats)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func encodeYAML(cat *catalog.Catalog) ([]byte, error) {
	root := make(yaml.MapSlice, 0, cat.Len())
	for _, c := range cat.Categories() {
		items := make([]yaml.MapSlice, 0, len(c.Items))
		for _, p := range c.Items {
			var price any
			if v, ok := p.PriceValue(); ok {
				price = v
			}
			items = append(items, yaml.MapSlice{
				{Key: "name", Value: p.Name},
				{Key: "price", Value: price},
				{Key: "url", Value: p.URL},
				{Key: "pick", Value: p.Pick},
				{Key: "image", Value: p.Image},
			})
		}
		root = append(root, yaml.MapItem{Key: c.Key, Value: items})
	}
	return yaml.MarshalWithOptions(root, yaml.Indent(2), yaml.IndentSequence(true))
}

// marshalJSON encodes v without HTML escaping, so URLs keep their '&'.
func marshalJSON(v any, prefix string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if prefix != "" {
		enc.SetIndent(prefix, "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
