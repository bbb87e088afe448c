package persistence

import (
	"fmt"
	"os"

	"github.com/bmedia/gearsync/pkg/errors"
)

// ExtrasVar is the JavaScript variable holding per-product media.
const ExtrasVar = "extraData"

// Extra is the media attached to one product on its detail view.
type Extra struct {
	Images     []string `json:"images" yaml:"images"`
	TikToks    []string `json:"tiktoks" yaml:"tiktoks"`
	OtherStuff string   `json:"otherStuff" yaml:"otherStuff"`
}

// Extras maps product names to their media, in file order.
type Extras struct {
	Names  []string
	ByName map[string]Extra
}

// Has reports whether name has an entry.
func (e *Extras) Has(name string) bool {
	if e == nil {
		return false
	}
	_, ok := e.ByName[name]
	return ok
}

// Len returns the number of entries.
func (e *Extras) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Names)
}

// LoadExtras reads the extraData file at path. A missing file yields empty
// extras and an error matching errors.ErrNotFound.
func LoadExtras(path string) (*Extras, error) {
	empty := &Extras{ByName: map[string]Extra{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty, errors.NewNotFoundError("extras file", path)
		}
		return empty, errors.WrapIO("read", path, err)
	}

	extras, err := DecodeExtras(string(data))
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.File = path
		}
		return empty, err
	}
	return extras, nil
}

// DecodeExtras parses extraData source.
func DecodeExtras(src string) (*Extras, error) {
	extras := &Extras{ByName: map[string]Extra{}}
	obj, err := ParseLiteral(src, ExtrasVar)
	if err != nil {
		return nil, parseError(FormatJS, err)
	}

	for _, m := range obj {
		entry, ok := m.Value.(Object)
		if !ok {
			return nil, parseError(FormatJS, fmt.Errorf("entry %q: expected an object", m.Key))
		}
		var x Extra
		if x.Images, err = stringList(entry, "images"); err != nil {
			return nil, parseError(FormatJS, fmt.Errorf("entry %q: %w", m.Key, err))
		}
		if x.TikToks, err = stringList(entry, "tiktoks"); err != nil {
			return nil, parseError(FormatJS, fmt.Errorf("entry %q: %w", m.Key, err))
		}
		if x.OtherStuff, err = stringField(entry, "otherStuff"); err != nil {
			return nil, parseError(FormatJS, fmt.Errorf("entry %q: %w", m.Key, err))
		}

		if _, seen := extras.ByName[m.Key]; !seen {
			extras.Names = append(extras.Names, m.Key)
		}
		extras.ByName[m.Key] = x
	}
	return extras, nil
}

func stringList(obj Object, key string) ([]string, error) {
	v, ok := obj.Get(key)
	if !ok || v == nil {
		return nil, nil
	}
	list, isList := v.([]any)
	if !isList {
		return nil, fmt.Errorf("%s: expected a list", key)
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		s, isString := e.(string)
		if !isString {
			return nil, fmt.Errorf("%s: expected strings, got %v", key, e)
		}
		out = append(out, s)
	}
	return out, nil
}
