package reconciler

import "github.com/bmedia/gearsync/pkg/catalog"

// index is an ordered name -> product mapping for one category.
// A repeated name keeps its first position and takes the later record.
type index struct {
	names    []string
	products []catalog.Product
	pos      map[string]int
	dupes    int
}

func newIndex(items []catalog.Product) *index {
	idx := &index{pos: make(map[string]int, len(items))}
	for _, p := range items {
		if i, ok := idx.pos[p.Name]; ok {
			idx.products[i] = p
			idx.dupes++
			continue
		}
		idx.pos[p.Name] = len(idx.names)
		idx.names = append(idx.names, p.Name)
		idx.products = append(idx.products, p)
	}
	return idx
}

func (idx *index) len() int { return len(idx.names) }

// available returns the names not yet consumed, and a map from their position
// in that slice back to the index position.
func (idx *index) available(consumed []bool) ([]string, []int) {
	names := make([]string, 0, len(idx.names))
	back := make([]int, 0, len(idx.names))
	for i, n := range idx.names {
		if consumed[i] {
			continue
		}
		names = append(names, n)
		back = append(back, i)
	}
	return names, back
}
