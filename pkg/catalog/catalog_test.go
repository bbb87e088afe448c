package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmedia/gearsync/internal/utils/ptr"
	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/errors"
)

func TestCatalogOrder(t *testing.T) {
	c := catalog.New(
		catalog.Category{Key: "iems"},
		catalog.Category{Key: "desktop-dac-amp"},
	)
	c.Append("headphones", catalog.Product{Name: "HD600"})
	c.Append("iems", catalog.Product{Name: "Aria"})
	c.Set(catalog.Category{Key: "desktop-dac-amp", Items: []catalog.Product{{Name: "K7"}}})

	assert.Equal(t, []string{"iems", "desktop-dac-amp", "headphones"}, c.Keys())
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 3, c.ProductCount())

	cat, ok := c.Category("desktop-dac-amp")
	require.True(t, ok)
	assert.Equal(t, []string{"K7"}, cat.Names())
	assert.False(t, c.Has("dongles"))
}

func TestZeroCatalog(t *testing.T) {
	var c *catalog.Catalog
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.IsEmpty())
	assert.Nil(t, c.Keys())

	var z catalog.Catalog
	z.Append("iems", catalog.Product{Name: "Aria"})
	assert.Equal(t, 1, z.ProductCount())
}

func TestCopyIsDeep(t *testing.T) {
	orig := catalog.New(catalog.Category{Key: "iems", Items: []catalog.Product{
		{Name: "Aria", Price: ptr.To(80)},
	}})
	cp := orig.Copy()
	require.True(t, orig.Equal(cp))

	cat, _ := cp.Category("iems")
	*cat.Items[0].Price = 99
	cat.Items[0].Name = "Changed"

	origCat, _ := orig.Category("iems")
	assert.Equal(t, 80, *origCat.Items[0].Price)
	assert.Equal(t, "Aria", origCat.Items[0].Name)
	assert.False(t, orig.Equal(cp))
}

func TestEqual(t *testing.T) {
	a := catalog.New(catalog.Category{Key: "iems", Items: []catalog.Product{{Name: "Aria", ImageSourceURL: "x"}}})
	b := catalog.New(catalog.Category{Key: "iems", Items: []catalog.Product{{Name: "Aria"}}})
	assert.True(t, a.Equal(b), "transient fields do not affect equality")

	c := catalog.New(catalog.Category{Key: "dongles"}, catalog.Category{Key: "iems"})
	d := catalog.New(catalog.Category{Key: "iems"}, catalog.Category{Key: "dongles"})
	assert.False(t, c.Equal(d), "category order matters")
}

func TestProductPrice(t *testing.T) {
	unknown := catalog.Product{Name: "A"}
	priced := catalog.Product{Name: "A", Price: ptr.To(120)}

	assert.Equal(t, "-", unknown.PriceString())
	assert.Equal(t, "$120", priced.PriceString())
	assert.True(t, unknown.SamePrice(catalog.Product{}))
	assert.False(t, unknown.SamePrice(priced))
	assert.True(t, priced.SamePrice(catalog.Product{Price: ptr.To(120)}))

	v, ok := priced.PriceValue()
	assert.True(t, ok)
	assert.Equal(t, 120, v)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		catalog *catalog.Catalog
		wantErr bool
	}{
		{"valid", catalog.New(catalog.Category{Key: "iems", Items: []catalog.Product{{Name: "A"}, {Name: "B"}}}), false},
		{"empty key", catalog.New(catalog.Category{Key: " "}), true},
		{"empty name", catalog.New(catalog.Category{Key: "iems", Items: []catalog.Product{{Name: ""}}}), true},
		{"negative price", catalog.New(catalog.Category{Key: "iems", Items: []catalog.Product{{Name: "A", Price: ptr.To(-1)}}}), true},
		{"duplicate name", catalog.New(catalog.Category{Key: "iems", Items: []catalog.Product{{Name: "A"}, {Name: "A"}}}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCategoryKey(t *testing.T) {
	assert.Equal(t, "desktop-dac-amp", catalog.CategoryKey("Desktop DAC Amp"))
	assert.Equal(t, "iems", catalog.CategoryKey("  IEMs "))
}

func TestExclusions(t *testing.T) {
	ex := catalog.DefaultExclusions()
	assert.True(t, ex.ExcludesCategory("cookie-preferences"))
	assert.False(t, ex.ExcludesCategory("iems"))
	assert.True(t, ex.ExcludesItem("headphone-cables-and-interconnects-by-hart-audio", "Sign up free"))
	assert.False(t, ex.ExcludesItem("iems", "Sign up free"))
}

func TestFilter(t *testing.T) {
	c := catalog.New(
		catalog.Category{Key: "iems", Items: []catalog.Product{{Name: "A"}}},
		catalog.Category{Key: "empty"},
	)
	out := c.Filter(func(cat catalog.Category) bool { return len(cat.Items) > 0 })
	assert.Equal(t, []string{"iems"}, out.Keys())
}
