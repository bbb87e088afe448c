package extras

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmedia/gearsync/internal/persistence"
	"github.com/bmedia/gearsync/pkg/catalog"
)

func TestRun(t *testing.T) {
	cat := catalog.New(
		catalog.Category{Key: "iems", Items: []catalog.Product{
			{Name: "Moondrop Aria 2"},
			{Name: "Truthear Gate"},
		}},
		catalog.Category{Key: "amps", Items: []catalog.Product{{Name: "FiiO K7"}}},
	)
	x, err := persistence.DecodeExtras(`const extraData = {
    "Truthear Gate": { "images": [], "tiktoks": [], "otherStuff": "" },
    "Moondrop Aria": { "images": [], "tiktoks": [], "otherStuff": "" },
    "Sony MDR-7506": { "images": [], "tiktoks": [], "otherStuff": "" }
};`)
	require.NoError(t, err)

	audit := Run(cat, x, 0.9)
	assert.False(t, audit.Clean())
	assert.Equal(t, []Missing{
		{Category: "iems", Name: "Moondrop Aria 2"},
		{Category: "amps", Name: "FiiO K7"},
	}, audit.Missing)

	require.Len(t, audit.Orphaned, 2)
	assert.Equal(t, "Moondrop Aria", audit.Orphaned[0].Name)
	assert.Equal(t, "Moondrop Aria 2", audit.Orphaned[0].Suggestion)
	assert.InDelta(t, 26.0/28.0, audit.Orphaned[0].Score, 1e-9)
	assert.Equal(t, "Sony MDR-7506", audit.Orphaned[1].Name)
	assert.Empty(t, audit.Orphaned[1].Suggestion)
}

func TestRunClean(t *testing.T) {
	cat := catalog.New(catalog.Category{Key: "iems", Items: []catalog.Product{{Name: "A"}}})
	x, err := persistence.DecodeExtras(`const extraData = { "A": { "images": [] } };`)
	require.NoError(t, err)
	assert.True(t, Run(cat, x, 0.9).Clean())
}

func TestRunNilExtras(t *testing.T) {
	cat := catalog.New(catalog.Category{Key: "iems", Items: []catalog.Product{{Name: "A"}}})
	audit := Run(cat, nil, 0.9)
	assert.Len(t, audit.Missing, 1)
	assert.Empty(t, audit.Orphaned)
}
