package extras

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmedia/gearsync"
	"github.com/bmedia/gearsync/internal/cmd/application"
	"github.com/bmedia/gearsync/internal/extras"
	"github.com/bmedia/gearsync/internal/persistence"
	"github.com/bmedia/gearsync/internal/utils/ptr"
	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/logging"
)

func site(t *testing.T, extraData string) string {
	t.Helper()
	logging.DisableLoggingForTest(t)
	root := t.TempDir()
	cat := catalog.New(catalog.Category{Key: "iems", Items: []catalog.Product{
		{Name: "Truthear Gate", Price: ptr.To(20), URL: "https://gate", Image: "images/Truthear_Gate.jpg"},
		{Name: "Kefine Klean", Price: ptr.To(50), URL: "https://klean", Image: "images/Kefine_Klean.jpg"},
	}})
	require.NoError(t, persistence.Save(filepath.Join(root, "js", "data.js"), cat, ""))
	require.NoError(t, os.WriteFile(filepath.Join(root, "js", "extraData.js"), []byte(extraData), 0o644))
	return root
}

func run(t *testing.T, root, format string, args ...string) (string, error) {
	t.Helper()
	app := &application.Mock{
		ClientFunc: func(opts ...gearsync.Option) (gearsync.Client, error) {
			return gearsync.New(append([]gearsync.Option{gearsync.WithSiteRoot(root)}, opts...)...)
		},
		OutputFormatFunc: func() string { return format },
	}
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const stale = `const extraData = {
    "Truthear Gate": { images: [], tiktoks: [], otherStuff: "" },
    "Kefine Klean 2": { images: [], tiktoks: [], otherStuff: "" },
};`

func TestAuditJSON(t *testing.T) {
	out, err := run(t, site(t, stale), "json")
	require.NoError(t, err)

	var audit extras.Audit
	require.NoError(t, json.Unmarshal([]byte(out), &audit))
	require.Len(t, audit.Missing, 1)
	assert.Equal(t, "Kefine Klean", audit.Missing[0].Name)
	require.Len(t, audit.Orphaned, 1)
	assert.Equal(t, "Kefine Klean 2", audit.Orphaned[0].Name)
	assert.Equal(t, "Kefine Klean", audit.Orphaned[0].Suggestion)
}

func TestAuditTable(t *testing.T) {
	out, err := run(t, site(t, stale), "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Kefine Klean 2")
	assert.Contains(t, out, "1 missing, 1 orphaned")
}

func TestAuditStrict(t *testing.T) {
	_, err := run(t, site(t, stale), "table", "--strict")
	assert.Error(t, err)

	clean := `const extraData = {
    "Truthear Gate": { images: [], tiktoks: [], otherStuff: "" },
    "Kefine Klean": { images: [], tiktoks: [], otherStuff: "" },
};`
	out, err := run(t, site(t, clean), "table", "--strict")
	require.NoError(t, err)
	assert.Contains(t, out, "matches the catalog")
}

func TestAuditMissingFile(t *testing.T) {
	root := site(t, "")
	require.NoError(t, os.Remove(filepath.Join(root, "js", "extraData.js")))
	_, err := run(t, root, "json")
	assert.Error(t, err)
}
