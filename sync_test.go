package gearsync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmedia/gearsync/internal/persistence"
	"github.com/bmedia/gearsync/internal/scrape"
	"github.com/bmedia/gearsync/internal/utils/ptr"
	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/changelog"
	"github.com/bmedia/gearsync/pkg/errors"
	"github.com/bmedia/gearsync/pkg/logging"
)

const pngBytes = "\x89PNG\r\n\x1a\nfake"

// site is a temp site root with a persisted catalog and an image server.
type site struct {
	root string
	srv  *httptest.Server
}

func newSite(t *testing.T) *site {
	t.Helper()
	logging.DisableLoggingForTest(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte(pngBytes))
	}))
	t.Cleanup(srv.Close)

	s := &site{root: t.TempDir(), srv: srv}
	require.NoError(t, os.MkdirAll(filepath.Join(s.root, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "images", "Truthear_Gate.jpg"), []byte("jpg"), 0o644))
	return s
}

func (s *site) catalogPath() string {
	return filepath.Join(s.root, "js", "data.js")
}

func (s *site) seed(t *testing.T) {
	t.Helper()
	cat := catalog.New(catalog.Category{Key: "iems", Items: []catalog.Product{
		{Name: "Truthear Gate", Price: ptr.To(25), URL: "https://old", Image: "images/Truthear_Gate.jpg"},
		{Name: "Old Thing", Price: ptr.To(10), URL: "https://x", Image: "images/Old_Thing.jpg"},
	}})
	require.NoError(t, persistence.Save(s.catalogPath(), cat, ""))
}

func (s *site) page() string {
	return fmt.Sprintf(`<html><body>
<h2>IEMs</h2>
<a href="https://new"><img src="%[1]s/gate.png"><p>$20 Truthear Gate</p></a>
<a href="https://klean"><img src="%[1]s/klean.png"><p>$50 *B_Media Pick* Kefine Klean</p></a>
</body></html>`, s.srv.URL)
}

func static(html string) scrape.Fetcher {
	return scrape.FetcherFunc(func(context.Context, string) (string, error) { return html, nil })
}

func (s *site) client(t *testing.T, opts ...Option) Client {
	t.Helper()
	base := []Option{WithSiteRoot(s.root), WithFetcher(static(s.page()))}
	c, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func TestSyncWritesMergedCatalog(t *testing.T) {
	s := newSite(t)
	s.seed(t)
	c := s.client(t)

	var added, updated, kept []string
	c.OnProductAdded(func(category string, p catalog.Product) { added = append(added, p.Name) })
	c.OnProductUpdated(func(category string, old, cur catalog.Product, changes []changelog.FieldChange) {
		updated = append(updated, old.Name+"->"+cur.Name)
	})
	c.OnProductKept(func(category string, p catalog.Product) { kept = append(kept, p.Name) })

	result, err := c.Sync(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Wrote)
	assert.Empty(t, result.SourceError)
	assert.Equal(t, 1, result.Summary.Added)
	assert.Equal(t, 1, result.Summary.Updated)
	assert.Equal(t, 1, result.Summary.Kept)
	assert.Equal(t, 3, result.Products)
	assert.Equal(t, 1, result.ImagesDownloaded)
	assert.Empty(t, result.ImagesFailed)
	assert.NotEmpty(t, result.RunID)

	written, err := persistence.Load(s.catalogPath(), "")
	require.NoError(t, err)
	iems, ok := written.Category("iems")
	require.True(t, ok)
	assert.Equal(t, []string{"Truthear Gate", "Kefine Klean", "Old Thing"}, iems.Names())
	assert.Equal(t, ptr.To(20), iems.Items[0].Price)
	assert.Equal(t, "https://new", iems.Items[0].URL)
	assert.Equal(t, "images/Truthear_Gate.jpg", iems.Items[0].Image)
	assert.True(t, iems.Items[1].Pick)
	assert.Equal(t, "images/Kefine_Klean.png", iems.Items[1].Image)

	data, err := os.ReadFile(filepath.Join(s.root, "images", "Kefine_Klean.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, string(data))

	assert.Equal(t, []string{"Kefine Klean"}, added)
	assert.Equal(t, []string{"Truthear Gate->Truthear Gate"}, updated)
	assert.Equal(t, []string{"Old Thing"}, kept)

	cat, err := c.Catalog()
	require.NoError(t, err)
	assert.True(t, cat.Equal(written))
	assert.Same(t, result, c.LastSync())
}

func TestSyncSecondRunLeavesFileAlone(t *testing.T) {
	s := newSite(t)
	s.seed(t)
	c := s.client(t)

	_, err := c.Sync(context.Background())
	require.NoError(t, err)
	before, err := os.ReadFile(s.catalogPath())
	require.NoError(t, err)

	result, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Wrote)
	assert.False(t, result.HasChanges())
	assert.Equal(t, 2, result.Summary.Unchanged)
	assert.Equal(t, 1, result.Summary.Kept)
	assert.Zero(t, result.ImagesDownloaded)

	after, err := os.ReadFile(s.catalogPath())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestSyncForceWrite(t *testing.T) {
	s := newSite(t)
	s.seed(t)
	c := s.client(t)

	_, err := c.Sync(context.Background())
	require.NoError(t, err)
	result, err := c.Sync(context.Background(), SyncWithForceWrite(true))
	require.NoError(t, err)
	assert.True(t, result.Wrote)
	assert.False(t, result.HasChanges())
}

func TestSyncDryRun(t *testing.T) {
	s := newSite(t)
	c := s.client(t)

	result, err := c.Sync(context.Background(), SyncWithDryRun(true))
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.False(t, result.Wrote)
	assert.Equal(t, 2, result.Summary.Added)

	_, err = os.Stat(s.catalogPath())
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(s.root, "images", "Kefine_Klean.png"))
	assert.True(t, os.IsNotExist(err))

	cat, _ := c.Catalog()
	assert.True(t, cat.IsEmpty())
}

func TestSyncNoImages(t *testing.T) {
	s := newSite(t)
	c := s.client(t)

	result, err := c.Sync(context.Background(), SyncWithNoImages(true))
	require.NoError(t, err)
	assert.True(t, result.Wrote)
	assert.Equal(t, 2, result.Summary.ImagesQueued)
	assert.Zero(t, result.ImagesDownloaded)
	_, err = os.Stat(filepath.Join(s.root, "images", "Kefine_Klean.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestSyncSourceUnavailableKeepsCatalog(t *testing.T) {
	s := newSite(t)
	s.seed(t)
	before, err := os.ReadFile(s.catalogPath())
	require.NoError(t, err)

	c := s.client(t, WithFetcher(scrape.FetcherFunc(func(context.Context, string) (string, error) {
		return "", fmt.Errorf("connection refused")
	})))
	result, err := c.Sync(context.Background())
	require.NoError(t, err)

	assert.Contains(t, result.SourceError, "connection refused")
	assert.Equal(t, 1, result.Summary.CategoriesKept)
	assert.False(t, result.Wrote)
	assert.Equal(t, 2, result.Products)

	after, err := os.ReadFile(s.catalogPath())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestSyncEmptyPageWritesMissingFile(t *testing.T) {
	s := newSite(t)
	c := s.client(t, WithFetcher(static("<html><body><p>nothing</p></body></html>")))

	result, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Wrote)

	data, err := os.ReadFile(s.catalogPath())
	require.NoError(t, err)
	assert.Equal(t, "const gearData = {\n};\n", string(data))
}

func TestSyncMalformedCatalogStartsEmpty(t *testing.T) {
	s := newSite(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.catalogPath()), 0o755))
	require.NoError(t, os.WriteFile(s.catalogPath(), []byte("const gearData = { iems: [ {"), 0o644))

	c := s.client(t)
	result, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, result.CatalogError)
	assert.Equal(t, 2, result.Summary.Added)
	assert.True(t, result.Wrote)

	written, err := persistence.Load(s.catalogPath(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, written.ProductCount())
}

func TestSyncHistoryAndReport(t *testing.T) {
	s := newSite(t)
	s.seed(t)
	c := s.client(t, WithHistoryPath(".gearsync/history.db"))

	reportPath := filepath.Join(s.root, "reports", "run.md")
	result, err := c.Sync(context.Background(), SyncWithReport(reportPath))
	require.NoError(t, err)

	assert.Positive(t, result.HistoryID)
	assert.FileExists(t, filepath.Join(s.root, ".gearsync", "history.db"))
	assert.Equal(t, reportPath, result.ReportPath)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Kefine Klean")
	assert.Contains(t, string(data), result.RunID)
}

func TestSyncBadReportPath(t *testing.T) {
	s := newSite(t)
	c := s.client(t)

	result, err := c.Sync(context.Background(), SyncWithReport(filepath.Join(s.root, "run.txt")))
	require.Error(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Wrote)
}

func TestSyncCustomFormatAndPaths(t *testing.T) {
	s := newSite(t)
	c := s.client(t, WithCatalogPath("data/catalog.yaml"), WithImagesDir("img"))

	result, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Wrote)

	written, err := persistence.Load(filepath.Join(s.root, "data", "catalog.yaml"), persistence.FormatYAML)
	require.NoError(t, err)
	iems, _ := written.Category("iems")
	assert.Equal(t, "img/Truthear_Gate.png", iems.Items[0].Image)
	assert.FileExists(t, filepath.Join(s.root, "img", "Truthear_Gate.png"))
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	for name, opt := range map[string]Option{
		"threshold":  WithThreshold(1.5),
		"strategy":   WithMatchStrategy("random"),
		"format":     WithCatalogFormat("xml"),
		"source":     WithSourceURL(""),
		"images_dir": WithImagesDir(""),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(opt)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestAudit(t *testing.T) {
	s := newSite(t)
	s.seed(t)
	extras := `const extraData = {
    "Truthear Gate": { images: [], tiktoks: [], otherStuff: "" },
    "Kefine Klean Old": { images: [], tiktoks: [], otherStuff: "" },
};`
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "js", "extraData.js"), []byte(extras), 0o644))

	c := s.client(t)
	audit, err := c.Audit()
	require.NoError(t, err)
	require.Len(t, audit.Missing, 1)
	assert.Equal(t, "Old Thing", audit.Missing[0].Name)
	require.Len(t, audit.Orphaned, 1)
	assert.Equal(t, "Kefine Klean Old", audit.Orphaned[0].Name)
}

func TestAuditWithoutExtrasPath(t *testing.T) {
	s := newSite(t)
	c := s.client(t, WithExtrasPath(""))
	_, err := c.Audit()
	require.Error(t, err)
}

func TestSyncEveryRunsUntilCanceled(t *testing.T) {
	s := newSite(t)
	var calls atomic.Int32
	c := s.client(t, WithFetcher(scrape.FetcherFunc(func(context.Context, string) (string, error) {
		calls.Add(1)
		return s.page(), nil
	})))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := c.SyncEvery(ctx, 20*time.Millisecond, SyncWithNoImages(true))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))

	assert.Error(t, c.SyncEvery(context.Background(), 0))
}

func TestAutoSyncOnOff(t *testing.T) {
	s := newSite(t)
	var calls atomic.Int32
	c := s.client(t,
		WithAutoSyncInterval(10*time.Millisecond),
		WithFetcher(scrape.FetcherFunc(func(context.Context, string) (string, error) {
			calls.Add(1)
			return s.page(), nil
		})),
	)

	require.NoError(t, c.AutoSyncOn())
	require.Eventually(t, func() bool { return calls.Load() > 0 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.AutoSyncOff())

	n := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, calls.Load())
	require.NoError(t, c.AutoSyncOff())
}
