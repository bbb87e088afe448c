// Package download fetches product images queued by reconciliation.
//
// Jobs run on a bounded worker pool. A failed job is logged and reported but
// never stops the others; the catalog already points at the intended path,
// so the next run retries it.
package download

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bmedia/gearsync/internal/transport"
	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/errors"
	"github.com/bmedia/gearsync/pkg/images"
	"github.com/bmedia/gearsync/pkg/logging"
)

// Config holds downloader settings. Zero values take the defaults.
type Config struct {
	Workers   int
	Timeout   time.Duration
	Rate      float64 // requests per second; negative disables pacing
	UserAgent string
}

// Downloader writes image jobs under a site root.
type Downloader struct {
	assets  images.DirAssets
	client  *transport.Client
	workers int
}

// New creates a Downloader writing below root.
func New(root string, cfg Config) *Downloader {
	if cfg.Workers <= 0 {
		cfg.Workers = constants.DefaultDownloadWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultDownloadTimeout
	}
	if cfg.Rate == 0 {
		cfg.Rate = constants.DefaultDownloadRate
	}
	return &Downloader{
		assets:  images.DirAssets{Root: root},
		workers: cfg.Workers,
		client: transport.New(
			transport.WithTimeout(cfg.Timeout),
			transport.WithUserAgent(cfg.UserAgent),
			transport.WithRate(cfg.Rate, constants.DownloadBurst),
		),
	}
}

// Outcome is the result of one job.
type Outcome struct {
	Job images.Job
	Err error
}

// OK reports whether the image was written.
func (o Outcome) OK() bool { return o.Err == nil }

// Report collects outcomes in job order.
type Report struct {
	Outcomes []Outcome
}

// Succeeded returns the number of written images.
func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed returns the jobs that did not complete.
func (r *Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Run executes jobs concurrently and waits for all of them.
func (d *Downloader) Run(ctx context.Context, jobs []images.Job) *Report {
	logger := logging.FromContext(ctx)
	report := &Report{Outcomes: make([]Outcome, len(jobs))}
	if len(jobs) == 0 {
		return report
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for i, job := range jobs {
		g.Go(func() error {
			err := d.Download(gctx, job)
			report.Outcomes[i] = Outcome{Job: job, Err: err}

			if err != nil {
				logger.Warn().
					Err(err).
					Str("category", job.Category).
					Str("product", job.Product).
					Str("url", job.SourceURL).
					Msg("Image download failed")
				return nil
			}
			logger.Info().
				Str("product", job.Product).
				Str("path", job.DestPath).
				Msg("Downloaded image")
			return nil
		})
	}
	_ = g.Wait()

	logger.Debug().
		Int("jobs", len(jobs)).
		Int("succeeded", report.Succeeded()).
		Msg("Image downloads complete")
	return report
}

// Download fetches one image. Only 2xx responses are written, through a temp
// file renamed into place.
func (d *Downloader) Download(ctx context.Context, job images.Job) error {
	if job.SourceURL == "" || job.DestPath == "" {
		return errors.NewFetchError(job.SourceURL, job.DestPath, 0, errors.ErrInvalidInput)
	}
	if !strings.HasPrefix(job.SourceURL, "http://") && !strings.HasPrefix(job.SourceURL, "https://") {
		return errors.NewFetchError(job.SourceURL, job.DestPath, 0, errors.NewValidationError("source_url", job.SourceURL, "not an http(s) URL"))
	}

	resp, err := d.client.Get(ctx, job.SourceURL)
	if err != nil {
		return errors.NewFetchError(job.SourceURL, job.DestPath, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.NewFetchError(job.SourceURL, job.DestPath, resp.StatusCode, errors.New(resp.Status))
	}

	dest := d.assets.Abs(job.DestPath)
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.NewFetchError(job.SourceURL, job.DestPath, resp.StatusCode, errors.WrapIO("create", dir, err))
	}

	tmp, err := os.CreateTemp(dir, ".img_*")
	if err != nil {
		return errors.NewFetchError(job.SourceURL, job.DestPath, resp.StatusCode, errors.WrapIO("create", "temp file", err))
	}
	tmpPath := tmp.Name()

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, constants.MaxImageBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n > constants.MaxImageBytes {
		err = errors.NewValidationError("image", n, "image exceeds size limit")
	}
	if err == nil {
		err = os.Chmod(tmpPath, constants.FilePermissions)
	}
	if err == nil {
		err = os.Rename(tmpPath, dest)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return errors.NewFetchError(job.SourceURL, job.DestPath, resp.StatusCode, errors.WrapIO("write", dest, err))
	}
	return nil
}
