package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Dataset file names as published upstream. The downloader mirrors
// them into the local dataset directory under the same names.
const (
	FileBasics     = "title.basics.tsv.gz"
	FileRatings    = "title.ratings.tsv.gz"
	FileAkas       = "title.akas.tsv.gz"
	FileCrew       = "title.crew.tsv.gz"
	FilePrincipals = "title.principals.tsv.gz"
	FileNames      = "name.basics.tsv.gz"
)

// DatasetFiles lists every file the loader needs, in download order.
var DatasetFiles = []string{
	FileBasics, FileRatings, FileAkas, FileCrew, FilePrincipals, FileNames,
}

// Downloader mirrors the IMDb dataset dumps into a local directory.
// Interrupted downloads resume via HTTP Range requests.
type Downloader struct {
	baseURL string
	dataDir string
	client  *http.Client
	log     *zap.Logger
}

// NewDownloader creates a Downloader writing into dataDir.
func NewDownloader(baseURL, dataDir string, timeout time.Duration, log *zap.Logger) *Downloader {
	return &Downloader{
		baseURL: baseURL,
		dataDir: dataDir,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// FetchAll downloads every dataset file that is not already present.
// A file whose size matches the upstream Content-Length is skipped.
func (d *Downloader) FetchAll(ctx context.Context) error {
	if err := os.MkdirAll(d.dataDir, 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", d.dataDir, err)
	}

	for i, name := range DatasetFiles {
		if err := d.fetch(ctx, name, i+1, len(DatasetFiles)); err != nil {
			return fmt.Errorf("fetch %s: %w", name, err)
		}
	}
	return nil
}

func (d *Downloader) fetch(ctx context.Context, name string, num, total int) error {
	url := d.baseURL + "/" + name
	outPath := filepath.Join(d.dataDir, name)

	size, err := d.remoteSize(ctx, url)
	if err != nil {
		return err
	}
	if st, statErr := os.Stat(outPath); statErr == nil && size > 0 && st.Size() == size {
		d.log.Info("already downloaded",
			zap.String("file", name),
			zap.Int64("bytes", st.Size()),
			zap.Int("num", num), zap.Int("total", total))
		return nil
	}

	return d.downloadFile(ctx, url, outPath, num, total)
}

func (d *Downloader) remoteSize(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("head request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("head: HTTP %d", resp.StatusCode)
	}
	return resp.ContentLength, nil
}

// downloadFile fetches one file, resuming a partial .tmp if present.
func (d *Downloader) downloadFile(ctx context.Context, url, outPath string, num, total int) error {
	cleanPath := filepath.Clean(outPath)
	tmpPath := cleanPath + ".tmp"

	var offset int64
	if st, err := os.Stat(tmpPath); err == nil {
		offset = st.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
		d.log.Info("resuming download",
			zap.String("file", filepath.Base(outPath)),
			zap.Int64("offset", offset))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}

	flags := os.O_WRONLY | os.O_CREATE
	if resp.StatusCode == http.StatusPartialContent {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
		offset = 0
	}

	f, err := os.OpenFile(tmpPath, flags, 0o600)
	if err != nil {
		return fmt.Errorf("open tmp: %w", err)
	}

	written, err := io.Copy(f, &progressReader{
		reader:  resp.Body,
		total:   resp.ContentLength + offset,
		current: offset,
		name:    filepath.Base(outPath),
		num:     num,
		count:   total,
		log:     d.log,
	})
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	d.log.Info("downloaded",
		zap.String("file", filepath.Base(outPath)),
		zap.Int64("bytes", offset+written),
		zap.Int("num", num), zap.Int("total", total))

	if err := os.Rename(tmpPath, cleanPath); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// progressReader logs download progress at a coarse interval.
type progressReader struct {
	reader  io.Reader
	total   int64
	current int64
	name    string
	num     int
	count   int
	log     *zap.Logger
	lastLog time.Time
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)

	if time.Since(pr.lastLog) > 5*time.Second {
		pr.lastLog = time.Now()
		if pr.total > 0 {
			pct := float64(pr.current) / float64(pr.total) * 100
			pr.log.Info("downloading",
				zap.String("file", pr.name),
				zap.Int("num", pr.num), zap.Int("total", pr.count),
				zap.Float64("percent", pct),
				zap.Int64("mb", pr.current/1024/1024))
		}
	}

	if err != nil {
		return n, err
	}
	return n, nil
}
