// Package archive walks the time-partitioned statement directories on the
// open-data portal, downloads the most recent zip archives and extracts the
// primary data file from each.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"anscli/internal/config"
	"anscli/internal/scraper"
)

// ErrNoArchives indicates that no data file could be retrieved at all.
// Unlike per-archive failures this aborts the pipeline: there is nothing to
// process.
var ErrNoArchives = errors.New("no statement archives could be retrieved")

// Retriever downloads recent statement archives and extracts their data files.
type Retriever struct {
	client      *scraper.Client
	rootURL     string
	dataDir     string
	maxPeriods  int
	maxFiles    int
	concurrency int
	logger      *slog.Logger
}

// NewRetriever creates a retriever writing extracted files under dataDir.
func NewRetriever(client *scraper.Client, cfg config.RetrievalConfig, rootURL, dataDir string, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Retriever{
		client:      client,
		rootURL:     rootURL,
		dataDir:     dataDir,
		maxPeriods:  cfg.MaxPeriods,
		maxFiles:    cfg.MaxFiles,
		concurrency: concurrency,
		logger:      logger.With(slog.String("component", "archive")),
	}
}

// RetrieveRecent walks the newest maxPeriods period directories and extracts
// the primary data file from their archives, newest first, until maxFiles
// files have been extracted across all periods. Per-archive failures are
// logged and skipped. Returns ErrNoArchives when nothing was retrieved.
//
// Downloads run on a small worker pool pulling candidates newest-first, but
// extraction commits strictly in candidate order after all downloads settle.
// The selected files therefore match a sequential newest-first walk no
// matter how concurrent downloads interleave or which finishes first.
func (r *Retriever) RetrieveRecent(ctx context.Context) ([]string, error) {
	periods := r.listPeriods(ctx)
	if len(periods) == 0 {
		return nil, ErrNoArchives
	}

	var candidates []string
	for _, period := range periods {
		zips := r.client.Discover(ctx, period, ".zip")
		sort.Sort(sort.Reverse(sort.StringSlice(zips)))
		candidates = append(candidates, zips...)
	}
	if len(candidates) == 0 {
		return nil, ErrNoArchives
	}

	payloads, err := r.downloadUsable(ctx, candidates)
	if err != nil {
		return nil, err
	}

	var files []string
	for i, data := range payloads {
		if data == nil {
			continue
		}
		if len(files) == r.maxFiles {
			break
		}
		path, err := r.extractArchive(data, candidates[i])
		if err != nil {
			r.logger.Warn("skipping archive",
				slog.String("url", candidates[i]),
				slog.String("error", err.Error()))
			continue
		}
		files = append(files, path)
	}

	if len(files) == 0 {
		return nil, ErrNoArchives
	}

	r.logger.Info("statement archives retrieved",
		slog.Int("files", len(files)),
		slog.Int("periods_walked", len(periods)))

	return files, nil
}

// downloadUsable fetches candidates on the worker pool until maxFiles usable
// archives are in hand. The returned slice is indexed like candidates;
// entries are nil for archives that failed, proved unusable, or were never
// dispatched because enough newer ones had already arrived. At most
// maxFiles plus the in-flight window of payloads are held in memory at once.
func (r *Retriever) downloadUsable(ctx context.Context, candidates []string) ([][]byte, error) {
	payloads := make([][]byte, len(candidates))

	var (
		mu     sync.Mutex
		next   int
		usable int
	)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < r.concurrency; w++ {
		g.Go(func() error {
			for {
				mu.Lock()
				if usable >= r.maxFiles || next >= len(candidates) {
					mu.Unlock()
					return nil
				}
				idx := next
				next++
				mu.Unlock()

				data, err := r.downloadArchive(gctx, candidates[idx])
				if err != nil {
					r.logger.Warn("skipping archive",
						slog.String("url", candidates[idx]),
						slog.String("error", err.Error()))
					continue
				}

				mu.Lock()
				payloads[idx] = data
				usable++
				mu.Unlock()
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return payloads, nil
}

// downloadArchive fetches one zip archive and verifies it carries a tabular
// member. The raw bytes are returned; extraction happens later, in candidate
// order, so a corrupt or empty archive never displaces a usable older one.
func (r *Retriever) downloadArchive(ctx context.Context, zipURL string) ([]byte, error) {
	resp, err := r.client.Download(ctx, zipURL)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading archive body: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("corrupt archive: %w", err)
	}
	if largestTabularMember(zr) == nil {
		return nil, errors.New("archive has no tabular member")
	}

	return data, nil
}

// extractArchive writes the largest tabular member of a verified archive
// into the data directory, returning the local path.
func (r *Retriever) extractArchive(data []byte, zipURL string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("corrupt archive: %w", err)
	}

	member := largestTabularMember(zr)
	if member == nil {
		return "", errors.New("archive has no tabular member")
	}

	path, err := r.extractMember(member)
	if err != nil {
		return "", err
	}

	r.logger.Info("extracted statement file",
		slog.String("archive", zipURL),
		slog.String("member", member.Name),
		slog.Uint64("size", member.UncompressedSize64))

	return path, nil
}

// listPeriods returns the period directory URLs under the root whose final
// path segment is purely numeric, newest first, capped at maxPeriods.
func (r *Retriever) listPeriods(ctx context.Context) []string {
	links := r.client.Links(ctx, r.rootURL)

	var periods []string
	seen := make(map[string]bool)
	for _, link := range links {
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		segment := filepath.Base(strings.TrimSuffix(u.Path, "/"))
		if !isNumeric(segment) || seen[segment] {
			continue
		}
		seen[segment] = true
		periods = append(periods, link)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	if len(periods) > r.maxPeriods {
		periods = periods[:r.maxPeriods]
	}
	return periods
}

// largestTabularMember picks the .csv member with the largest uncompressed
// size, on the heuristic that the largest file is the primary dataset.
// Ties keep the first member encountered.
func largestTabularMember(zr *zip.Reader) *zip.File {
	var best *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			continue
		}
		if best == nil || f.UncompressedSize64 > best.UncompressedSize64 {
			best = f
		}
	}
	return best
}

// extractMember writes a single zip member under the data directory. The
// member name is flattened to its base to keep extraction inside dataDir.
func (r *Retriever) extractMember(member *zip.File) (string, error) {
	if err := os.MkdirAll(r.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}

	dest := filepath.Join(r.dataDir, filepath.Base(member.Name))

	src, err := member.Open()
	if err != nil {
		return "", fmt.Errorf("opening zip member: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dest) // don't leave a partial file behind
		return "", fmt.Errorf("extracting %s: %w", member.Name, err)
	}

	if err := out.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("closing %s: %w", dest, err)
	}

	return dest, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
