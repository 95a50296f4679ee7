package scraper

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"anscli/internal/config"
)

// Client fetches directory-listing pages from the open-data portal and
// discovers file links on them. Listing calls and archive downloads run on
// separate budgets; downloads get the longer timeout.
type Client struct {
	listing   *http.Client
	download  *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewClient creates a scraper client from the source configuration.
func NewClient(cfg config.SourceConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	// Some gov.br mirrors serve an incomplete certificate chain.
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}

	return &Client{
		listing: &http.Client{
			Timeout:   cfg.ListingTimeout,
			Transport: transport,
		},
		download: &http.Client{
			Timeout:   cfg.DownloadTimeout,
			Transport: transport,
		},
		userAgent: cfg.UserAgent,
		logger:    logger.With(slog.String("component", "scraper")),
	}
}

// Discover fetches pageURL and returns the absolute URLs of all hyperlinks
// whose path ends with ext (case-insensitive), in document order. Relative
// targets are resolved against pageURL. Any transport failure or non-success
// status yields an empty slice; callers must tolerate zero results.
func (c *Client) Discover(ctx context.Context, pageURL, ext string) []string {
	links := c.Links(ctx, pageURL)
	if len(links) == 0 {
		return nil
	}

	ext = strings.ToLower(ext)
	var matched []string
	for _, link := range links {
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		if strings.HasSuffix(strings.ToLower(u.Path), ext) {
			matched = append(matched, link)
		}
	}
	return matched
}

// Links fetches pageURL and returns every hyperlink target on it, resolved
// to an absolute URL, in document order. Failures yield an empty slice.
func (c *Client) Links(ctx context.Context, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		c.logger.Warn("invalid listing URL",
			slog.String("url", pageURL),
			slog.String("error", err.Error()))
		return nil
	}

	resp, err := c.get(ctx, c.listing, pageURL)
	if err != nil {
		c.logger.Warn("failed to fetch listing page",
			slog.String("url", pageURL),
			slog.String("error", err.Error()))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("listing page returned non-success status",
			slog.String("url", pageURL),
			slog.Int("status", resp.StatusCode))
		return nil
	}

	return collectHrefs(resp.Body, base)
}

// Download fetches fileURL on the download budget. The caller owns the
// response body and must close it.
func (c *Client) Download(ctx context.Context, fileURL string) (*http.Response, error) {
	return c.get(ctx, c.download, fileURL)
}

func (c *Client) get(ctx context.Context, client *http.Client, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	return client.Do(req)
}

// collectHrefs tokenizes an HTML document and returns all <a href> targets
// resolved against base, preserving document order. Duplicates are kept;
// downstream consumers are idempotent over them.
func collectHrefs(r io.Reader, base *url.URL) []string {
	var links []string

	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return links
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if len(name) != 1 || name[0] != 'a' || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					if ref, err := url.Parse(string(val)); err == nil {
						links = append(links, base.ResolveReference(ref).String())
					}
					break
				}
				if !more {
					break
				}
			}
		}
	}
}
