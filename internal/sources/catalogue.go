package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shellac/internal/logging"
	"shellac/internal/services"
)

// CatalogueEnumerator walks a broadcaster's paginated episode catalogue. Each
// page is a JSON document with an "episodes" array and an optional
// "nextPageUrl"; relative next-page URLs are resolved against the current
// page. Pagination stops on an empty page, a missing next link, or the page
// ceiling.
type CatalogueEnumerator struct {
	baseURL   string
	pageLimit int
	client    *http.Client
	logger    *slog.Logger
}

type cataloguePage struct {
	Episodes []struct {
		Title             string `json:"title"`
		AbsoluteDetailURL string `json:"absoluteDetailUrl"`
	} `json:"episodes"`
	NextPageURL string `json:"nextPageUrl"`
}

// NewCatalogueEnumerator constructs a catalogue enumerator.
func NewCatalogueEnumerator(baseURL string, pageLimit int, logger *slog.Logger) *CatalogueEnumerator {
	if pageLimit <= 0 {
		pageLimit = 50
	}
	return &CatalogueEnumerator{
		baseURL:   strings.TrimSpace(baseURL),
		pageLimit: pageLimit,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logging.NewComponentLogger(logger, "catalogue"),
	}
}

// Name identifies the enumerator in logs and ledger records.
func (c *CatalogueEnumerator) Name() string { return "catalogue" }

// ListTracks fetches catalogue pages until exhaustion. Catalogue entries carry
// no duration, so the plausibility filter does not apply to them.
func (c *CatalogueEnumerator) ListTracks(ctx context.Context) ([]Track, error) {
	if c.baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "catalogue", "list", "catalogue URL not configured", nil)
	}

	var tracks []Track
	pageURL := c.baseURL
	for page := 0; page < c.pageLimit; page++ {
		doc, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		if len(doc.Episodes) == 0 {
			break
		}
		for _, entry := range doc.Episodes {
			tracks = append(tracks, Track{
				Title:     entry.Title,
				SourceRef: entry.AbsoluteDetailURL,
				Position:  len(tracks),
			})
		}
		next := strings.TrimSpace(doc.NextPageURL)
		if next == "" {
			break
		}
		resolved, err := resolveNextPage(pageURL, next)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "catalogue", "paginate", fmt.Sprintf("invalid next page URL %q", next), err)
		}
		pageURL = resolved
	}

	c.logger.Debug("catalogue enumeration finished", logging.Int("tracks", len(tracks)))
	return tracks, nil
}

func (c *CatalogueEnumerator) fetchPage(ctx context.Context, pageURL string) (*cataloguePage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "catalogue", "request", pageURL, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "catalogue", "fetch page", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "catalogue", "fetch page",
			fmt.Sprintf("%s returned status %d", pageURL, resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "catalogue", "read page", pageURL, err)
	}

	var doc cataloguePage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "catalogue", "parse page", pageURL, err)
	}
	return &doc, nil
}

func resolveNextPage(current, next string) (string, error) {
	nextURL, err := url.Parse(next)
	if err != nil {
		return "", err
	}
	if nextURL.IsAbs() {
		return next, nil
	}
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(nextURL).String(), nil
}
