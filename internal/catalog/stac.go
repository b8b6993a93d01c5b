package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-lake-pipeline/internal/model"
)

// STACClient implements Catalog against a STAC API endpoint. Search pages
// through /search; Load is delegated to the configured Loader.
type STACClient struct {
	BaseURL string
	Client  *http.Client
	Loader  Loader
}

// NewSTACClient creates a client for the given STAC root URL
func NewSTACClient(baseURL string, loader Loader) *STACClient {
	return &STACClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{},
		Loader:  loader,
	}
}

// stacFeature is the slice of a STAC item the pipeline cares about
type stacFeature struct {
	ID         string `json:"id"`
	Collection string `json:"collection"`
	Properties struct {
		Datetime string `json:"datetime"`
	} `json:"properties"`
	Assets map[string]struct {
		Href string `json:"href"`
	} `json:"assets"`
}

type stacPage struct {
	Features []stacFeature `json:"features"`
	Links    []struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	} `json:"links"`
}

// Search queries the catalog for items intersecting the bbox in the time
// range. An empty result is a normal outcome, not an error.
func (c *STACClient) Search(ctx context.Context, bbox model.BoundingBox, collection, startDate, endDate string) ([]Item, error) {
	b := bbox.Slice()
	params := url.Values{}
	params.Set("bbox", fmt.Sprintf("%f,%f,%f,%f", b[0], b[1], b[2], b[3]))
	params.Set("collections", collection)
	params.Set("datetime", startDate+"/"+endDate)
	params.Set("limit", "100")

	next := c.BaseURL + "/search?" + params.Encode()
	var items []Item

	for next != "" {
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}

		for _, f := range page.Features {
			ts, err := time.Parse(time.RFC3339, f.Properties.Datetime)
			if err != nil {
				// Item with an unparseable timestamp can't be placed on the
				// time axis; skip it rather than failing the whole search.
				continue
			}
			item := Item{
				ID:         f.ID,
				Collection: f.Collection,
				Datetime:   ts,
				Assets:     make(map[string]string, len(f.Assets)),
			}
			for name, a := range f.Assets {
				item.Assets[name] = a.Href
			}
			items = append(items, item)
		}

		next = ""
		for _, l := range page.Links {
			if l.Rel == "next" {
				next = l.Href
				break
			}
		}
	}

	return items, nil
}

func (c *STACClient) fetchPage(ctx context.Context, pageURL string) (*stacPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build STAC request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET STAC search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("STAC search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read STAC response: %w", err)
	}

	var page stacPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode STAC response: %w", err)
	}
	return &page, nil
}

// Load materializes items via the configured Loader
func (c *STACClient) Load(ctx context.Context, items []Item, spec LoadSpec) (*Cube, error) {
	if c.Loader == nil {
		return nil, fmt.Errorf("no raster loader configured")
	}
	return c.Loader.Load(ctx, items, spec)
}
