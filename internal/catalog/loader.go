package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RESTLoader materializes cubes through the raster service, which owns the
// COG decoding and reprojection. The worker sends the item list and load
// spec and gets the pixel values back.
type RESTLoader struct {
	Endpoint string
	Client   *http.Client
}

// NewRESTLoader creates a loader against the raster service endpoint
func NewRESTLoader(endpoint string) *RESTLoader {
	return &RESTLoader{
		Endpoint: endpoint,
		Client:   &http.Client{},
	}
}

type loadRequest struct {
	Items []Item   `json:"items"`
	Bands []string `json:"bands"`
	CRS   string   `json:"crs"`
	Res   float64  `json:"resolution"`
	BBox  [4]float64 `json:"bbox"`
}

type loadResponse struct {
	Times  []time.Time `json:"times"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	// Values nesting: band > time > y > x; null pixels decode to NaN via Set skip
	Values map[string][][][]*float64 `json:"values"`
}

// Load requests the cube from the raster service
func (l *RESTLoader) Load(ctx context.Context, items []Item, spec LoadSpec) (*Cube, error) {
	reqBody := loadRequest{
		Items: items,
		Bands: spec.Bands,
		CRS:   spec.CRS,
		Res:   spec.Resolution,
		BBox:  spec.BBox.Slice(),
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal load request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.Endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create load request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("raster service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("raster service returned status: %d", resp.StatusCode)
	}

	var payload loadResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode raster response: %w", err)
	}

	cube := NewCube(spec.Bands, payload.Times, payload.Width, payload.Height, spec.Resolution)
	for band, times := range payload.Values {
		for t, rows := range times {
			for y, row := range rows {
				for x, v := range row {
					if v == nil {
						continue // stays NaN
					}
					cube.Set(band, t, y, x, *v)
				}
			}
		}
	}
	return cube, nil
}
