package catalog

import (
	"fmt"
	"math"
	"time"
)

// Cube is a multi-band raster stack indexed by (band, time, y, x). The time
// axis carries one sample per distinct acquisition date and is not guaranteed
// sorted or evenly spaced. Missing pixels are NaN.
type Cube struct {
	Bands      []string
	Times      []time.Time
	Width      int
	Height     int
	Resolution float64 // metres per pixel edge

	bandIndex map[string]int
	data      []float64 // [band][time][y][x] flattened
}

// NewCube allocates a cube filled with NaN. A non-positive resolution is a
// contract violation and panics.
func NewCube(bands []string, times []time.Time, width, height int, resolution float64) *Cube {
	if resolution <= 0 {
		panic(fmt.Sprintf("catalog: resolution must be positive, got %v", resolution))
	}

	c := &Cube{
		Bands:      bands,
		Times:      times,
		Width:      width,
		Height:     height,
		Resolution: resolution,
		bandIndex:  make(map[string]int, len(bands)),
		data:       make([]float64, len(bands)*len(times)*width*height),
	}
	for i, b := range bands {
		c.bandIndex[b] = i
	}
	for i := range c.data {
		c.data[i] = math.NaN()
	}
	return c
}

func (c *Cube) offset(band string, t, y, x int) int {
	b, ok := c.bandIndex[band]
	if !ok {
		panic(fmt.Sprintf("catalog: unknown band %q", band))
	}
	return ((b*len(c.Times)+t)*c.Height+y)*c.Width + x
}

// Set writes one pixel value
func (c *Cube) Set(band string, t, y, x int, v float64) {
	c.data[c.offset(band, t, y, x)] = v
}

// Value reads one pixel value; NaN where nothing was loaded
func (c *Cube) Value(band string, t, y, x int) float64 {
	return c.data[c.offset(band, t, y, x)]
}

// PixelAreaSqKm is the ground area one pixel covers in km²
func (c *Cube) PixelAreaSqKm() float64 {
	return c.Resolution * c.Resolution / 1000000.0
}
