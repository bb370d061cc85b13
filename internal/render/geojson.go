package render

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/touchgrass/touchgrass/internal/walk"
)

// GeoJSONSurface records drawing commands as GeoJSON features, which a web
// client can paint with any map library.
type GeoJSONSurface struct {
	mu       sync.RWMutex
	order    []string
	features map[string]*geojson.Feature
	bound    *orb.Bound
	padding  int
}

// NewGeoJSONSurface creates an empty surface.
func NewGeoJSONSurface() *GeoJSONSurface {
	return &GeoJSONSurface{features: make(map[string]*geojson.Feature)}
}

// AddLine adds or replaces a LineString layer.
func (s *GeoJSONSurface) AddLine(id string, coords []walk.Coordinate, style LineStyle) {
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, orb.Point{c.Lon, c.Lat})
	}

	f := geojson.NewFeature(ls)
	f.ID = id
	f.Properties["layer"] = id
	f.Properties["kind"] = "line"
	f.Properties["color"] = style.Color
	f.Properties["width"] = style.Width
	f.Properties["opacity"] = style.Opacity
	s.put(id, f)
}

// AddMarker adds or replaces a Point layer.
func (s *GeoJSONSurface) AddMarker(id string, m Marker) {
	f := geojson.NewFeature(orb.Point{m.Coordinate.Lon, m.Coordinate.Lat})
	f.ID = id
	f.Properties["layer"] = id
	f.Properties["kind"] = string(m.Kind)
	f.Properties["color"] = m.Color
	if m.Label != "" {
		f.Properties["label"] = m.Label
	}
	if m.Glyph != "" {
		f.Properties["glyph"] = m.Glyph
		f.Properties["rotation"] = m.Rotation
	}
	s.put(id, f)
}

// RemoveLayer deletes a layer; unknown ids are ignored.
func (s *GeoJSONSurface) RemoveLayer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.features[id]; !ok {
		return
	}
	delete(s.features, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// FitBounds records the requested viewport.
func (s *GeoJSONSurface) FitBounds(bounds orb.Bound, padding int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bound = &bounds
	s.padding = padding
}

// Viewport returns the last requested viewport.
func (s *GeoJSONSurface) Viewport() (orb.Bound, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bound == nil {
		return orb.Bound{}, 0, false
	}
	return *s.bound, s.padding, true
}

// Layers returns the layer ids in drawing order.
func (s *GeoJSONSurface) Layers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Feature returns a single layer.
func (s *GeoJSONSurface) Feature(id string) (*geojson.Feature, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.features[id]
	return f, ok
}

// FeatureCollection snapshots the surface in drawing order. The bbox is the
// last requested viewport when there are layers on the surface.
func (s *GeoJSONSurface) FeatureCollection() *geojson.FeatureCollection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fc := geojson.NewFeatureCollection()
	for _, id := range s.order {
		fc.Append(s.features[id])
	}
	if s.bound != nil && len(s.order) > 0 {
		fc.BBox = geojson.NewBBox(*s.bound)
	}
	return fc
}

func (s *GeoJSONSurface) put(id string, f *geojson.Feature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.features[id]; !exists {
		s.order = append(s.order, id)
	}
	s.features[id] = f
}
