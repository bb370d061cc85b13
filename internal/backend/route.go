package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/touchgrass/touchgrass/internal/walk"
	"github.com/touchgrass/touchgrass/pkg/polyline"
)

// walkingMetersPerMinute estimates duration when the backend omits it (~4.8 km/h).
const walkingMetersPerMinute = 80.0

var errTooFewCoordinates = errors.New("route needs at least two coordinates")

// routeObject is the {coordinates, distance, duration, polyline} form, which
// may also carry a GeoJSON type or a nested geometry.
type routeObject struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometry    json.RawMessage `json:"geometry"`
	Distance    *float64        `json:"distance"`
	Duration    *float64        `json:"duration"`
	Polyline    string          `json:"polyline"`
}

// decodeRoute normalizes every route shape the backend has been seen to send:
// a bare [[lng,lat],...] array, an encoded polyline string, the
// {coordinates,distance,duration,polyline} object, or a GeoJSON geometry,
// Feature or FeatureCollection holding a LineString.
func decodeRoute(raw json.RawMessage) (walk.Route, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return walk.Route{}, errors.New("route is missing")
	}

	var (
		route            walk.Route
		distance, minute *float64
		err              error
	)

	switch raw[0] {
	case '[':
		route.Coordinates, err = decodePairs(raw)
	case '"':
		if err = json.Unmarshal(raw, &route.Polyline); err == nil {
			route.Coordinates = decodePolyline(route.Polyline)
		}
	case '{':
		var obj routeObject
		if err = json.Unmarshal(raw, &obj); err != nil {
			break
		}
		route.Polyline = obj.Polyline
		distance, minute = obj.Distance, obj.Duration

		switch {
		case obj.Type != "":
			var props geojson.Properties
			route.Coordinates, props, err = decodeGeoJSON(raw, obj.Type)
			if distance == nil {
				distance = propFloat(props, "distance")
			}
			if minute == nil {
				minute = propFloat(props, "duration")
			}
		case len(obj.Geometry) > 0 && !bytes.Equal(obj.Geometry, []byte("null")):
			var nested walk.Route
			nested, err = decodeRoute(obj.Geometry)
			route.Coordinates = nested.Coordinates
			if route.Polyline == "" {
				route.Polyline = nested.Polyline
			}
		case len(obj.Coordinates) > 0:
			route.Coordinates, err = decodePairs(obj.Coordinates)
		}

		if len(route.Coordinates) < 2 && route.Polyline != "" {
			route.Coordinates, err = decodePolyline(route.Polyline), nil
		}
	default:
		err = fmt.Errorf("unexpected route payload starting with %q", raw[0])
	}
	if err != nil {
		return walk.Route{}, err
	}

	if len(route.Coordinates) < 2 {
		return walk.Route{}, errTooFewCoordinates
	}
	for i, c := range route.Coordinates {
		if err := c.Validate(); err != nil {
			return walk.Route{}, fmt.Errorf("coordinate %d: %w", i, err)
		}
	}

	if distance != nil {
		route.DistanceMeters = *distance
	} else {
		route.DistanceMeters = polyline.Length(toPolyline(route.Coordinates))
	}
	if minute != nil {
		route.DurationMinutes = *minute
	} else {
		route.DurationMinutes = route.DistanceMeters / walkingMetersPerMinute
	}

	return route, nil
}

// decodePairs reads [[lng,lat],...]; extra elements such as altitude are ignored.
func decodePairs(raw json.RawMessage) ([]walk.Coordinate, error) {
	var pairs [][]float64
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("coordinates: %w", err)
	}
	coords := make([]walk.Coordinate, 0, len(pairs))
	for i, p := range pairs {
		if len(p) < 2 {
			return nil, fmt.Errorf("coordinate %d has %d values", i, len(p))
		}
		coords = append(coords, walk.Coordinate{Lat: p[1], Lon: p[0]})
	}
	return coords, nil
}

func decodeGeoJSON(raw []byte, typ string) ([]walk.Coordinate, geojson.Properties, error) {
	switch typ {
	case "Feature":
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("geojson feature: %w", err)
		}
		coords, err := lineCoordinates(f.Geometry)
		return coords, f.Properties, err
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("geojson feature collection: %w", err)
		}
		for _, f := range fc.Features {
			if coords, err := lineCoordinates(f.Geometry); err == nil {
				return coords, f.Properties, nil
			}
		}
		return nil, nil, errors.New("feature collection has no line geometry")
	default:
		g, err := geojson.UnmarshalGeometry(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("geojson geometry: %w", err)
		}
		coords, err := lineCoordinates(g.Geometry())
		return coords, nil, err
	}
}

func lineCoordinates(g orb.Geometry) ([]walk.Coordinate, error) {
	var points []orb.Point
	switch geom := g.(type) {
	case orb.LineString:
		points = geom
	case orb.MultiLineString:
		for _, ls := range geom {
			points = append(points, ls...)
		}
	case nil:
		return nil, errors.New("geometry is empty")
	default:
		return nil, fmt.Errorf("unsupported route geometry %s", g.GeoJSONType())
	}

	coords := make([]walk.Coordinate, 0, len(points))
	for _, p := range points {
		coords = append(coords, walk.Coordinate{Lat: p.Lat(), Lon: p.Lon()})
	}
	return coords, nil
}

func propFloat(props geojson.Properties, key string) *float64 {
	if f, ok := props[key].(float64); ok {
		return &f
	}
	return nil
}

func decodePolyline(encoded string) []walk.Coordinate {
	decoded := polyline.Decode(encoded)
	coords := make([]walk.Coordinate, 0, len(decoded))
	for _, c := range decoded {
		coords = append(coords, walk.Coordinate{Lat: c.Lat, Lon: c.Lon})
	}
	return coords
}

func toPolyline(coords []walk.Coordinate) []polyline.Coordinate {
	out := make([]polyline.Coordinate, 0, len(coords))
	for _, c := range coords {
		out = append(out, polyline.Coordinate{Lat: c.Lat, Lon: c.Lon})
	}
	return out
}
