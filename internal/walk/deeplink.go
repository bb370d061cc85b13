package walk

import (
	"net/url"
	"strconv"
	"strings"
)

const googleMapsDirectionsURL = "https://www.google.com/maps/dir/"

// DirectionsLink builds a walking-directions deep link from the route's first
// and last coordinates, passing curated places as waypoints. It returns false
// when the route has fewer than two coordinates.
func DirectionsLink(route Route, waypoints []Place) (string, bool) {
	if len(route.Coordinates) < 2 {
		return "", false
	}

	start, _ := route.Start()
	end, _ := route.End()

	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", formatLatLon(start))
	q.Set("destination", formatLatLon(end))

	points := make([]string, 0, len(waypoints))
	for _, p := range waypoints {
		if p.Lat == 0 || p.Lon == 0 {
			continue
		}
		points = append(points, formatLatLon(p.Coordinate()))
	}
	if len(points) > 0 {
		q.Set("waypoints", strings.Join(points, "|"))
	}
	q.Set("travelmode", "walking")

	return googleMapsDirectionsURL + "?" + q.Encode(), true
}

func formatLatLon(c Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}
