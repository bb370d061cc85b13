package walk

import (
	"fmt"
	"strings"
)

// MaxCuratedPlaces is the most places shown for a route.
const MaxCuratedPlaces = 5

// Hotels are only shown when they are well established.
const (
	minHotelRating      = 4.5
	minHotelRatingCount = 500
)

var excludedPlaceTypes = []string{
	"hotel",
	"motel",
	"lodging",
	"airport",
	"transit_station",
	"bus_station",
	"train_station",
}

// Curation is the display subset of a route's places.
type Curation struct {
	// Places is the ordered display list, at most MaxCuratedPlaces long.
	Places []Place
	// Eligible is how many places survived filtering.
	Eligible int
	// Considered is how many places came in.
	Considered int
}

// Overflow is how many considered places are not on the display list,
// whether filtered out or cut by the limit. It is zero unless more than
// MaxCuratedPlaces places came in.
func (c Curation) Overflow() int {
	if c.Considered > MaxCuratedPlaces && c.Considered > len(c.Places) {
		return c.Considered - len(c.Places)
	}
	return 0
}

// OverflowLabel is the "+N more places considered" note, empty when none.
func (c Curation) OverflowLabel() string {
	n := c.Overflow()
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("+%d more places considered", n)
}

// Found is the count shown in the transient "places found" notification.
func (c Curation) Found() int {
	return len(c.Places)
}

// Curate filters out lodging and transport hubs and keeps at most
// MaxCuratedPlaces in input order. It is deterministic and idempotent.
func Curate(places []Place) Curation {
	eligible := make([]Place, 0, len(places))
	for _, p := range places {
		if keepPlace(p) {
			eligible = append(eligible, p)
		}
	}

	shown := eligible
	if len(shown) > MaxCuratedPlaces {
		shown = shown[:MaxCuratedPlaces]
	}

	return Curation{
		Places:     shown,
		Eligible:   len(eligible),
		Considered: len(places),
	}
}

func keepPlace(p Place) bool {
	placeType := strings.ToLower(p.Type)

	if strings.Contains(placeType, "hotel") || strings.Contains(placeType, "lodging") {
		return notableHotel(p)
	}

	for _, excluded := range excludedPlaceTypes {
		if strings.Contains(placeType, excluded) {
			return false
		}
	}
	return true
}

func notableHotel(p Place) bool {
	rating := 0.0
	if p.Rating != nil {
		rating = *p.Rating
	}
	count := 0
	if p.RatingCount != nil {
		count = *p.RatingCount
	}
	return rating >= minHotelRating && count >= minHotelRatingCount
}
