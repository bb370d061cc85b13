package walk

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var placeTypeLabels = map[string]string{
	"bar":                     "Bar",
	"night_club":              "Night Club",
	"casino":                  "Casino",
	"bowling_alley":           "Bowling",
	"cafe":                    "Cafe",
	"restaurant":              "Restaurant",
	"bakery":                  "Bakery",
	"spa":                     "Spa",
	"florist":                 "Florist",
	"park":                    "Park",
	"library":                 "Library",
	"book_store":              "Bookstore",
	"cemetery":                "Cemetery",
	"museum":                  "Museum",
	"art_gallery":             "Art Gallery",
	"tourist_attraction":      "Attraction",
	"church":                  "Church",
	"city_hall":               "City Hall",
	"zoo":                     "Zoo",
	"aquarium":                "Aquarium",
	"movie_theater":           "Cinema",
	"shopping_mall":           "Mall",
	"stadium":                 "Stadium",
	"amusement_park":          "Theme Park",
	"university":              "University",
	"cultural_landmark":       "Landmark",
	"historical_landmark":     "Historic Site",
	"plaza":                   "Plaza",
	"national_park":           "National Park",
	"hiking_area":             "Hiking",
	"garden":                  "Garden",
	"performing_arts_theater": "Theater",
	"concert_hall":            "Concert Hall",
	"live_music_venue":        "Live Music",
	"comedy_club":             "Comedy Club",
	"wine_bar":                "Wine Bar",
	"cocktail_bar":            "Cocktail Bar",
	"pub":                     "Pub",
	"coffee_shop":             "Coffee Shop",
	"tea_house":               "Tea House",
	"ice_cream_shop":          "Ice Cream",
	"brunch_restaurant":       "Brunch",
	"fine_dining_restaurant":  "Fine Dining",
	"italian_restaurant":      "Italian",
	"french_restaurant":       "French",
	"japanese_restaurant":     "Japanese",
	"indian_restaurant":       "Indian",
	"mexican_restaurant":      "Mexican",
	"food_court":              "Food Court",
	"observation_deck":        "Viewpoint",
	"botanical_garden":        "Botanical Garden",
	"memorial":                "Memorial",
	"monument":                "Monument",
}

var titleCaser = cases.Title(language.English)

// TypeLabel turns a place type such as "art_gallery" into a display label.
// Unknown types are title-cased with underscores replaced by spaces.
func TypeLabel(placeType string) string {
	if placeType == "" {
		return "Place"
	}
	if label, ok := placeTypeLabels[placeType]; ok {
		return label
	}
	return titleCaser.String(strings.ReplaceAll(placeType, "_", " "))
}

// MarkerLabel is the text attached to a place marker: name, type, distance.
func MarkerLabel(p Place) string {
	return fmt.Sprintf("%s · %s · %dm away", p.Name, TypeLabel(p.Type), int(math.Round(p.DistanceMeters)))
}

// RouteSummary is the headline information shown for a generated route.
type RouteSummary struct {
	Title      string
	DistanceKm string
	Minutes    int
	ShapeLabel string
	Steps      int
}

// Summarize builds the route headline for the given shape.
func Summarize(resp RouteResponse, shape RouteShape) RouteSummary {
	emoji := resp.Emoji
	if emoji == "" {
		emoji = resp.Vibe.Emoji()
	}

	steps := 0
	if resp.Directions != nil {
		steps = len(resp.Directions.Steps)
	}

	return RouteSummary{
		Title:      strings.TrimSpace(fmt.Sprintf("Your %s walk %s", resp.Vibe, emoji)),
		DistanceKm: fmt.Sprintf("%.2f km", resp.Route.DistanceMeters/1000),
		Minutes:    int(math.Round(resp.Route.DurationMinutes)),
		ShapeLabel: shape.Label(),
		Steps:      steps,
	}
}
