// Package main provides the touchgrass command, which plans one walk from the
// command line using the same session pipeline as the API server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kr/pretty"
	"github.com/rs/zerolog"

	"github.com/touchgrass/touchgrass/internal/backend"
	"github.com/touchgrass/touchgrass/internal/config"
	"github.com/touchgrass/touchgrass/internal/destination"
	"github.com/touchgrass/touchgrass/internal/location"
	"github.com/touchgrass/touchgrass/internal/render"
	"github.com/touchgrass/touchgrass/internal/session"
	"github.com/touchgrass/touchgrass/internal/vibe"
	"github.com/touchgrass/touchgrass/internal/walk"
)

// Version is set at compile time via ldflags.
var Version = "dev"

type options struct {
	mood        string
	vibe        string
	lat, lon    float64
	destination string
	duration    string
	shape       string
	geojson     string
	dump        bool
	verbose     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.mood, "mood", "", "describe your mood; the vibe is detected from it")
	flag.StringVar(&opts.vibe, "vibe", "", "pick a vibe directly: chill, date, chaos or aesthetic")
	flag.Float64Var(&opts.lat, "lat", 0, "start latitude (default: fallback location)")
	flag.Float64Var(&opts.lon, "lon", 0, "start longitude (default: fallback location)")
	flag.StringVar(&opts.destination, "to", "", "destination for a one-way walk")
	flag.StringVar(&opts.duration, "minutes", "", "walk length in minutes (10-120)")
	flag.StringVar(&opts.shape, "shape", "circular", "circular or one-way")
	flag.StringVar(&opts.geojson, "geojson", "", "write the route map as GeoJSON to this file")
	flag.BoolVar(&opts.dump, "dump", false, "dump the final session state")
	flag.BoolVar(&opts.verbose, "v", false, "verbose logging")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "touchgrass:", walk.Message(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	level := zerolog.WarnLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Str("service", "touchgrass").
		Str("version", Version).
		Logger()
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}

	client := backend.NewClient(backend.ClientConfig{
		BaseURL: cfg.APIURL,
		Timeout: cfg.BackendTimeout,
		Logger:  log,
	})

	var positioner location.Positioner
	if opts.lat != 0 || opts.lon != 0 {
		positioner = location.Static(walk.Coordinate{Lat: opts.lat, Lon: opts.lon})
	}
	fallback := cfg.Fallback()

	sess := session.New(session.Config{
		Vibes: vibe.NewResolver(vibe.ResolverConfig{
			Detector: client,
			Logger:   log,
		}),
		Destinations: destination.NewResolver(destination.ResolverConfig{
			Geocoder: client,
			Logger:   log,
		}),
		Location: location.NewProvider(location.ProviderConfig{
			Positioner: positioner,
			Fallback:   &fallback,
			Logger:     log,
		}),
		Generator:     client,
		DurationInput: opts.duration,
		Logger:        log,
	})

	surface := render.NewGeoJSONSurface()
	unsubscribe := sess.Subscribe(session.RenderTo(render.NewRenderer(surface, render.RendererConfig{Logger: log})))
	defer unsubscribe()

	if _, err := sess.AcquireLocation(ctx); err != nil {
		fmt.Fprintln(out, walk.Message(err))
	}

	shape, err := walk.ParseShape(opts.shape)
	if err != nil {
		return err
	}
	if err := sess.SetShape(shape); err != nil {
		return err
	}

	switch {
	case opts.mood != "":
		sess.SetMood(opts.mood)
	case opts.vibe != "":
		v, err := walk.ParseVibe(opts.vibe)
		if err != nil {
			return err
		}
		if err := sess.SelectVibe(v); err != nil {
			return err
		}
	}

	if opts.destination != "" {
		d, err := sess.ResolveDestination(ctx, opts.destination)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Destination: %s\n", d.FormattedAddress)
	}

	for {
		outcome, err := sess.Generate(ctx)
		if err != nil {
			return err
		}
		if outcome == session.OutcomeGenerated {
			break
		}
		snap := sess.Snapshot()
		if snap.VibeResult != nil {
			fmt.Fprintf(out, "Detected vibe: %s %s\n", snap.VibeResult.Vibe.Emoji(), snap.VibeResult.Vibe)
			if loc := snap.VibeResult.ResolvedLocation; loc != nil {
				fmt.Fprintf(out, "Starting from: %s\n", loc.Label())
			}
		}
	}

	snap := sess.Snapshot()
	printRoute(out, snap)

	if opts.geojson != "" {
		if err := writeGeoJSON(opts.geojson, surface); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nMap written to %s\n", opts.geojson)
	}
	if opts.dump {
		fmt.Fprintln(out)
		pretty.Fprintf(out, "%# v\n", snap)
	}
	return nil
}

func printRoute(out io.Writer, snap session.Snapshot) {
	if snap.Summary == nil {
		return
	}
	s := snap.Summary
	fmt.Fprintf(out, "\n%s\n", s.Title)
	fmt.Fprintf(out, "%s · %d min · %s · %d steps\n", s.DistanceKm, s.Minutes, s.ShapeLabel, s.Steps)

	if len(snap.Curation.Places) > 0 {
		fmt.Fprintf(out, "\nStops (%d):\n", snap.Curation.Found())
		for i, p := range snap.Curation.Places {
			fmt.Fprintf(out, "  %d. %s\n", i+1, walk.MarkerLabel(p))
		}
	}
	if label := snap.Curation.OverflowLabel(); label != "" {
		fmt.Fprintf(out, "  %s\n", label)
	}
	if snap.DirectionsLink != "" {
		fmt.Fprintf(out, "\nOpen in Maps: %s\n", snap.DirectionsLink)
	}
}

func writeGeoJSON(path string, surface *render.GeoJSONSurface) error {
	data, err := json.MarshalIndent(surface.FeatureCollection(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode map: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write map: %w", err)
	}
	return nil
}
