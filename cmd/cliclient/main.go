// cliclient renders the Mandelbrot set to a PNG file.
// It renders an initial region, then applies each -zoom selection in turn
// exactly as an interactive drag would, and saves the final pass.
//
//	cliclient -region full -zoom 100,100,200,200 -zoom 50,50,150,150 -caption
//
// With -server it renders nothing and saves the image the server last
// finished, fetched over irpc.
//
//	cliclient -server localhost:8081
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/marben/irpc"
	mandel "github.com/marben/mandelzoom"
	"github.com/marben/mandelzoom/internal/annotate"
	"github.com/marben/mandelzoom/internal/logging"
)

// main is the entry point for the CLI client.
// It runs the client logic and logs any fatal errors.
func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

type config struct {
	width, height int
	workers       int
	maxIter       int
	region        mandel.Region
	palette       string
	zooms         zoomList
	scale         float64
	caption       bool
	out           string
	server        string
	timeout       time.Duration
	logLevel      string
}

// zoomList collects repeated -zoom x0,y0,x1,y1 selections.
type zoomList []image.Rectangle

func (z *zoomList) String() string {
	parts := make([]string, len(*z))
	for i, r := range *z {
		parts[i] = fmt.Sprintf("%d,%d,%d,%d", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
	}
	return strings.Join(parts, " ")
}

func (z *zoomList) Set(s string) error {
	var r image.Rectangle
	n, err := fmt.Sscanf(s, "%d,%d,%d,%d", &r.Min.X, &r.Min.Y, &r.Max.X, &r.Max.Y)
	if err != nil || n != 4 {
		return fmt.Errorf("zoom %q: want x0,y0,x1,y1", s)
	}
	*z = append(*z, r)
	return nil
}

func parseFlags(args []string) (config, error) {
	var cfg config
	var regionName string

	fs := flag.NewFlagSet("cliclient", flag.ContinueOnError)
	fs.IntVar(&cfg.width, "width", 400, "image width")
	fs.IntVar(&cfg.height, "height", 400, "image height")
	fs.IntVar(&cfg.workers, "workers", mandel.MaxWorkers, "degree of parallelism (max 64)")
	fs.IntVar(&cfg.maxIter, "iter", mandel.DefaultMaxIter, "iteration budget and palette size")
	fs.StringVar(&regionName, "region", "full", "initial region: "+strings.Join(mandel.RegionNames(), ", "))
	fs.StringVar(&cfg.palette, "palette", "classic", "palette: classic or hsv")
	fs.Var(&cfg.zooms, "zoom", "zoom selection x0,y0,x1,y1 in pixels (repeatable)")
	fs.Float64Var(&cfg.scale, "scale", 1, "resample the output by this factor")
	fs.BoolVar(&cfg.caption, "caption", false, "draw the viewport on the image")
	fs.StringVar(&cfg.out, "out", "mandel.png", "output file")
	fs.StringVar(&cfg.server, "server", "", "fetch the image from the server's irpc address instead of rendering")
	fs.DurationVar(&cfg.timeout, "timeout", time.Minute, "give up after this long")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	r, err := mandel.LookupRegion(regionName)
	if err != nil {
		return config{}, err
	}
	cfg.region = r
	if cfg.scale <= 0 {
		return config{}, fmt.Errorf("scale %g must be positive", cfg.scale)
	}
	return cfg, nil
}

// run renders the image described by args and saves it as a PNG file.
func run(args []string) error {
	cfg, err := parseFlags(args)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	mandel.SetLogger(logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	var img *image.RGBA
	if cfg.server != "" {
		img, err = fetch(ctx, cfg)
	} else {
		img, err = render(ctx, cfg)
	}
	if err != nil {
		return err
	}

	slog.Info("saving rendered image", "file", cfg.out)
	f, err := os.Create(cfg.out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return f.Close()
}

// render runs the initial pass and every zoom, returning the final image.
func render(ctx context.Context, cfg config) (*image.RGBA, error) {
	pal, err := mandel.PaletteByName(cfg.palette, cfg.maxIter)
	if err != nil {
		return nil, err
	}

	sink := mandel.NewRGBASink(image.NewRGBA(image.Rect(0, 0, cfg.width, cfg.height)))
	engine, err := mandel.NewEngine(cfg.width, cfg.height, sink, mandel.WithPalette(pal))
	if err != nil {
		return nil, fmt.Errorf("mandel.NewEngine: %w", err)
	}
	defer engine.Close()

	if err := engine.StartInitialRender(cfg.region, cfg.workers); err != nil {
		return nil, fmt.Errorf("initial render: %w", err)
	}
	if err := engine.Wait(ctx); err != nil {
		return nil, fmt.Errorf("initial render: %w", err)
	}

	for i, z := range cfg.zooms {
		if err := engine.StartZoomRender(z.Min, z.Max); err != nil {
			return nil, fmt.Errorf("zoom %d %v: %w", i+1, z, err)
		}
		if err := engine.Wait(ctx); err != nil {
			return nil, fmt.Errorf("zoom %d: %w", i+1, err)
		}
		slog.Info("zoomed", "step", i+1, "viewport", engine.Viewport())
	}

	img := sink.Snapshot()
	slog.Info("rendered",
		"pixels", annotate.Count(cfg.width*cfg.height),
		"viewport", engine.Viewport(),
		"workers", engine.Parallelism())

	if cfg.scale != 1 {
		img = annotate.Scale(img, cfg.scale)
	}
	if cfg.caption {
		annotate.Caption(img, annotate.Describe(engine.Viewport(), engine.MaxIter(), cfg.region))
	}
	return img, nil
}

// fetch asks the server at cfg.server for its last finished image.
func fetch(ctx context.Context, cfg config) (*image.RGBA, error) {
	slog.Info("connecting to mandel server", "addr", cfg.server)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", cfg.server)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	ep := irpc.NewEndpoint(conn)
	defer ep.Close()

	client, err := mandel.NewImgProviderIrpcClient(ep)
	if err != nil {
		return nil, fmt.Errorf("failed to create ImgProvider client: %w", err)
	}

	slog.Info("requesting rendered image from server")
	fetched, err := client.GetImage(ctx)
	if err != nil {
		return nil, fmt.Errorf("client.GetImage: %w", err)
	}
	img := &fetched

	if cfg.scale != 1 {
		img = annotate.Scale(img, cfg.scale)
	}
	if cfg.caption {
		annotate.Caption(img, "served by "+cfg.server)
	}
	return img, nil
}
