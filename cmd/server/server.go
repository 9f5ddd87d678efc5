// Command server renders the Mandelbrot set with a local worker pool and
// serves it to browsers over a websocket. Browsers drag a rectangle to zoom;
// every finished pass is pushed to all connected clients as a PNG.
// The last finished image is also served over irpc, on tcp and on the /irpc
// websocket endpoint (see cliclient -server).
//
// Build the browser client into the static folder first:
//
//	GOOS=js GOARCH=wasm go build -o static/main.wasm ./cmd/webclient
//	cp "$(go env GOROOT)/lib/wasm/wasm_exec.js" static/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	mandel "github.com/marben/mandelzoom"
	"github.com/marben/mandelzoom/internal/logging"
)

// main is the entry point for the Mandelbrot server.
func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	var (
		addr     = flag.String("addr", ":8080", "http listen address")
		rpcAddr  = flag.String("irpc-addr", ":8081", "irpc tcp listen address")
		static   = flag.String("static", "./static", "folder with index.html, wasm_exec.js and main.wasm")
		width    = flag.Int("width", 400, "image width")
		height   = flag.Int("height", 400, "image height")
		workers  = flag.Int("workers", mandel.MaxWorkers, "degree of parallelism (max 64)")
		maxIter  = flag.Int("iter", mandel.DefaultMaxIter, "iteration budget and palette size")
		region   = flag.String("region", "full", "initial region")
		palette  = flag.String("palette", "classic", "palette: classic or hsv")
		logLevel = flag.String("log-level", "info", "debug, info, warn or error")
	)
	flag.Parse()

	logger, err := logging.New(*logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	mandel.SetLogger(logger)

	start, err := mandel.LookupRegion(*region)
	if err != nil {
		return err
	}
	pal, err := mandel.PaletteByName(*palette, *maxIter)
	if err != nil {
		return err
	}

	sink := mandel.NewRGBASink(image.NewRGBA(image.Rect(0, 0, *width, *height)))
	h := newHub(sink, start)
	engine, err := mandel.NewEngine(*width, *height, sink,
		mandel.WithPalette(pal),
		mandel.WithOnPassDone(h.passDone))
	if err != nil {
		return fmt.Errorf("mandel.NewEngine: %w", err)
	}
	defer engine.Close()
	h.engine = engine

	if err := engine.StartInitialRender(start, *workers); err != nil {
		return fmt.Errorf("initial render: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tcpListener, err := net.Listen("tcp", *rpcAddr)
	if err != nil {
		return fmt.Errorf("net.Listen: %w", err)
	}

	wsListener, rpcListener, httpServer := webServer(ctx, *addr, *static, h)

	// irpc serves both the tcp and the websocket listener
	rpcServer := newRpcServer(h)
	go serveRpc(rpcServer, tcpListener)
	go serveRpc(rpcServer, rpcListener.NetListener())

	go func() {
		if err := h.serve(ctx, wsListener); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Error("session loop", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		wsListener.Close()
		if err := rpcServer.Close(); err != nil {
			slog.Warn("irpc shutdown", "err", err)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown", "err", err)
		}
	}()

	slog.Info("mandel server waiting for websocket connections", "addr", *addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpServer: %w", err)
	}
	return nil
}
