//go:build js && wasm

// webclient is the WASM browser client of the zoom server.
// It shows every frame the server pushes and turns mouse drags on the canvas
// into zoom selections.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log"
	"syscall/js"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/marben/mandelzoom/internal/wire"
)

// frames are whole PNG images, far above the default 32 KiB read limit
const readLimit = 64 << 20

// main is the entry point for the WASM web client.
func main() {
	logScreenf("Starting WASM zoom client...")

	loc := js.Global().Get("window").Get("location")
	proto := "ws"
	if loc.Get("protocol").String() == "https:" {
		proto = "wss"
	}
	websocketUrl := proto + "://" + loc.Get("host").String() + "/ws"

	ctx := context.Background()
	logScreenf("Connecting to Mandelbrot server at %s...", websocketUrl)
	c, _, err := websocket.Dial(ctx, websocketUrl, nil)
	if err != nil {
		logFatalf("Failed to connect: %v", err)
	}
	c.SetReadLimit(readLimit)
	logScreenf("WebSocket connected.")

	v := newViewer(c)
	v.bindInput()
	go v.writeLoop(ctx)

	if err := v.readLoop(ctx); err != nil {
		logFatalf("readLoop: %v", err)
	}
}

// viewer keeps the last frame so the selection overlay can be redrawn on top.
type viewer struct {
	c      *websocket.Conn
	events chan wire.Event

	last     *image.RGBA
	dragging bool
	start    image.Point
}

func newViewer(c *websocket.Conn) *viewer {
	return &viewer{
		c:      c,
		events: make(chan wire.Event, 64),
	}
}

// send queues an event. It never blocks, so it is safe in JS callbacks.
func (v *viewer) send(ev wire.Event) {
	select {
	case v.events <- ev:
	default:
		logScreenf("event queue full, dropping %s", ev.Type)
	}
}

// writeLoop sends queued events in order.
func (v *viewer) writeLoop(ctx context.Context) {
	for ev := range v.events {
		if err := wsjson.Write(ctx, v.c, ev); err != nil {
			logScreenf("send %s: %v", ev.Type, err)
			return
		}
	}
}

// readLoop draws frames and shows status updates until the connection ends.
func (v *viewer) readLoop(ctx context.Context) error {
	for {
		typ, data, err := v.c.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if typ == websocket.MessageBinary {
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				logScreenf("bad frame: %v", err)
				continue
			}
			rgba := image.NewRGBA(img.Bounds())
			draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
			if v.last == nil || v.last.Bounds() != rgba.Bounds() {
				initCanvas(rgba.Bounds().Dx(), rgba.Bounds().Dy(), "#3a3a6e")
			}
			v.last = rgba
			displayImage(rgba)
			continue
		}

		var st wire.Status
		if err := json.Unmarshal(data, &st); err != nil {
			logScreenf("bad status: %v", err)
			continue
		}
		switch st.Type {
		case wire.StatusFrame:
			hudSetStatus(st)
			logScreenf("frame: %s in %d ms", st.Description, st.ElapsedMS)
		case wire.StatusError:
			logScreenf("rejected: %s", st.Error)
		}
	}
}

// hudSetStatus shows the viewport and zoom depth of the last frame.
func hudSetStatus(st wire.Status) {
	doc := js.Global().Get("document")
	doc.Call("getElementById", "viewport").Set("textContent", st.Description)
	doc.Call("getElementById", "depth").Set("textContent", st.Depth)
	doc.Call("getElementById", "tiles").Set("textContent", st.Tiles)
}

// logScreenf appends a formatted message to the log element in the DOM.
func logScreenf(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)

	doc := js.Global().Get("document")
	logElem := doc.Call("getElementById", "log")
	logElem.Set("textContent", logElem.Get("textContent").String()+msg+"\n")
}

// logFatalf logs a fatal error to the log window and terminates the program.
func logFatalf(format string, a ...any) {
	logScreenf("FATAL: "+format, a...)
	log.Fatalf(format, a...)
}
