//go:build js && wasm

package main

import (
	"image"
	"syscall/js"

	"github.com/marben/mandelzoom/internal/wire"
)

// bindInput wires canvas drags and the HUD buttons to server events.
// The callbacks run on the JS event loop and must not block.
func (v *viewer) bindInput() {
	doc := js.Global().Get("document")
	canvas := doc.Call("getElementById", "myCanvas")

	point := func(ev js.Value) image.Point {
		return image.Pt(ev.Get("offsetX").Int(), ev.Get("offsetY").Int())
	}

	canvas.Call("addEventListener", "mousedown", js.FuncOf(func(_ js.Value, args []js.Value) any {
		p := point(args[0])
		v.dragging, v.start = true, p
		v.send(wire.Event{Type: wire.EventStart, X: p.X, Y: p.Y})
		return nil
	}))

	canvas.Call("addEventListener", "mousemove", js.FuncOf(func(_ js.Value, args []js.Value) any {
		if !v.dragging {
			return nil
		}
		p := point(args[0])
		drawSelection(v.last, image.Rectangle{Min: v.start, Max: p}.Canon())
		v.send(wire.Event{Type: wire.EventUpdate, X: p.X, Y: p.Y})
		return nil
	}))

	canvas.Call("addEventListener", "mouseup", js.FuncOf(func(_ js.Value, args []js.Value) any {
		if !v.dragging {
			return nil
		}
		p := point(args[0])
		v.dragging = false
		if v.last != nil {
			displayImage(v.last)
		}
		v.send(wire.Event{Type: wire.EventEnd, X: p.X, Y: p.Y})
		return nil
	}))

	button := func(id, typ string) {
		doc.Call("getElementById", id).Call("addEventListener", "click", js.FuncOf(func(js.Value, []js.Value) any {
			v.send(wire.Event{Type: typ})
			return nil
		}))
	}
	button("zoomOut", wire.EventOut)
	button("reset", wire.EventReset)
}
