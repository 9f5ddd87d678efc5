//go:build js && wasm

package main

import (
	"image"
	"syscall/js"
)

func canvasContext() (js.Value, js.Value) {
	canvas := js.Global().Get("document").Call("getElementById", "myCanvas")
	return canvas, canvas.Call("getContext", "2d")
}

// displayImage puts the whole image on the canvas.
func displayImage(img *image.RGBA) {
	_, ctx := canvasContext()

	// Uint8ClampedArray holding width * height * 4 bytes (RGBA)
	jsData := js.Global().Get("Uint8ClampedArray").New(len(img.Pix))
	js.CopyBytesToJS(jsData, img.Pix)

	imageData := js.Global().Get("ImageData").New(jsData, img.Rect.Dx(), img.Rect.Dy())
	ctx.Call("putImageData", imageData, 0, 0)
}

func initCanvas(width, height int, color string) {
	canvas, ctx := canvasContext()
	canvas.Set("width", width)
	canvas.Set("height", height)

	ctx.Set("fillStyle", color)
	ctx.Call("fillRect", 0, 0, width, height)
}

// drawSelection redraws last and outlines r on top of it.
func drawSelection(last *image.RGBA, r image.Rectangle) {
	if last != nil {
		displayImage(last)
	}
	_, ctx := canvasContext()
	ctx.Set("strokeStyle", "#ffffff")
	ctx.Set("lineWidth", 1)
	ctx.Call("strokeRect", r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}
