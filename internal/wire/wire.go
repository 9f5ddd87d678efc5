// Package wire defines the JSON messages exchanged between the zoom server
// and its browser client over a websocket.
//
// The client sends Events. The server sends a Status text message; a Status
// of type "frame" is followed by one binary message holding the PNG image.
package wire

import mandel "github.com/marben/mandelzoom"

// Event types sent by the client.
const (
	EventStart  = "start"  // selection started at (X, Y)
	EventUpdate = "update" // selection dragged to (X, Y); advisory
	EventEnd    = "end"    // selection released at (X, Y); triggers the zoom
	EventOut    = "out"    // zoom out one level
	EventReset  = "reset"  // back to the initial region
)

// Status types sent by the server.
const (
	StatusFrame = "frame"
	StatusError = "error"
)

type Event struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type Status struct {
	Type        string        `json:"type"`
	Width       int           `json:"width,omitempty"`
	Height      int           `json:"height,omitempty"`
	Viewport    mandel.Region `json:"viewport"`
	Description string        `json:"description,omitempty"`
	ElapsedMS   int64         `json:"elapsedMs,omitempty"`
	Tiles       int           `json:"tiles,omitempty"`
	Depth       int           `json:"depth"`
	Error       string        `json:"error,omitempty"`
}
