package main

import (
	"context"
	"errors"
	"image/png"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	mandel "github.com/marben/mandelzoom"
)

// webServer creates a server serving files in the static folder and the
// last rendered frame, initializes the websocket endpoints and returns their
// listeners: sessions on /ws carry the browser protocol, rpc on /irpc carries
// irpc for clients that cannot open a tcp connection.
func webServer(ctx context.Context, addr, static string, images mandel.ImgProvider) (sessions, rpc *WebsocketListener, srv *http.Server) {
	sessions = NewWSListener(ctx, addr+"/ws")
	rpc = NewWSListener(ctx, addr+"/irpc")
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", websocketHandler(sessions))
	mux.HandleFunc("/irpc", websocketHandler(rpc))
	mux.HandleFunc("/image.png", imageHandler(images))
	mux.Handle("/", http.FileServer(http.Dir(static)))

	srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("listening", "addr", addr, "static", static)
	return sessions, rpc, srv
}

// websocketHandler handles the http ws endpoint.
// If the websocket is successfully initialized it is passed to the
// WebsocketListener so it can be accepted.
func websocketHandler(l *WebsocketListener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // TODO: restrict to the served host once the page is hosted separately
		})
		if err != nil {
			slog.Warn("websocket accept", "err", err)
			return
		}

		select {
		case l.ch <- c:
		case <-l.ctx.Done():
			c.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
}

// imageHandler serves the last completed frame as PNG. It waits for the first
// frame as long as the request lives.
func imageHandler(images mandel.ImgProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, err := images.GetImage(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if err := png.Encode(w, &img); err != nil {
			slog.Warn("encode image", "err", err)
		}
	}
}

// WebsocketListener hands accepted websocket connections to the session
// loop, the way a net.Listener hands out connections.
type WebsocketListener struct {
	ch     chan *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	addr   wsAddr
}

func NewWSListener(ctx context.Context, addr string) *WebsocketListener {
	ctx, cancel := context.WithCancel(ctx)
	return &WebsocketListener{
		ch:     make(chan *websocket.Conn),
		ctx:    ctx,
		cancel: cancel,
		addr:   wsAddr{addr: addr},
	}
}

// Accept waits for the next websocket connection.
func (l *WebsocketListener) Accept() (*websocket.Conn, error) {
	select {
	case c := <-l.ch:
		return c, nil
	case <-l.ctx.Done():
		if err := context.Cause(l.ctx); !errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, net.ErrClosed
	}
}

// NetListener exposes l as a net.Listener whose connections carry binary
// websocket messages, the form irpc.Server serves.
func (l *WebsocketListener) NetListener() net.Listener {
	return netListener{l}
}

type netListener struct {
	*WebsocketListener
}

func (l netListener) Accept() (net.Conn, error) {
	c, err := l.WebsocketListener.Accept()
	if err != nil {
		return nil, err
	}
	return websocket.NetConn(l.ctx, c, websocket.MessageBinary), nil
}

func (l *WebsocketListener) Addr() net.Addr {
	return l.addr
}

func (l *WebsocketListener) Close() error {
	l.cancel()
	return nil
}

// wsAddr implements net.Addr
type wsAddr struct {
	addr string
}

func (a wsAddr) Network() string {
	return "ws"
}

func (a wsAddr) String() string {
	return a.addr
}
