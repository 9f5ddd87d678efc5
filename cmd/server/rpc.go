package main

import (
	"errors"
	"log/slog"
	"net"

	"github.com/marben/irpc"
	mandel "github.com/marben/mandelzoom"
)

// newRpcServer serves images over irpc. The same server can serve any
// number of listeners, tcp and websocket alike.
func newRpcServer(images mandel.ImgProvider) *irpc.Server {
	return irpc.NewServer(
		irpc.WithServices(mandel.NewImgProviderIrpcService(images)),
		irpc.WithOnConnect(func(ep *irpc.Endpoint) {
			slog.Info("irpc client connected", "remote", ep.RemoteAddr())
		}),
	)
}

// serveRpc runs s on l until s is closed.
func serveRpc(s *irpc.Server, l net.Listener) {
	slog.Info("irpc listening", "network", l.Addr().Network(), "addr", l.Addr())
	if err := s.Serve(l); err != nil && !errors.Is(err, irpc.ErrServerClosed) {
		slog.Error("irpc serve", "addr", l.Addr(), "err", err)
	}
}
