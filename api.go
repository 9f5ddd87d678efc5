package mandel

import (
	"context"
	"image"
)

//go:generate go run github.com/marben/irpc/cmd/irpc

// ImgProvider hands out a copy of the last completed image.
// The server exposes it to remote clients through ImgProviderIrpcService.
type ImgProvider interface {
	GetImage(ctx context.Context) (image.RGBA, error)
}
