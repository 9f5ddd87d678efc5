package mandel

import "context"

// RenderTile evaluates every pixel of t and writes its color to sink.
// Cancellation of ctx is checked once per row; a cancelled tile is left
// partially drawn.
func RenderTile(ctx context.Context, t Tile, pal Palette, sink PixelSink) error {
	maxIter := len(pal)
	for py := t.Rect.Min.Y; py < t.Rect.Max.Y; py++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for px := t.Rect.Min.X; px < t.Rect.Max.X; px++ {
			sink.SetPixel(px, py, pal.Color(Escape(t.Point(px, py), maxIter)))
		}
	}
	return nil
}
