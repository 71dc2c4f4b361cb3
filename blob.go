package markup

import (
	"context"
	"encoding/base64"
	"fmt"
)

// BlobResolver returns the data URL of the temporary blob reference ref.
type BlobResolver func(ctx context.Context, ref string) (string, error)

// InlineBlobs replaces the temporary blob references used as background
// images of the annotation shapes by the data URLs returned by resolve.
// A document has to be inlined before it is encoded, otherwise the stored
// stickers would point to resources which no longer exist.
func (d *Document) InlineBlobs(ctx context.Context, resolve BlobResolver) error {
	for _, s := range d.Annotation {
		if s == nil || !s.IsBlob() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		url, err := resolve(ctx, s.BackgroundImage())
		if err != nil {
			return fmt.Errorf("markup: inlining background of shape %q: %w", s.ID(), err)
		}
		s["backgroundImage"] = url
	}
	return nil
}

// DataURL returns the base64 data URL embedding data.
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
