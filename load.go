package markup

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/esimov/markup/utils"
)

// MaxDocumentSize is the largest document accepted by the Loader.
const MaxDocumentSize = 32 << 20

// Loader loads stored documents from a URL or a local file.
type Loader struct {
	// Client is used for URL sources. If nil, http.DefaultClient is used.
	Client *http.Client

	// Thumbnail is the preview canvas used when a document is loaded for a
	// thumbnail. Zero fields fall back to DefaultThumbnail.
	Thumbnail Thumbnail

	// ErrorLog receives the failures recovered by Load. If nil, they are dropped.
	ErrorLog *log.Logger
}

// IsAbsent reports whether path does not refer to a document at all. The
// editor builds document paths by appending the metadata file of an asset,
// which ends up as "undefined" or "null" for assets without one.
func IsAbsent(path string) bool {
	return path == "" ||
		strings.HasSuffix(path, "undefined") ||
		strings.HasSuffix(path, "null")
}

// Load returns the document stored at path, rescaled for the thumbnail
// canvas when thumbnail is true.
//
// Load blocks until the document is read. It never fails: a missing path,
// a failed fetch or an invalid document all yield an empty document, and
// the failure is reported to ErrorLog.
func (l *Loader) Load(ctx context.Context, path string, thumbnail bool) *Document {
	doc, err := l.Fetch(ctx, path)
	if err != nil {
		l.logf("markup: loading %s: %v", path, err)
		return New()
	}
	if thumbnail {
		doc.ScaleToThumbnail(l.Thumbnail)
	}
	return doc
}

// LoadAsync runs Load in a new goroutine. The returned channel receives
// exactly one document.
func (l *Loader) LoadAsync(ctx context.Context, path string, thumbnail bool) <-chan *Document {
	ch := make(chan *Document, 1)
	go func() {
		ch <- l.Load(ctx, path, thumbnail)
	}()
	return ch
}

// Fetch reads and decodes the document stored at path. Unlike Load it
// reports every failure. An absent path yields an empty document.
func (l *Loader) Fetch(ctx context.Context, path string) (*Document, error) {
	if IsAbsent(path) {
		return New(), nil
	}
	raw, err := utils.Fetch(ctx, l.Client, path, MaxDocumentSize)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

func (l *Loader) logf(format string, args ...any) {
	if l.ErrorLog != nil {
		l.ErrorLog.Printf(format, args...)
	}
}
