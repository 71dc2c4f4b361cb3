package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

// ErrTooLarge is returned when a fetched resource exceeds the read limit.
var ErrTooLarge = errors.New("resource exceeds the size limit")

// Fetch reads the resource at src, which is either a http(s) URL or a local
// file path. At most limit bytes are read; a zero limit means no limit.
// The call blocks until the resource is read or ctx is done.
func Fetch(ctx context.Context, client *http.Client, src string, limit int64) ([]byte, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if IsValidUrl(src) {
		rc, err = open(ctx, client, src)
	} else {
		rc, err = os.Open(src)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := io.Reader(rc)
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", src, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: %w (%d bytes)", src, ErrTooLarge, limit)
	}
	return data, nil
}

// open issues a GET request and returns the response body.
func open(ctx context.Context, client *http.Client, uri string) (io.ReadCloser, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to download %s: %w", uri, err)
	}
	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("unable to download %s: status %v", uri, res.Status)
	}
	return res.Body, nil
}

// IsValidUrl tests a string to determine if it is a well-structured url or not.
func IsValidUrl(uri string) bool {
	_, err := url.ParseRequestURI(uri)
	if err != nil {
		return false
	}

	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}

// DetectContentType detects the MIME type of data.
// It always returns a valid content-type and "application/octet-stream" if no others seemed to match.
func DetectContentType(data []byte) string {
	// Only the first 512 bytes are used to sniff the content type.
	if len(data) > 512 {
		data = data[:512]
	}
	return http.DetectContentType(data)
}
