package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/term"

	"github.com/esimov/markup/utils"
)

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// readInput reads the resource in, which is either a pipe name, a local file or an URL.
func readInput(ctx context.Context, client *http.Client, in string, limit int64) ([]byte, error) {
	if in != pipeName {
		return utils.Fetch(ctx, client, in, limit)
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("`-` should be used with a pipe for stdin")
	}
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return nil, fmt.Errorf("unable to read stdin: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("stdin: %w", utils.ErrTooLarge)
	}
	return data, nil
}

// createOutput converts the destination path to a writable file.
// Binary output is refused on a terminal.
func createOutput(out string, binary bool) (io.WriteCloser, error) {
	if out == pipeName {
		if binary && term.IsTerminal(int(os.Stdout.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdout")
		}
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.OpenFile(out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to create the destination file: %w", err)
	}
	return f, nil
}

// writeOutput writes data to the destination path.
func writeOutput(out string, data []byte, binary bool) error {
	w, err := createOutput(out, binary)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
