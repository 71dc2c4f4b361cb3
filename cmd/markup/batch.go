package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// result holds the outcome of processing a single file of a batch.
type result struct {
	path string
	err  error
}

// processFn processes the file in and writes the result to out.
type processFn func(in, out string) error

// batch processes concurrently every file of the src directory tree with one
// of the given extensions, writing the results under dst. rename maps the
// base name of a source file to the base name of its result. The outcome
// of every file is reported to status.
func batch(src, dst string, exts []string, workers int, rename func(string) string, fn processFn, status func(result)) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}
	if workers <= 0 || workers > maxWorkers {
		workers = maxWorkers
	}

	ch := make(chan result)
	done := make(chan interface{})
	defer close(done)

	paths, errc := walkDir(done, src, exts)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			consumer(done, paths, dst, rename, fn, ch)
		}()
	}

	// Close the channel after the values are consumed.
	go func() {
		defer close(ch)
		wg.Wait()
	}()

	var failed int
	for res := range ch {
		if res.err != nil {
			failed++
		}
		status(res)
	}
	if err := <-errc; err != nil {
		return err
	}
	if failed > 0 {
		return errors.New("some of the files could not be processed")
	}
	return nil
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each regular file to a new channel.
// It finishes in case the done channel is getting closed.
func walkDir(
	done <-chan interface{},
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() || !isValidExtension(filepath.Ext(f.Name()), srcExts) {
				return nil
			}

			select {
			case <-done:
				return errors.New("directory walk cancelled")
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}

// consumer reads the path names from the paths channel and calls fn against
// every file, then sends the results on the res channel.
func consumer(
	done <-chan interface{},
	paths <-chan string,
	dest string,
	rename func(string) string,
	fn processFn,
	res chan<- result,
) {
	for src := range paths {
		name := filepath.Base(src)
		if rename != nil {
			name = rename(name)
		}
		err := fn(src, filepath.Join(dest, name))

		select {
		case <-done:
			return
		case res <- result{
			path: src,
			err:  err,
		}:
		}
	}
}

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string, extensions []string) bool {
	ext = strings.ToLower(ext)
	for _, ex := range extensions {
		if ex == ext {
			return true
		}
	}
	return false
}
