// Package filewatch reports changes to individual files through fsnotify.
package filewatch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls fn every time target is created or written, until ctx is done
// or the returned stop function is called. The parent directory is watched,
// so target does not need to exist yet. fn runs on the watcher goroutine.
//
// stop blocks until the watcher goroutine has exited, so fn is never called
// after stop returns.
func Watch(ctx context.Context, target string, fn func()) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := w.Add(filepath.Dir(target)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	cctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	clean := filepath.Clean(target)

	go func() {
		defer close(done)
		defer w.Close()

		for {
			select {
			case <-cctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != clean {
					continue
				}
				if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
					fn()
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}
