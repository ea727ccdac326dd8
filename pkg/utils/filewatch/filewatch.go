// Package filewatch cancels contexts when files change on disk.
//
// The server derives its root context this way from the config file, so
// that a config rewrite shuts it down and its supervisor restarts it with
// the new settings.
package filewatch

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// UntilModifyContext derives a context from ctx which is canceled as soon
// as any of the named files changes (is written, created, removed or
// renamed). The cause of the cancellation names the file and the event.
//
// The returned func releases the watch; call it when the watch is no
// longer wanted. When the watch cannot be started, the error is non-nil
// and both other returns are nil.
func UntilModifyContext(ctx context.Context, paths ...string) (context.Context, func(), error) {
	cctx, cancel := context.WithCancelCause(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		cancel(err)
		return nil, nil, err
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-cctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				cancel(fmt.Errorf("%s is updated (%s)", event.Name, event.Op.String()))
			}
		}
	}()

	for _, p := range paths {
		if err := watcher.Add(p); err != nil {
			cancel(err)
			return nil, nil, err
		}
	}
	return cctx, func() { cancel(nil) }, nil
}
