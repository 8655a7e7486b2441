package artifact

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/YuminosukeSato/delaycast/pkg/errors"
	"github.com/YuminosukeSato/delaycast/pkg/log"
)

// Watch calls onChange each time the file at path is created, written or
// renamed into place, until ctx is done. The parent directory is watched
// rather than the file so atomic replacements are observed.
func Watch(ctx context.Context, path string, logger log.Logger, onChange func()) error {
	const op = "artifact.Watch"

	if logger == nil {
		logger = log.GetLogger()
	}
	logger = logger.With(log.ComponentKey, "artifact", log.PathKey, path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewStorageError(op, path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.NewStorageError(op, path, err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return errors.NewStorageError(op, path, err)
	}

	target := filepath.Clean(path)
	logger.Info("watching model artifact")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				logger.Debug("model artifact changed", "event", ev.Op.String())
				onChange()
			}
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("artifact watcher error", log.ErrAttrKey, werr)
		}
	}
}
