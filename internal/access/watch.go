package access

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadDebounce is how long Watch waits after the last filesystem event
// before re-reading the policy file.
const ReloadDebounce = 100 * time.Millisecond

// Load installs the policy at path. The current policy is kept on error.
func (r *Registry) Load(path string) error {
	p, err := LoadPolicyFile(path)
	if err != nil {
		return err
	}
	r.SetPolicy(p)
	slog.Info("policy loaded", "path", path, "roles", len(p.Roles))
	return nil
}

// Watch reloads the policy at path whenever it changes and blocks until ctx
// is done. The parent directory is watched rather
// than the file so editors that replace the file by rename are seen.
func (r *Registry) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create policy watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	name := filepath.Base(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	reload := make(chan struct{}, 1)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(ReloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			p, err := LoadPolicyFile(path)
			if err != nil {
				slog.ErrorContext(ctx, "policy reload failed, keeping previous policy", "path", path, "error", err)
				continue
			}
			r.SetPolicy(p)
			slog.InfoContext(ctx, "policy reloaded", "path", path, "roles", len(p.Roles))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "policy watcher error", "error", err)
		}
	}
}
