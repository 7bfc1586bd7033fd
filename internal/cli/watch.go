package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/v2df"
	"github.com/aretw0/v2df/internal/config"
	"github.com/aretw0/v2df/internal/presentation/tui"
	"github.com/fsnotify/fsnotify"
)

// DebounceDelay groups bursts of file events, such as an editor's write and rename, into one render.
const DebounceDelay = 300 * time.Millisecond

// watchTargets are the files whose changes trigger a new render.
type watchTargets struct {
	config string
	video  string
}

func resolveTargets(path string) (watchTargets, error) {
	file, err := config.Find(path)
	if err != nil {
		return watchTargets{}, err
	}
	file, err = filepath.Abs(file)
	if err != nil {
		return watchTargets{}, err
	}
	t := watchTargets{config: file}
	if cfg, err := loadConfig(path, ""); err == nil {
		if video, err := filepath.Abs(cfg.VideoFile); err == nil {
			t.video = video
		}
	}
	return t, nil
}

// dirs returns the directories to watch. Watching directories survives
// editors that replace files instead of writing them in place.
func (t watchTargets) dirs() []string {
	dirs := []string{filepath.Dir(t.config)}
	if t.video == "" {
		return dirs
	}
	if st, err := os.Stat(t.video); err == nil && st.IsDir() {
		return append(dirs, t.video)
	}
	return append(dirs, filepath.Dir(t.video))
}

// matches reports whether an event on name concerns a target.
func (t watchTargets) matches(name string) bool {
	if abs, err := filepath.Abs(name); err == nil {
		name = abs
	}
	switch {
	case name == t.config:
		return true
	case t.video == "":
		return false
	case name == t.video:
		return true
	default:
		return filepath.Dir(name) == t.video
	}
}

// RunWatch renders, then renders again whenever the config or the video changes.
// The engine keeps its tree cache, so only changed frames are recompiled.
func RunWatch(ctx context.Context, eng *v2df.Engine, opts RunOptions, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if isTerminal(opts.Out) {
		tui.PrintBanner(opts.Out, v2df.Version)
	}

	watched := make(map[string]bool)
	var targets watchTargets
	update := func() {
		t, err := resolveTargets(opts.Path)
		if err != nil {
			logger.Error("cannot resolve watch targets", "err", err)
			return
		}
		targets = t
		for _, dir := range t.dirs() {
			if watched[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				logger.Warn("cannot watch directory", "dir", dir, "err", err)
				continue
			}
			watched[dir] = true
			logger.Debug("watching", "dir", dir)
		}
	}
	iterate := func() {
		update()
		if _, err := render(ctx, eng, opts); err != nil {
			logger.Error("render failed", "err", err)
		}
		if ctx.Err() == nil {
			printSystemMessage(opts.Out, "Waiting for changes...")
		}
	}

	iterate()
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if sc, ok := ctx.(*SignalContext); ok && sc.Signal() != nil {
				printSystemMessage(opts.Out, "Watcher stopped by %v.", sc.Signal())
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod || !targets.matches(event.Name) {
				continue
			}
			logger.Debug("change detected", "event", event.String())
			debounce = time.After(DebounceDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "err", err)
		case <-debounce:
			debounce = nil
			printSystemMessage(opts.Out, "Change detected, rendering again.")
			iterate()
		}
	}
}
