package config

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the config file for changes and reloads the global
// configuration when it is modified. onChange, if non-nil, is called with
// the freshly loaded config after each successful reload. The returned
// function stops the watcher.
func Watch(onChange func(*Config)) (func(), error) {
	path := Get().configFilePath

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory rather than the file itself, so atomic
	// rename-into-place saves keep being observed.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	done := make(chan struct{})

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}

				// Editors emit several events per save
				time.Sleep(100 * time.Millisecond)

				if err := Reload(); err != nil {
					log.Printf("config reload failed: %v", err)
					continue
				}
				log.Printf("config reloaded from %s", path)
				if onChange != nil {
					onChange(Get())
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("config watch error: %v", err)
			case <-done:
				return
			}
		}
	}()

	stop := func() {
		close(done)
		_ = watcher.Close()
	}
	return stop, nil
}
