package catalog

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/ManuMario0/trading-lab-sub000/pkg/eventbus"
	"github.com/ManuMario0/trading-lab-sub000/pkg/log"
	"github.com/ManuMario0/trading-lab-sub000/pkg/manifest"
	"github.com/ManuMario0/trading-lab-sub000/pkg/metrics"
)

// QuietPeriod is the default debounce window: a touched path is
// re-processed once it has been quiet for this long.
const QuietPeriod = 1 * time.Second

// PollInterval is how often the debounce table is checked, bounded at
// 250ms per the watcher's design.
const PollInterval = 200 * time.Millisecond

// Watcher owns all I/O for service discovery: scanning a directory,
// executing candidate binaries with `manifest`, and publishing
// ServiceDiscovered events. It never mutates a Catalog directly; the
// supervisor's event handling does that.
type Watcher struct {
	dir       string
	bus       *eventbus.Bus
	quietFor  time.Duration
	pollEvery time.Duration
	fsWatcher *fsnotify.Watcher
	mu        sync.Mutex
	touched   map[string]time.Time
	processed map[string]bool
	stopCh    chan struct{}

	onScanComplete func()
}

// NewWatcher creates a Watcher over dir, publishing discovery events to bus.
func NewWatcher(dir string, bus *eventbus.Bus) *Watcher {
	return NewWatcherWithQuietPeriod(dir, bus, QuietPeriod)
}

// NewWatcherWithQuietPeriod is NewWatcher with a caller-chosen debounce
// window, for deployments that tune it via config.Config.QuietPeriod.
func NewWatcherWithQuietPeriod(dir string, bus *eventbus.Bus, quietFor time.Duration) *Watcher {
	return &Watcher{
		dir:       dir,
		bus:       bus,
		quietFor:  quietFor,
		pollEvery: PollInterval,
		touched:   make(map[string]time.Time),
		processed: make(map[string]bool),
		stopCh:    make(chan struct{}),
	}
}

// SetOnScanComplete registers a callback run after the full scan of dir
// that Start performs. Paths re-probed after debounced filesystem events
// do not trigger it. Call before Start.
func (w *Watcher) SetOnScanComplete(fn func()) {
	w.onScanComplete = fn
}

// Start scans dir once, then watches it for changes until Stop is called.
func (w *Watcher) Start() error {
	l := log.WithComponent("watcher")

	w.scanAll()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsWatcher = fw

	if err := fw.Add(w.dir); err != nil {
		return err
	}

	go w.watchLoop()
	go w.debounceLoop()

	l.Info().Str("dir", w.dir).Msg("watcher started")
	return nil
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	close(w.stopCh)
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
	}
}

func (w *Watcher) watchLoop() {
	l := log.WithComponent("watcher")
	for {
		select {
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.mu.Lock()
			w.touched[ev.Name] = time.Now()
			w.mu.Unlock()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			l.Warn().Err(err).Msg("watcher error")
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) debounceLoop() {
	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.processQuietPaths()
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) processQuietPaths() {
	now := time.Now()

	w.mu.Lock()
	var ready []string
	for path, t := range w.touched {
		if now.Sub(t) >= w.quietFor {
			ready = append(ready, path)
			delete(w.touched, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.tryDiscover(path)
	}
}

// scanProbeConcurrency bounds how many candidate binaries are probed with
// `manifest` at once, so a catalog dir full of slow-starting binaries
// doesn't serialize the initial scan.
const scanProbeConcurrency = 8

func (w *Watcher) scanAll() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		log.WithComponent("watcher").Warn().Err(err).Str("dir", w.dir).Msg("initial scan failed")
		return
	}

	var g errgroup.Group
	g.SetLimit(scanProbeConcurrency)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		g.Go(func() error {
			w.tryDiscover(path)
			return nil
		})
	}
	g.Wait()

	if w.onScanComplete != nil {
		w.onScanComplete()
	}
}

// tryDiscover executes path with `manifest`, and on success publishes
// ServiceDiscovered. Unparsable or non-executable files are silently
// skipped, per the watcher's noise-suppression policy.
func (w *Watcher) tryDiscover(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	if info.Mode()&0o111 == 0 {
		return
	}

	timer := metrics.NewTimer()
	desc, err := probeManifest(path)
	timer.ObserveDuration(metrics.DiscoveryScanDuration)

	if err != nil {
		metrics.DiscoveryScansTotal.WithLabelValues("skipped").Inc()
		return
	}
	metrics.DiscoveryScansTotal.WithLabelValues("discovered").Inc()

	w.mu.Lock()
	w.processed[path] = true
	w.mu.Unlock()

	w.bus.Publish(eventbus.SystemEvent{
		Kind:       eventbus.EventServiceDiscovered,
		Descriptor: desc,
	})
}

// probeManifest runs `<path> manifest` and parses its stdout.
func probeManifest(path string) (manifest.ServiceDescriptor, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return manifest.ServiceDescriptor{}, err
	}

	cmd := exec.Command(absPath, "manifest")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return manifest.ServiceDescriptor{}, err
	}

	var m manifest.ServiceManifest
	if err := json.Unmarshal(stdout.Bytes(), &m); err != nil {
		return manifest.ServiceDescriptor{}, err
	}

	return manifest.FromManifest(m, absPath), nil
}
