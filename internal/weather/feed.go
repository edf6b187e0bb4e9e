package weather

import "sync"

// feed fans out change notifications per cache key.
// Each watcher has a one-slot signal channel, so bursts of writes coalesce.
type feed struct {
	mu       sync.Mutex
	watchers map[string]map[chan struct{}]struct{}
}

func newFeed() *feed {
	return &feed{watchers: make(map[string]map[chan struct{}]struct{})}
}

func (f *feed) subscribe(key string) (<-chan struct{}, func()) {
	signal := make(chan struct{}, 1)

	f.mu.Lock()
	if f.watchers[key] == nil {
		f.watchers[key] = make(map[chan struct{}]struct{})
	}
	f.watchers[key][signal] = struct{}{}
	f.mu.Unlock()

	return signal, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.watchers[key], signal)
		if len(f.watchers[key]) == 0 {
			delete(f.watchers, key)
		}
	}
}

func (f *feed) notify(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for signal := range f.watchers[key] {
		wake(signal)
	}
}

func (f *feed) notifyAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, set := range f.watchers {
		for signal := range set {
			wake(signal)
		}
	}
}

func wake(signal chan struct{}) {
	select {
	case signal <- struct{}{}:
	default:
	}
}
