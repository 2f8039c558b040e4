package selector

import (
	"fmt"

	"github.com/jarlopez/petty/channel"
	"github.com/jarlopez/petty/logging"
	"github.com/jarlopez/petty/ops"
)

// DefaultTimeoutMS is the default native poller wait timeout.
const DefaultTimeoutMS = 1000

// Selector owns the native poller and the registry mapping a socket handle
// to its Key. It is single-threaded by construction: every method here is
// intended to be called only from the owning event loop's goroutine.
type Selector struct {
	poller     *nativePoller
	registered map[int32]*Key
	selected   map[int32]struct{}
	log        logging.Logger
}

// New creates a Selector backed by a freshly created native poller.
func New() (*Selector, error) {
	p, err := newNativePoller()
	if err != nil {
		return nil, fmt.Errorf("selector: create poller: %w", err)
	}
	return &Selector{
		poller:     p,
		registered: make(map[int32]*Key),
		selected:   make(map[int32]struct{}),
		log:        logging.Global(),
	}, nil
}

// Close releases the native poller. Registered keys are not closed; callers
// are responsible for closing their own channels.
func (s *Selector) Close() error {
	return s.poller.close()
}

// Register stores key under its handle and adds it to the native poller
// with interest translated to native poll flags. Overwrites any existing
// registration for the same handle, mirroring the component design.
func (s *Selector) Register(key *Key, interest ops.Ops) error {
	key.setInterest(interest)
	readable, writable, errorFlag := translateInterest(interest)

	handle := key.Handle()
	_, exists := s.registered[handle]
	s.registered[handle] = key

	if exists {
		return s.poller.modify(handle, readable, writable, errorFlag)
	}
	if err := s.poller.add(handle, readable, writable, errorFlag); err != nil {
		delete(s.registered, handle)
		return fmt.Errorf("selector: register handle %d: %w", handle, err)
	}
	return nil
}

// UpdateRegistration changes a registered handle's interest and
// re-registers it with the native poller. A no-op if the handle is not
// currently registered.
func (s *Selector) UpdateRegistration(handle int32, interest ops.Ops) error {
	key, ok := s.registered[handle]
	if !ok {
		return nil
	}
	key.setInterest(interest)
	readable, writable, errorFlag := translateInterest(interest)
	return s.poller.modify(handle, readable, writable, errorFlag)
}

// Unregister removes handle from the native poller and the registry.
func (s *Selector) Unregister(handle int32) error {
	if _, ok := s.registered[handle]; !ok {
		return nil
	}
	delete(s.registered, handle)
	delete(s.selected, handle)
	return s.poller.remove(handle)
}

// Lookup returns the Key registered for handle, if any.
func (s *Selector) Lookup(handle int32) (*Key, bool) {
	k, ok := s.registered[handle]
	return k, ok
}

// Select waits up to timeoutMs for native readiness and, for every reported
// handle, runs it through the role-aware apply_read/apply_write projection.
// A handle is added to the selected set only when the projection returns
// true; unregistered handles reported by the poller (a possible teardown
// race) are logged and skipped.
func (s *Selector) Select(timeoutMs int) error {
	for _, key := range s.registered {
		key.resetReadiness()
	}
	return s.poller.wait(timeoutMs, func(fd int32) {
		key, ok := s.registered[fd]
		if !ok {
			s.log.Debug("selector: readable event for unregistered handle", logging.Int("handle", int(fd)))
			return
		}
		if key.applyRead() {
			s.selected[fd] = struct{}{}
		}
	}, func(fd int32) {
		key, ok := s.registered[fd]
		if !ok {
			s.log.Debug("selector: writable event for unregistered handle", logging.Int("handle", int(fd)))
			return
		}
		if key.applyWrite() {
			s.selected[fd] = struct{}{}
		}
	})
}

// OnSelected atomically swaps out the selected set and invokes f once for
// each key that was marked ready this cycle. After this call returns, the
// selected set is empty.
func (s *Selector) OnSelected(f func(key *Key)) {
	if len(s.selected) == 0 {
		return
	}
	drained := s.selected
	s.selected = make(map[int32]struct{})
	for fd := range drained {
		if key, ok := s.registered[fd]; ok {
			f(key)
		}
	}
}

// OnResource invokes f against the key registered for handle, if any.
func (s *Selector) OnResource(handle int32, f func(key *Key)) {
	if key, ok := s.registered[handle]; ok {
		f(key)
	}
}

// ChannelFor is a convenience accessor used by tests and Work closures that
// need the Channel behind a handle without reaching into the registry
// directly.
func (s *Selector) ChannelFor(handle int32) (*channel.Channel, bool) {
	key, ok := s.registered[handle]
	if !ok {
		return nil, false
	}
	return key.Channel(), true
}

// Size reports how many handles are currently registered, for metrics.
func (s *Selector) Size() int { return len(s.registered) }
