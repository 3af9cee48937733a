package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// DefaultSlot is the store slot holding the device snapshot.
const DefaultSlot = "devices"

// Logger defines the logging interface used by the Cache.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Cache is the console's ordered, id-unique collection of devices.
//
// Mutations are serialised and written to the Store before they become
// visible; a failed write leaves the in-memory view untouched.
// All public methods are thread-safe.
type Cache struct {
	store Store
	slot  string

	mu      sync.RWMutex
	devices []Device       // insertion order
	index   map[string]int // id → position in devices

	obsMu     sync.RWMutex
	observers []func(Change)

	logger Logger
}

// NewCache creates a cache persisting to slot in store.
// An empty slot name selects DefaultSlot.
func NewCache(store Store, slot string) *Cache {
	if slot == "" {
		slot = DefaultSlot
	}
	return &Cache{
		store:  store,
		slot:   slot,
		index:  make(map[string]int),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the cache.
func (c *Cache) SetLogger(logger Logger) {
	c.logger = logger
}

// OnChange registers fn to run after every committed mutation.
// fn runs on the mutating goroutine and must not call back into the cache
// for writing.
func (c *Cache) OnChange(fn func(Change)) {
	c.obsMu.Lock()
	c.observers = append(c.observers, fn)
	c.obsMu.Unlock()
}

// Load reads the persisted snapshot into memory and returns it.
//
// A missing slot or undecodable snapshot yields an empty cache; only a
// store failure is returned as an error.
func (c *Cache) Load(ctx context.Context) ([]Device, error) {
	raw, err := c.store.Get(ctx, c.slot)
	if err != nil && !errors.Is(err, ErrSlotNotFound) {
		return nil, fmt.Errorf("loading device cache: %w", err)
	}

	var devices []Device
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &devices); err != nil {
			c.logger.Warn("discarding unreadable device cache", "slot", c.slot, "error", err)
			devices = nil
		}
	}
	devices, index := dedupe(devices)

	c.mu.Lock()
	c.devices = devices
	c.index = index
	c.mu.Unlock()

	c.logger.Debug("device cache loaded", "count", len(devices))
	return cloneAll(devices), nil
}

// Replace sets the cache to exactly devices.
// Repeated ids collapse to the first position carrying the last payload.
func (c *Cache) Replace(ctx context.Context, devices []Device) error {
	if err := checkIDs(devices); err != nil {
		return err
	}

	next, index := dedupe(devices)

	c.mu.Lock()
	if err := c.persist(ctx, next); err != nil {
		c.mu.Unlock()
		return err
	}
	c.devices, c.index = next, index
	total := len(next)
	c.mu.Unlock()

	c.notify(Change{Op: OpReplace, IDs: ids(devices), Total: total})
	return nil
}

// Merge upserts devices by id. New ids are appended in input order;
// existing ids keep their position and take the incoming payload.
func (c *Cache) Merge(ctx context.Context, devices []Device) error {
	if err := checkIDs(devices); err != nil {
		return err
	}

	c.mu.Lock()
	next := make([]Device, len(c.devices), len(c.devices)+len(devices))
	copy(next, c.devices)
	index := make(map[string]int, len(c.index)+len(devices))
	for id, pos := range c.index {
		index[id] = pos
	}
	for i := range devices {
		d := *devices[i].DeepCopy()
		if pos, ok := index[d.ID]; ok {
			next[pos] = d
			continue
		}
		index[d.ID] = len(next)
		next = append(next, d)
	}

	if err := c.persist(ctx, next); err != nil {
		c.mu.Unlock()
		return err
	}
	c.devices, c.index = next, index
	total := len(next)
	c.mu.Unlock()

	c.notify(Change{Op: OpMerge, IDs: ids(devices), Total: total})
	return nil
}

// Clear empties the cache and removes the persisted slot.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	if err := c.store.Delete(ctx, c.slot); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("clearing device cache: %w", err)
	}
	c.devices = nil
	c.index = make(map[string]int)
	c.mu.Unlock()

	c.notify(Change{Op: OpClear, IDs: []string{}, Total: 0})
	return nil
}

// List returns a copy of the cached devices in insertion order.
func (c *Cache) List() []Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAll(c.devices)
}

// Get returns a copy of the cached device with the given id.
func (c *Cache) Get(id string) (*Device, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pos, ok := c.index[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return c.devices[pos].DeepCopy(), nil
}

// Len returns the number of cached devices.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.devices)
}

// Snapshot describes the current cache contents as a Change.
func (c *Cache) Snapshot() Change {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Change{Op: OpSnapshot, IDs: ids(c.devices), Total: len(c.devices)}
}

// persist writes devices as the snapshot. Caller holds c.mu.
func (c *Cache) persist(ctx context.Context, devices []Device) error {
	if devices == nil {
		devices = []Device{}
	}
	raw, err := json.Marshal(devices)
	if err != nil {
		return fmt.Errorf("encoding device cache: %w", err)
	}
	if err := c.store.Put(ctx, c.slot, raw); err != nil {
		return fmt.Errorf("saving device cache: %w", err)
	}
	return nil
}

func (c *Cache) notify(change Change) {
	c.obsMu.RLock()
	observers := make([]func(Change), len(c.observers))
	copy(observers, c.observers)
	c.obsMu.RUnlock()

	for _, fn := range observers {
		fn(change)
	}
}

// dedupe builds an id-unique list preserving first-seen order, with the
// last payload for each id.
func dedupe(devices []Device) ([]Device, map[string]int) {
	out := make([]Device, 0, len(devices))
	index := make(map[string]int, len(devices))
	for i := range devices {
		d := *devices[i].DeepCopy()
		if pos, ok := index[d.ID]; ok {
			out[pos] = d
			continue
		}
		index[d.ID] = len(out)
		out = append(out, d)
	}
	return out, index
}

func checkIDs(devices []Device) error {
	for i := range devices {
		if devices[i].ID == "" {
			return fmt.Errorf("%w: record %d has no id", ErrInvalidDevice, i)
		}
	}
	return nil
}

func cloneAll(devices []Device) []Device {
	out := make([]Device, len(devices))
	for i := range devices {
		out[i] = *devices[i].DeepCopy()
	}
	return out
}

func ids(devices []Device) []string {
	out := make([]string, len(devices))
	for i := range devices {
		out[i] = devices[i].ID
	}
	return out
}
