package quote

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"medlab/catalog/internal/domain"
)

var ErrNotInitialized = errors.New("quote manager not initialized")

// Snapshot is the state handed to subscribers after a change.
type Snapshot struct {
	Items     []domain.QuoteItem
	ItemCount int
	Open      bool
}

type Option func(*Manager)

// WithOpen sets the initial visibility flag.
func WithOpen(open bool) Option {
	return func(m *Manager) {
		m.open = open
	}
}

// Manager owns the request list. Every change to the items is saved before the call returns.
type Manager struct {
	mu          sync.Mutex
	persistence Persistence
	items       []domain.QuoteItem
	open        bool

	subMu       sync.Mutex
	nextSubID   int
	subscribers map[int]func(Snapshot)

	// pending holds snapshots in mutation order until drain delivers them.
	pendingMu sync.Mutex
	pending   []Snapshot
	draining  bool
}

func NewManager(ctx context.Context, persistence Persistence, opts ...Option) (*Manager, error) {
	if persistence == nil {
		return nil, errors.New("quote persistence is required")
	}

	items, err := persistence.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore quote: %w", err)
	}

	m := &Manager{
		persistence: persistence,
		items:       normalize(items),
		subscribers: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) mustBeReady() {
	if m == nil || m.persistence == nil {
		panic(ErrNotInitialized)
	}
}

// AddItem bumps the quantity of an existing product or appends it with quantity 1, then opens the list.
func (m *Manager) AddItem(ctx context.Context, product domain.Product) error {
	m.mustBeReady()
	if product.ID == "" {
		return errors.New("product id is required")
	}

	m.mu.Lock()
	next := slices.Clone(m.items)
	if i := indexOf(next, product.ID); i >= 0 {
		next[i].Quantity++
	} else {
		next = append(next, domain.QuoteItem{Product: product, Quantity: 1})
	}
	if err := m.commit(ctx, next); err != nil {
		m.mu.Unlock()
		return err
	}
	m.open = true
	m.enqueue(m.snapshot())
	m.mu.Unlock()

	m.drain()
	return nil
}

// RemoveItem deletes the item for productID. Absent ids are ignored.
func (m *Manager) RemoveItem(ctx context.Context, productID string) error {
	m.mustBeReady()

	m.mu.Lock()
	i := indexOf(m.items, productID)
	if i < 0 {
		m.mu.Unlock()
		return nil
	}
	next := slices.Delete(slices.Clone(m.items), i, i+1)
	return m.finish(ctx, next)
}

// UpdateQuantity replaces the quantity of productID. A quantity below 1 removes the item.
func (m *Manager) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	m.mustBeReady()
	if quantity <= 0 {
		return m.RemoveItem(ctx, productID)
	}

	m.mu.Lock()
	i := indexOf(m.items, productID)
	if i < 0 || m.items[i].Quantity == quantity {
		m.mu.Unlock()
		return nil
	}
	next := slices.Clone(m.items)
	next[i].Quantity = quantity
	return m.finish(ctx, next)
}

func (m *Manager) Clear(ctx context.Context) error {
	m.mustBeReady()

	m.mu.Lock()
	return m.finish(ctx, nil)
}

func (m *Manager) SetOpen(open bool) {
	m.mustBeReady()

	m.mu.Lock()
	if m.open == open {
		m.mu.Unlock()
		return
	}
	m.open = open
	m.enqueue(m.snapshot())
	m.mu.Unlock()

	m.drain()
}

func (m *Manager) Toggle() {
	m.mustBeReady()

	m.mu.Lock()
	m.open = !m.open
	m.enqueue(m.snapshot())
	m.mu.Unlock()

	m.drain()
}

func (m *Manager) IsOpen() bool {
	m.mustBeReady()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Items returns a copy in insertion order.
func (m *Manager) Items() []domain.QuoteItem {
	m.mustBeReady()
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.items)
}

// ItemCount is the sum of all quantities.
func (m *Manager) ItemCount() int {
	m.mustBeReady()
	m.mu.Lock()
	defer m.mu.Unlock()
	return countOf(m.items)
}

func (m *Manager) Contains(productID string) bool {
	m.mustBeReady()
	m.mu.Lock()
	defer m.mu.Unlock()
	return indexOf(m.items, productID) >= 0
}

// Summary renders the list as "Name (xN), ..." for a quote request message.
func (m *Manager) Summary() string {
	m.mustBeReady()
	m.mu.Lock()
	defer m.mu.Unlock()

	parts := make([]string, 0, len(m.items))
	for _, item := range m.items {
		parts = append(parts, fmt.Sprintf("%s (x%d)", item.Product.Name, item.Quantity))
	}
	return strings.Join(parts, ", ")
}

func (m *Manager) Snapshot() Snapshot {
	m.mustBeReady()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// Subscribe registers fn for every later change. The returned func removes it.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mustBeReady()

	m.subMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	m.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subscribers, id)
			m.subMu.Unlock()
		})
	}
}

// finish must be called with mu held and releases it.
func (m *Manager) finish(ctx context.Context, next []domain.QuoteItem) error {
	if err := m.commit(ctx, next); err != nil {
		m.mu.Unlock()
		return err
	}
	m.enqueue(m.snapshot())
	m.mu.Unlock()

	m.drain()
	return nil
}

// commit saves next and only then swaps it in.
func (m *Manager) commit(ctx context.Context, next []domain.QuoteItem) error {
	if err := m.persistence.Save(ctx, next); err != nil {
		return err
	}
	m.items = next
	return nil
}

func (m *Manager) snapshot() Snapshot {
	return Snapshot{
		Items:     slices.Clone(m.items),
		ItemCount: countOf(m.items),
		Open:      m.open,
	}
}

// enqueue must be called with mu held so the queue follows mutation order.
func (m *Manager) enqueue(snap Snapshot) {
	m.pendingMu.Lock()
	m.pending = append(m.pending, snap)
	m.pendingMu.Unlock()
}

// drain delivers queued snapshots one at a time. Only one goroutine drains at
// once; others return and leave their snapshots to it. Subscribers run with no
// lock held and may call back into the manager.
func (m *Manager) drain() {
	m.pendingMu.Lock()
	if m.draining {
		m.pendingMu.Unlock()
		return
	}
	m.draining = true
	m.pendingMu.Unlock()

	done := false
	defer func() {
		if !done {
			m.pendingMu.Lock()
			m.draining = false
			m.pendingMu.Unlock()
		}
	}()

	for {
		m.pendingMu.Lock()
		if len(m.pending) == 0 {
			m.draining = false
			done = true
			m.pendingMu.Unlock()
			return
		}
		snap := m.pending[0]
		m.pending = m.pending[1:]
		m.pendingMu.Unlock()

		m.publish(snap)
	}
}

func (m *Manager) publish(snap Snapshot) {
	m.subMu.Lock()
	ids := make([]int, 0, len(m.subscribers))
	for id := range m.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, m.subscribers[id])
	}
	m.subMu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func indexOf(items []domain.QuoteItem, productID string) int {
	return slices.IndexFunc(items, func(item domain.QuoteItem) bool {
		return item.Product.ID == productID
	})
}

func countOf(items []domain.QuoteItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}
