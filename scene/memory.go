package scene

import (
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/orbit-tracker/model"
)

// EventType indicates what changed in a Memory host.
type EventType int

const (
	EventPointAdded EventType = iota
	EventPointRemoved
	EventEntityAdded
	EventEntityRemoved
)

// Event is emitted to subscribers on structural changes. Position writes
// are not events; read them with Points.
type Event struct {
	Type   EventType
	Point  PointState
	Entity EntityKey
}

// PointState is a snapshot of one point marker.
type PointState struct {
	ID        string
	Label     string
	Color     Color
	PixelSize float64
	Position  model.Vec3
	Visible   bool
}

// EntityState is a snapshot of one path entity.
type EntityState struct {
	Spec    EntitySpec
	Visible bool
}

// Memory is an in-memory, thread-safe host implementing PointCollection
// and EntityRegistry.
type Memory struct {
	mu sync.RWMutex

	points   map[*memPoint]struct{}
	entities map[EntityKey]*memEntity

	subs   map[int]func(Event)
	nextID int
}

// NewMemory constructs an empty host.
func NewMemory() *Memory {
	return &Memory{
		points:   make(map[*memPoint]struct{}),
		entities: make(map[EntityKey]*memEntity),
		subs:     make(map[int]func(Event)),
	}
}

type memPoint struct {
	mu    sync.Mutex
	style PointStyle
	pos   model.Vec3
	shown bool
}

func (p *memPoint) SetPosition(v model.Vec3) {
	p.mu.Lock()
	p.pos = v
	p.mu.Unlock()
}

func (p *memPoint) SetVisible(v bool) {
	p.mu.Lock()
	p.shown = v
	p.mu.Unlock()
}

func (p *memPoint) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shown
}

func (p *memPoint) state() PointState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PointState{
		ID:        p.style.ID,
		Label:     p.style.Label,
		Color:     p.style.Color,
		PixelSize: p.style.PixelSize,
		Position:  p.pos,
		Visible:   p.shown,
	}
}

// Add creates a visible point.
func (m *Memory) Add(style PointStyle) Point {
	p := &memPoint{style: style, shown: true}
	m.mu.Lock()
	m.points[p] = struct{}{}
	m.mu.Unlock()
	m.notify(Event{Type: EventPointAdded, Point: p.state()})
	return p
}

// Remove releases a point created by Add. Unknown points are ignored.
func (m *Memory) Remove(pt Point) {
	p, ok := pt.(*memPoint)
	if !ok {
		return
	}
	m.mu.Lock()
	_, exists := m.points[p]
	delete(m.points, p)
	m.mu.Unlock()
	if exists {
		m.notify(Event{Type: EventPointRemoved, Point: p.state()})
	}
}

// Points returns a snapshot of all points ordered by ID.
func (m *Memory) Points() []PointState {
	m.mu.RLock()
	res := make([]PointState, 0, len(m.points))
	for p := range m.points {
		res = append(res, p.state())
	}
	m.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Point returns the state of the point with the given ID.
func (m *Memory) Point(id string) (PointState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for p := range m.points {
		if p.style.ID == id {
			return p.state(), true
		}
	}
	return PointState{}, false
}

// PointCount returns the number of live points.
func (m *Memory) PointCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}

type memEntity struct {
	mu    sync.Mutex
	spec  EntitySpec
	shown bool
}

func (e *memEntity) Key() EntityKey { return e.spec.Key }

func (e *memEntity) SetVisible(v bool) {
	e.mu.Lock()
	e.shown = v
	e.mu.Unlock()
}

func (e *memEntity) Visible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shown
}

// AddEntity implements EntityRegistry.Add. It returns an error if the key
// is already registered.
func (m *Memory) AddEntity(spec EntitySpec) (Entity, error) {
	m.mu.Lock()
	if _, exists := m.entities[spec.Key]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("entity %s/%q already exists", spec.Key.Origin, spec.Key.ID)
	}
	e := &memEntity{spec: spec, shown: true}
	m.entities[spec.Key] = e
	m.mu.Unlock()
	m.notify(Event{Type: EventEntityAdded, Entity: spec.Key})
	return e, nil
}

// RemoveEntity implements EntityRegistry.Remove.
func (m *Memory) RemoveEntity(key EntityKey) bool {
	m.mu.Lock()
	_, ok := m.entities[key]
	delete(m.entities, key)
	m.mu.Unlock()
	if ok {
		m.notify(Event{Type: EventEntityRemoved, Entity: key})
	}
	return ok
}

// GetEntity implements EntityRegistry.Get.
func (m *Memory) GetEntity(key EntityKey) (Entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[key]
	if !ok {
		return nil, false
	}
	return e, true
}

// Entities returns a snapshot of registered entities ordered by origin and ID.
func (m *Memory) Entities() []EntityState {
	m.mu.RLock()
	res := make([]EntityState, 0, len(m.entities))
	for _, e := range m.entities {
		res = append(res, EntityState{Spec: e.spec, Visible: e.Visible()})
	}
	m.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool {
		a, b := res[i].Spec.Key, res[j].Spec.Key
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		return a.ID < b.ID
	})
	return res
}

// Registry adapts m to EntityRegistry.
func (m *Memory) Registry() EntityRegistry { return registry{m} }

type registry struct{ m *Memory }

func (r registry) Add(spec EntitySpec) (Entity, error) { return r.m.AddEntity(spec) }
func (r registry) Remove(key EntityKey) bool           { return r.m.RemoveEntity(key) }
func (r registry) Get(key EntityKey) (Entity, bool)    { return r.m.GetEntity(key) }

// Subscribe registers a callback for host events. It returns an
// unsubscribe function.
func (m *Memory) Subscribe(fn func(Event)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// notify runs subscribers outside the lock to avoid deadlocks.
func (m *Memory) notify(ev Event) {
	m.mu.RLock()
	if len(m.subs) == 0 {
		m.mu.RUnlock()
		return
	}
	subs := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}
