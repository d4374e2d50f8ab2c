package core

import (
	"context"
	"sort"

	"github.com/signalsfoundry/orbit-tracker/internal/arena"
	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/scene"
	"github.com/signalsfoundry/orbit-tracker/trajectory"
)

// PathKeyPrefix prefixes a Track identifier to form its entity ID.
const PathKeyPrefix = "path:"

type pathEntry struct {
	id     string
	entity scene.Entity
	path   *trajectory.Trajectory
	handle arena.Handle // retained constants the path was sampled from
}

// PathManager owns the orbit path entities. Each Track has at most one
// pinned path, and there is at most one hover path overall. While a path
// of either origin is visible for a Track its point marker is hidden.
// PathManager shares the engine's lock.
type PathManager struct {
	e      *Engine
	pinned map[string]*pathEntry
	hover  *pathEntry
}

func newPathManager(e *Engine) *PathManager {
	return &PathManager{e: e, pinned: make(map[string]*pathEntry)}
}

// EntityKey returns the registry key for a Track's path.
func EntityKey(origin scene.Origin, id string) scene.EntityKey {
	return scene.EntityKey{Origin: origin, ID: PathKeyPrefix + id}
}

// ShowPath shows the path for sel. For Pinned, an existing path has its
// visibility toggled; otherwise a trajectory over [now, now+window] is
// sampled and registered. For Hover, the previous hover path is removed
// and replaced by one for the first identifier. color overrides the
// Track's point colour. The result is the last entity left visible, or
// nil when nothing is shown.
func (pm *PathManager) ShowPath(sel Selector, origin scene.Origin, color *scene.Color) scene.Entity {
	e := pm.e
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.host.Entities == nil || sel.Empty() {
		return nil
	}

	var shown scene.Entity
	switch origin {
	case scene.Hover:
		id, _ := sel.first()
		pm.removeHoverLocked()
		if entry := pm.buildLocked(id, origin, color); entry != nil {
			pm.hover = entry
			shown = entry.entity
			pm.syncPointLocked(id)
		}
	default:
		for _, id := range sel.IDs() {
			if _, live := e.byID[id]; !live {
				continue
			}
			if entry, ok := pm.pinned[id]; ok {
				visible := !entry.entity.Visible()
				entry.entity.SetVisible(visible)
				if visible {
					shown = entry.entity
				}
				pm.syncPointLocked(id)
				continue
			}
			entry := pm.buildLocked(id, origin, color)
			if entry == nil {
				continue
			}
			pm.pinned[id] = entry
			shown = entry.entity
			pm.syncPointLocked(id)
		}
	}
	pm.recordLocked()
	return shown
}

// HidePath removes the paths of origin for every identifier in sel and
// restores their point markers.
func (pm *PathManager) HidePath(sel Selector, origin scene.Origin) {
	e := pm.e
	e.mu.Lock()
	defer e.mu.Unlock()
	switch origin {
	case scene.Hover:
		if pm.hover != nil && sel.contains(pm.hover.id) {
			pm.removeHoverLocked()
		}
	default:
		for _, id := range sel.IDs() {
			pm.removePinnedLocked(id)
		}
	}
	pm.recordLocked()
}

// HideAll removes every path of origin.
func (pm *PathManager) HideAll(origin scene.Origin) {
	e := pm.e
	e.mu.Lock()
	defer e.mu.Unlock()
	if origin == scene.Hover {
		pm.removeHoverLocked()
	} else {
		for id := range pm.pinned {
			pm.removePinnedLocked(id)
		}
	}
	pm.recordLocked()
}

// Active lists the identifiers with a path of origin, sorted.
func (pm *PathManager) Active(origin scene.Origin) []string {
	pm.e.mu.Lock()
	defer pm.e.mu.Unlock()
	if origin == scene.Hover {
		if pm.hover == nil {
			return nil
		}
		return []string{pm.hover.id}
	}
	ids := make([]string, 0, len(pm.pinned))
	for id := range pm.pinned {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Trajectory returns the sampled path backing a Track's entity.
func (pm *PathManager) Trajectory(origin scene.Origin, id string) (*trajectory.Trajectory, bool) {
	pm.e.mu.Lock()
	defer pm.e.mu.Unlock()
	var entry *pathEntry
	if origin == scene.Hover {
		if pm.hover != nil && pm.hover.id == id {
			entry = pm.hover
		}
	} else {
		entry = pm.pinned[id]
	}
	if entry == nil {
		return nil, false
	}
	return entry.path, true
}

func (pm *PathManager) buildLocked(id string, origin scene.Origin, color *scene.Color) *pathEntry {
	e := pm.e
	tr, ok := e.byID[id]
	if !ok {
		return nil
	}
	c, ok := e.constants.Get(tr.handle)
	if !ok {
		return nil
	}
	now := e.now()
	path := e.sampler.Sample(c, now, now.Add(e.cfg.Window))
	col := e.style(tr.Class).Color
	if tr.Hint != nil {
		col = tr.Hint.Color
	}
	if color != nil {
		col = *color
	}
	entity, err := e.host.Entities.Add(scene.EntitySpec{
		Key:       EntityKey(origin, id),
		Label:     tr.Name,
		Color:     col,
		Path:      path,
		LeadTime:  e.cfg.LeadTime,
		TrailTime: e.cfg.TrailTime,
	})
	if err != nil {
		e.log.Warn(context.Background(), "path entity rejected by host",
			logging.String("id", id),
			logging.String("origin", origin.String()),
			logging.Err(err),
		)
		return nil
	}
	if path.Gaps() > 0 {
		e.log.Debug(context.Background(), "path sampled with gaps",
			logging.String("id", id),
			logging.Int("samples", path.Len()),
			logging.Int("gaps", path.Gaps()),
		)
	}
	e.constants.Retain(tr.handle)
	return &pathEntry{id: id, entity: entity, path: path, handle: tr.handle}
}

func (pm *PathManager) removePinnedLocked(id string) {
	entry, ok := pm.pinned[id]
	if !ok {
		return
	}
	delete(pm.pinned, id)
	pm.e.host.Entities.Remove(entry.entity.Key())
	pm.e.constants.Release(entry.handle)
	pm.syncPointLocked(id)
}

func (pm *PathManager) removeHoverLocked() {
	if pm.hover == nil {
		return
	}
	entry := pm.hover
	pm.hover = nil
	pm.e.host.Entities.Remove(entry.entity.Key())
	pm.e.constants.Release(entry.handle)
	pm.syncPointLocked(entry.id)
}

// syncPointLocked shows a Track's point only when no visible path of
// either origin stands in for it.
func (pm *PathManager) syncPointLocked(id string) {
	tr, ok := pm.e.byID[id]
	if !ok || tr.point == nil {
		return
	}
	covered := pm.hover != nil && pm.hover.id == id
	if entry, ok := pm.pinned[id]; ok && entry.entity.Visible() {
		covered = true
	}
	tr.point.SetVisible(!covered)
}

// clearLocked releases every path without touching points, which the
// caller is about to remove.
func (pm *PathManager) clearLocked() {
	for _, entry := range pm.pinned {
		if pm.e.host.Entities != nil {
			pm.e.host.Entities.Remove(entry.entity.Key())
		}
		pm.e.constants.Release(entry.handle)
	}
	if pm.hover != nil {
		if pm.e.host.Entities != nil {
			pm.e.host.Entities.Remove(pm.hover.entity.Key())
		}
		pm.e.constants.Release(pm.hover.handle)
	}
	pm.pinned = make(map[string]*pathEntry)
	pm.hover = nil
	pm.recordLocked()
}

func (pm *PathManager) recordLocked() {
	if pm.e.metrics == nil {
		return
	}
	pm.e.metrics.SetPaths(scene.Pinned.String(), len(pm.pinned))
	hover := 0
	if pm.hover != nil {
		hover = 1
	}
	pm.e.metrics.SetPaths(scene.Hover.String(), hover)
}
