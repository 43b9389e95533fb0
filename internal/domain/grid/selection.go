package grid

import "sync"

// RowSelectionController tracks selected row ids. The selection is always a
// subset of the visible rows: ids that leave the visible set are pruned.
type RowSelectionController struct {
	mu       sync.RWMutex
	visible  []string
	index    map[string]struct{}
	selected map[string]struct{}
}

// NewRowSelectionController creates a controller over the given visible rows
func NewRowSelectionController(visible []string) *RowSelectionController {
	s := &RowSelectionController{
		selected: make(map[string]struct{}),
	}
	s.setVisibleLocked(visible)
	return s
}

// SetVisible replaces the visible row set after a filter, sort or page
// change and returns how many selected ids were dropped.
func (s *RowSelectionController) SetVisible(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setVisibleLocked(ids)

	pruned := 0
	for id := range s.selected {
		if _, ok := s.index[id]; !ok {
			delete(s.selected, id)
			pruned++
		}
	}
	return pruned
}

func (s *RowSelectionController) setVisibleLocked(ids []string) {
	s.visible = make([]string, 0, len(ids))
	s.index = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := s.index[id]; dup {
			continue
		}
		s.index[id] = struct{}{}
		s.visible = append(s.visible, id)
	}
}

// SelectAll selects every visible row, or clears the selection
func (s *RowSelectionController) SelectAll(checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = make(map[string]struct{}, len(s.visible))
	if !checked {
		return
	}
	for _, id := range s.visible {
		s.selected[id] = struct{}{}
	}
}

// SelectRow toggles a single row. Ids outside the visible set are ignored
// and reported as false.
func (s *RowSelectionController) SelectRow(id string, checked bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return false
	}
	if checked {
		s.selected[id] = struct{}{}
	} else {
		delete(s.selected, id)
	}
	return true
}

// Clear drops the whole selection
func (s *RowSelectionController) Clear() {
	s.SelectAll(false)
}

// IsAllSelected is true when at least one row is visible and every visible
// row is selected.
func (s *RowSelectionController) IsAllSelected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.visible) > 0 && len(s.selected) == len(s.visible)
}

// IsIndeterminate is true for a partial selection
func (s *RowSelectionController) IsIndeterminate() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected) > 0 && len(s.selected) < len(s.visible)
}

// IsSelected reports whether id is selected
func (s *RowSelectionController) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[id]
	return ok
}

// Count returns the number of selected rows
func (s *RowSelectionController) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected)
}

// Selected returns the selected ids in visible order
func (s *RowSelectionController) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.selected))
	for _, id := range s.visible {
		if _, ok := s.selected[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Visible returns the visible row ids
func (s *RowSelectionController) Visible() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.visible))
	copy(out, s.visible)
	return out
}
