package gallery

// ClampIndex keeps index inside [0, length-1], or 0 for an empty list.
func ClampIndex(index, length int) int {
	if length <= 0 || index < 0 {
		return 0
	}
	if index >= length {
		return length - 1
	}
	return index
}

// IndexAfterRemove computes the selected index after the item at
// removedIndex (a position in the pre-delete list) disappeared. A negative
// removedIndex means the position is unknown and only clamping applies.
func IndexAfterRemove(removedIndex, previousSelected, newLength int) int {
	selected := previousSelected
	switch {
	case removedIndex < 0:
	case removedIndex > previousSelected:
		// an item after the viewed one went away
	case removedIndex == previousSelected:
		selected = max(0, previousSelected-1)
	default:
		selected = previousSelected - 1
	}
	return ClampIndex(selected, newLength)
}

// IndexAfterInsert keeps the selection on the same logical item when an item
// is inserted at or before it.
func IndexAfterInsert(insertedIndex, previousSelected, newLength int) int {
	selected := previousSelected
	if insertedIndex >= 0 && insertedIndex <= previousSelected && newLength > 1 {
		selected = previousSelected + 1
	}
	return ClampIndex(selected, newLength)
}

// SelectionTracker holds the carousel cursor of one gallery.
type SelectionTracker struct {
	index int
}

func (t *SelectionTracker) Index() int {
	return t.index
}

// Select moves the cursor, clamped to the current list length.
func (t *SelectionTracker) Select(index, length int) int {
	t.index = ClampIndex(index, length)
	return t.index
}

func (t *SelectionTracker) Removed(removedIndex, newLength int) int {
	t.index = IndexAfterRemove(removedIndex, t.index, newLength)
	return t.index
}

func (t *SelectionTracker) Inserted(insertedIndex, newLength int) int {
	t.index = IndexAfterInsert(insertedIndex, t.index, newLength)
	return t.index
}

// Reconcile re-clamps after a reload that was not a single insert or remove.
func (t *SelectionTracker) Reconcile(newLength int) int {
	t.index = ClampIndex(t.index, newLength)
	return t.index
}
