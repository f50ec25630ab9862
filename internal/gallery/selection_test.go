package gallery

import (
	"fmt"
	"testing"
)

func TestIndexAfterRemove_Examples(t *testing.T) {
	// images = [A,B,C,D], C selected
	tests := []struct {
		name    string
		removed int
		want    int
	}{
		{name: "delete A", removed: 0, want: 1},
		{name: "delete C itself", removed: 2, want: 1},
		{name: "delete D", removed: 3, want: 2},
		{name: "delete B", removed: 1, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IndexAfterRemove(tt.removed, 2, 3); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

// expectedAfterRemove simulates the list and follows the logical item.
func expectedAfterRemove(length, selected, removed int) int {
	items := make([]int, length)
	for i := range items {
		items[i] = i
	}
	target := items[selected]
	if removed == selected {
		if selected > 0 {
			target = items[selected-1]
		} else if length > 1 {
			target = items[1]
		}
	}
	remaining := append(append([]int{}, items[:removed]...), items[removed+1:]...)
	for i, item := range remaining {
		if item == target {
			return i
		}
	}
	return 0
}

func TestIndexAfterRemove_ExhaustiveSmallLists(t *testing.T) {
	for length := 1; length <= 3; length++ {
		for selected := 0; selected < length; selected++ {
			for removed := 0; removed < length; removed++ {
				name := fmt.Sprintf("len=%d/selected=%d/removed=%d", length, selected, removed)
				t.Run(name, func(t *testing.T) {
					newLength := length - 1
					got := IndexAfterRemove(removed, selected, newLength)

					if newLength == 0 {
						if got != 0 {
							t.Fatalf("expected 0 for empty list, got %d", got)
						}
						return
					}
					if got < 0 || got >= newLength {
						t.Fatalf("index %d out of range for length %d", got, newLength)
					}
					if want := expectedAfterRemove(length, selected, removed); got != want {
						t.Errorf("expected %d, got %d", want, got)
					}
				})
			}
		}
	}
}

func TestIndexAfterRemove_EmptyAndUnknown(t *testing.T) {
	if got := IndexAfterRemove(0, 0, 0); got != 0 {
		t.Errorf("expected 0 on an emptied list, got %d", got)
	}
	if got := IndexAfterRemove(-1, 5, 3); got != 2 {
		t.Errorf("expected unknown position to clamp to 2, got %d", got)
	}
	if got := IndexAfterRemove(-1, 1, 3); got != 1 {
		t.Errorf("expected unknown position to keep 1, got %d", got)
	}
}

func TestClampIndex(t *testing.T) {
	for length := 0; length <= 3; length++ {
		for index := -2; index <= 4; index++ {
			got := ClampIndex(index, length)
			if length == 0 {
				if got != 0 {
					t.Errorf("ClampIndex(%d, 0) = %d, want 0", index, got)
				}
				continue
			}
			if got < 0 || got >= length {
				t.Errorf("ClampIndex(%d, %d) = %d out of range", index, length, got)
			}
			if index >= 0 && index < length && got != index {
				t.Errorf("ClampIndex(%d, %d) = %d, want unchanged", index, length, got)
			}
		}
	}
}

func TestIndexAfterInsert(t *testing.T) {
	tests := []struct {
		name      string
		inserted  int
		selected  int
		newLength int
		want      int
	}{
		{name: "first item into empty list", inserted: 0, selected: 0, newLength: 1, want: 0},
		{name: "insert before selection", inserted: 0, selected: 1, newLength: 3, want: 2},
		{name: "insert at selection", inserted: 1, selected: 1, newLength: 3, want: 2},
		{name: "append after selection", inserted: 2, selected: 1, newLength: 3, want: 1},
		{name: "unknown position", inserted: -1, selected: 1, newLength: 3, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IndexAfterInsert(tt.inserted, tt.selected, tt.newLength); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestSelectionTracker(t *testing.T) {
	var tracker SelectionTracker
	if tracker.Index() != 0 {
		t.Fatalf("expected zero value index 0, got %d", tracker.Index())
	}
	if got := tracker.Select(7, 4); got != 3 {
		t.Fatalf("expected Select to clamp to 3, got %d", got)
	}
	if got := tracker.Removed(3, 3); got != 2 {
		t.Fatalf("expected 2 after removing the selected last item, got %d", got)
	}
	if got := tracker.Inserted(0, 4); got != 3 {
		t.Fatalf("expected 3 after inserting at the front, got %d", got)
	}
	if got := tracker.Reconcile(0); got != 0 {
		t.Fatalf("expected 0 after list emptied, got %d", got)
	}
}
