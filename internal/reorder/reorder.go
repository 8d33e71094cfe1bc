// Package reorder moves habits around the display order.
//
// The logic is independent of the input device: the TUI turns a keyboard
// grab-and-drop gesture into DragStart and DragEnd calls, and the CLI move
// command calls Apply directly.
package reorder

import "github.com/existflow/habitgrid/internal/model"

// Move returns a new slice with the element at from reinserted at to.
// All other elements keep their relative order. Out of range positions
// return an unchanged copy.
func Move(habits []model.Habit, from, to int) []model.Habit {
	out := make([]model.Habit, len(habits))
	copy(out, habits)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}

	moved := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = moved
	return out
}

// Reindex assigns index = position + 1 to every habit in order
func Reindex(habits []model.Habit) []model.Habit {
	for i := range habits {
		habits[i].Index = int64(i + 1)
	}
	return habits
}

// Apply moves the habit sourceID to the position held by targetID and
// reindexes the result. ok is false when nothing should change.
func Apply(habits []model.Habit, sourceID, targetID int64) ([]model.Habit, bool) {
	if sourceID == targetID {
		return nil, false
	}
	from := model.FindHabit(habits, sourceID)
	to := model.FindHabit(habits, targetID)
	if from < 0 || to < 0 {
		return nil, false
	}
	return Reindex(Move(habits, from, to)), true
}

// Controller tracks the habit being dragged during a gesture
type Controller struct {
	dragging *model.Habit
}

// DragStart records the habit whose id matches the dragged element.
// Unknown ids leave the controller idle.
func (c *Controller) DragStart(habits []model.Habit, id int64) bool {
	i := model.FindHabit(habits, id)
	if i < 0 {
		c.dragging = nil
		return false
	}
	h := habits[i]
	c.dragging = &h
	return true
}

// Dragging returns the habit currently held, if any
func (c *Controller) Dragging() (model.Habit, bool) {
	if c.dragging == nil {
		return model.Habit{}, false
	}
	return *c.dragging, true
}

// Cancel drops the current gesture without changes
func (c *Controller) Cancel() {
	c.dragging = nil
}

// DragEnd finishes the gesture. hasTarget is false when the drop landed
// outside any habit. The returned sequence is moved and reindexed; ok is
// false for a no-op drop.
func (c *Controller) DragEnd(habits []model.Habit, targetID int64, hasTarget bool) ([]model.Habit, bool) {
	dragged := c.dragging
	c.dragging = nil
	if dragged == nil || !hasTarget {
		return nil, false
	}
	return Apply(habits, dragged.ID, targetID)
}
