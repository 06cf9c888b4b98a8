package gallery

import (
	"evalgallery/internal/models"
	"evalgallery/internal/store"
)

// planMove computes the position updates needed to move one attachment to
// target within a row-major ordered list of occupants.
//
// When target is free only the moved attachment changes slot. When it is
// occupied, the set of occupied slots is kept: the moved attachment is taken
// out of the ordering and reinserted at the target's index, and every
// occupant is reassigned to the slots in order. Occupants between origin and
// target therefore shift one slot toward the origin whichever way the move
// goes. Moving onto the current slot yields no updates.
func planMove(entries []models.Attachment, moving models.Attachment, target models.Position) []store.PositionUpdate {
	if moving.Position() == target {
		return nil
	}

	slots := make([]models.Position, 0, len(entries))
	order := make([]string, 0, len(entries))
	current := make(map[string]models.Position, len(entries))
	targetIdx := -1
	for _, a := range entries {
		if a.Position() == target {
			targetIdx = len(slots)
		}
		slots = append(slots, a.Position())
		current[a.ID] = a.Position()
		if a.ID != moving.ID {
			order = append(order, a.ID)
		}
	}

	if targetIdx < 0 {
		return []store.PositionUpdate{{ID: moving.ID, Column: target.Column, Row: target.Row}}
	}

	order = append(order, "")
	copy(order[targetIdx+1:], order[targetIdx:])
	order[targetIdx] = moving.ID

	updates := make([]store.PositionUpdate, 0, len(order))
	for i, id := range order {
		if current[id] != slots[i] {
			updates = append(updates, store.PositionUpdate{ID: id, Column: slots[i].Column, Row: slots[i].Row})
		}
	}
	return updates
}

// compactLayout packs row-major ordered entries into a dense grid of the
// given column width, keeping their relative order.
func compactLayout(entries []models.Attachment, columns int) []store.PositionUpdate {
	updates := []store.PositionUpdate{}
	for i, a := range entries {
		pos := models.Position{Column: i % columns, Row: i / columns}
		if a.Position() != pos {
			updates = append(updates, store.PositionUpdate{ID: a.ID, Column: pos.Column, Row: pos.Row})
		}
	}
	return updates
}
