package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"evalgallery/internal/models"
	"evalgallery/internal/store"
)

func at(id string, column, row int) models.Attachment {
	return models.Attachment{ID: id, Column: column, Row: row}
}

func TestPlanMove(t *testing.T) {
	// Row-major: a(0,0) b(1,0) c(2,0) d(0,1)
	entries := []models.Attachment{at("a", 0, 0), at("b", 1, 0), at("c", 2, 0), at("d", 0, 1)}

	tests := []struct {
		name   string
		moving models.Attachment
		target models.Position
		want   []store.PositionUpdate
	}{
		{
			name:   "own position is a no-op",
			moving: entries[1],
			target: models.Position{Column: 1, Row: 0},
			want:   nil,
		},
		{
			name:   "free slot moves only the attachment",
			moving: entries[0],
			target: models.Position{Column: 3, Row: 2},
			want:   []store.PositionUpdate{{ID: "a", Column: 3, Row: 2}},
		},
		{
			name:   "forward onto occupied slot shifts toward origin",
			moving: entries[0],
			target: models.Position{Column: 2, Row: 0},
			want: []store.PositionUpdate{
				{ID: "b", Column: 0, Row: 0},
				{ID: "c", Column: 1, Row: 0},
				{ID: "a", Column: 2, Row: 0},
			},
		},
		{
			name:   "backward onto occupied slot shifts toward origin",
			moving: entries[3],
			target: models.Position{Column: 1, Row: 0},
			want: []store.PositionUpdate{
				{ID: "d", Column: 1, Row: 0},
				{ID: "b", Column: 2, Row: 0},
				{ID: "c", Column: 0, Row: 1},
			},
		},
		{
			name:   "swap with neighbour",
			moving: entries[2],
			target: models.Position{Column: 0, Row: 1},
			want: []store.PositionUpdate{
				{ID: "d", Column: 2, Row: 0},
				{ID: "c", Column: 0, Row: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planMove(entries, tt.moving, tt.target)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanMoveKeepsOccupiedSlots(t *testing.T) {
	entries := []models.Attachment{at("a", 0, 0), at("b", 3, 0), at("c", 1, 2), at("d", 4, 2), at("e", 0, 5)}
	before := map[models.Position]bool{}
	for _, a := range entries {
		before[a.Position()] = true
	}

	for _, moving := range entries {
		for _, target := range entries {
			updates := planMove(entries, moving, target.Position())
			after := map[string]models.Position{}
			for _, a := range entries {
				after[a.ID] = a.Position()
			}
			for _, u := range updates {
				after[u.ID] = models.Position{Column: u.Column, Row: u.Row}
			}

			occupied := map[models.Position]bool{}
			for _, pos := range after {
				occupied[pos] = true
			}
			assert.Equal(t, before, occupied, "move %s to %v", moving.ID, target.Position())
			assert.Equal(t, target.Position(), after[moving.ID])
		}
	}
}

func TestCompactLayout(t *testing.T) {
	entries := []models.Attachment{at("a", 0, 0), at("b", 2, 0), at("c", 1, 3)}
	got := compactLayout(entries, 2)
	assert.Equal(t, []store.PositionUpdate{
		{ID: "b", Column: 1, Row: 0},
		{ID: "c", Column: 0, Row: 1},
	}, got)

	assert.Empty(t, compactLayout([]models.Attachment{at("a", 0, 0), at("b", 1, 0)}, 2))
}
