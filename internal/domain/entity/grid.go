package entity

import "time"

// CellState is the derived visual state of one (period, participant) cell
type CellState int

const (
	CellMissing CellState = iota
	CellDone
	CellBreak
	CellFinalMiss
)

// Symbol returns the emoji used to draw the cell
func (s CellState) Symbol() string {
	switch s {
	case CellDone:
		return "✅"
	case CellBreak:
		return "🟨"
	case CellFinalMiss:
		return "❌"
	default:
		return "⬜"
	}
}

func (s CellState) String() string {
	switch s {
	case CellDone:
		return "done"
	case CellBreak:
		return "break"
	case CellFinalMiss:
		return "final_miss"
	default:
		return "missing"
	}
}

// GridRow is one day (daily trackers) or one tracker week (weekly trackers)
type GridRow struct {
	Label string
	Date  time.Time // day, or first day of the week
	Cells []CellState
}

// Grid is the rendered attendance table of a tracker, columns ordered by join time
type Grid struct {
	TrackerID   string
	Title       string
	Frequency   Frequency
	Columns     []string // participant emojis
	Rows        []GridRow
	GeneratedAt time.Time
}

// Cell returns the state at (row, column) by row label and emoji, for lookups in tests and previews
func (g *Grid) Cell(label, emoji string) (CellState, bool) {
	col := -1
	for i, e := range g.Columns {
		if e == emoji {
			col = i
			break
		}
	}
	if col < 0 {
		return CellMissing, false
	}
	for _, row := range g.Rows {
		if row.Label == label {
			return row.Cells[col], true
		}
	}
	return CellMissing, false
}
