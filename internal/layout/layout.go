package layout

// Nominal room footprint and aisle width in meters. Rooms face the
// corridor with their width along Z; depth extends away from it on X.
const (
	RoomWidth     = 4.0
	RoomDepth     = 6.0
	RoomGap       = 0.5
	CorridorWidth = 4.0
)

// Sides of the central corridor.
const (
	SideLeft  = "left"
	SideRight = "right"
)

// Position places one room in the warehouse scene. X spans the corridor
// (negative = left row), Z runs along it, Y is ground level.
type Position struct {
	RoomID string  `json:"room_id"`
	Side   string  `json:"side"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
}

// Compute lays the rooms out in two rows flanking the corridor: the
// first half of the list fills the left row, the rest the right row,
// spaced along the corridor by a fixed pitch. Pure function of the
// ordered room list; same input, same scene.
func Compute(roomIDs []string) []Position {
	n := len(roomIDs)
	if n == 0 {
		return nil
	}

	leftCount := (n + 1) / 2
	pitch := RoomWidth + RoomGap
	offsetX := CorridorWidth/2 + RoomDepth/2

	positions := make([]Position, 0, n)
	for i, roomID := range roomIDs {
		p := Position{RoomID: roomID}
		if i < leftCount {
			p.Side = SideLeft
			p.X = -offsetX
			p.Z = float64(i) * pitch
		} else {
			p.Side = SideRight
			p.X = offsetX
			p.Z = float64(i-leftCount) * pitch
		}
		positions = append(positions, p)
	}
	return positions
}
