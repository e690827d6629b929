package orders

type Status string

// Orders are written once inside a commit and never move afterwards.
const (
	StatusPlaced Status = "placed"
)
