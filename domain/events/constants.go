package events

// Event types emitted by the crawler (spec §6).
const (
	TypeBrowsed = "browsed"
	TypeEnd     = "end"
)
