package models

// Room is a bookable room listing as returned by the partner backend.
type Room struct {
	ID              string   `json:"_id"`
	RoomType        string   `json:"room_type"`
	AllowedPerson   int      `json:"allowed_person"`
	BookPrice       float64  `json:"book_price"`
	CutPrice        float64  `json:"cut_price,omitempty"`
	IsRoomAvailable bool     `json:"isRoomAvailable"`
	HasTax          bool     `json:"is_tax_applied,omitempty"`
	Amenities       []string `json:"amenities,omitempty"`
}

// Label is a short human readable description used in prompts.
func (r *Room) Label() string {
	if r.RoomType == "" {
		return r.ID
	}
	return r.RoomType
}

// FilterAvailable keeps only rooms flagged available, preserving order.
func FilterAvailable(rooms []Room) []Room {
	available := make([]Room, 0, len(rooms))
	for _, r := range rooms {
		if r.IsRoomAvailable {
			available = append(available, r)
		}
	}
	return available
}
