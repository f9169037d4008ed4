package models

// LoginChannel selects how the login OTP is delivered.
type LoginChannel string

const (
	ChannelText     LoginChannel = "text"
	ChannelWhatsApp LoginChannel = "whatsapp"
)

// Hotel is the authenticated partner's property profile.
type Hotel struct {
	ID           string `json:"_id"`
	BH           string `json:"bh"`
	HotelName    string `json:"hotel_name"`
	HotelPhone   string `json:"hotel_phone"`
	HotelOwner   string `json:"hotel_owner"`
	HotelAddress string `json:"hotel_address"`
	IsOnline     bool   `json:"isOnline"`
	IsVerified   bool   `json:"isVerified"`
}

// HasBH reports whether the profile is linked to a BH account.
func (h *Hotel) HasBH() bool {
	return h != nil && h.BH != ""
}

// Provider is the partner account record behind a BH id.
type Provider struct {
	ID            string  `json:"_id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Number        string  `json:"number"`
	Category      string  `json:"category"`
	Wallet        float64 `json:"wallet"`
	IsActive      bool    `json:"isActive"`
	PlanExpiresOn string  `json:"plan_end_date,omitempty"`
}
