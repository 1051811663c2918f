package user

import (
	"errors"

	"github.com/wavefm/station-backend/internal/auth"
)

var ErrNotFound = errors.New("user not found")

// Profile is the read-only view of a station user that other modules consume.
type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	Role        auth.Role `json:"role"`
}

// IsDJ reports whether the user may be booked for a show.
func (p *Profile) IsDJ() bool {
	return p.Role == auth.RoleDJ
}
