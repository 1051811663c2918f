package auth

// Role is the station-wide role of an authenticated user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleDJ       Role = "dj"
	RoleListener Role = "listener"
)

// Actor is the authenticated principal on whose behalf a request runs.
type Actor struct {
	ID          string
	DisplayName string
	Role        Role
}

// IsPrivileged reports whether the actor may decide on and edit bookings.
func (a Actor) IsPrivileged() bool {
	return a.Role == RoleAdmin || a.Role == RoleStaff
}

// HasRole reports whether the actor holds any of the given roles.
func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
