package domain

const DefaultAdminRole = "admin"

// AdminUser is an operator allowed to log in to the admin API. Only the
// password hash is ever stored.
type AdminUser struct {
	ID           string `json:"_id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}

// PublicUser is the part of an AdminUser returned by login.
type PublicUser struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (u AdminUser) Public() PublicUser {
	return PublicUser{Username: u.Username, Role: u.Role}
}
