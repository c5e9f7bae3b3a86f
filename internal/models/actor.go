package models

// Role - роль пользователя в организации.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleViewer  Role = "VIEWER"
)

// Actor - аутентифицированный пользователь, от имени которого выполняется операция.
type Actor struct {
	UserID         string
	OrganizationID string
	Role           Role
}

// Valid проверяет, что роль известна и идентификаторы заданы.
func (a Actor) Valid() bool {
	if a.UserID == "" || a.OrganizationID == "" {
		return false
	}
	switch a.Role {
	case RoleAdmin, RoleManager, RoleViewer:
		return true
	}
	return false
}

// CanWrite сообщает, может ли пользователь изменять данные своей организации.
func (a Actor) CanWrite() bool {
	return a.Role == RoleAdmin || a.Role == RoleManager
}

// IsAdmin сообщает, является ли пользователь администратором организации.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
