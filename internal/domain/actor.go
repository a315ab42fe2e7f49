package domain

// Actor identifies the member performing an operation, as reported by the
// chat gateway. RoleIDs is the member's current role set; IsAdmin is the
// administrator override supplied by the platform's permission system.
type Actor struct {
	UserID  string
	Tag     string
	RoleIDs []string
	IsAdmin bool
}
