package domain

// UserRole enumerates platform roles stored on profiles.
type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleInstructor UserRole = "instructor"
	UserRoleStudent    UserRole = "student"
)

// CanManageCovers reports whether the role may trigger cover generation.
func (r UserRole) CanManageCovers() bool {
	return r == UserRoleAdmin || r == UserRoleInstructor
}

// Identity is the resolved caller of a request.
type Identity struct {
	UserID string
	Role   UserRole
	// Service marks the trusted internal credential; it bypasses role checks.
	Service bool
}

// Course is the read model of a catalog course.
type Course struct {
	ID            string
	Title         string
	Description   string
	CoverImageURL string
}

// HasCover reports whether a cover has already been generated or uploaded.
func (c Course) HasCover() bool {
	return c.CoverImageURL != ""
}
