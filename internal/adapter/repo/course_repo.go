package repo

import (
	"context"

	"covergen/internal/domain"
	"covergen/internal/infra"
	"covergen/internal/sqlinline"
)

// CourseRepositoryPG implements domain.CourseRepository.
type CourseRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewCourseRepository creates a course repository on the marker-checked executor.
func NewCourseRepository(sql infra.SQLExecutor) *CourseRepositoryPG {
	return &CourseRepositoryPG{sql: sql}
}

// GetByID fetches a course by id.
func (r *CourseRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	var c domain.Course
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectCourseByID, id).Scan(&c.ID, &c.Title, &c.Description, &c.CoverImageURL); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// SetCoverImageURL stores the generated cover location on the course.
func (r *CourseRepositoryPG) SetCoverImageURL(ctx context.Context, id, url string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateCourseCover, id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ProfileRepositoryPG implements domain.ProfileRepository.
type ProfileRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewProfileRepository(sql infra.SQLExecutor) *ProfileRepositoryPG {
	return &ProfileRepositoryPG{sql: sql}
}

// RoleForUser returns the profile role of userID.
func (r *ProfileRepositoryPG) RoleForUser(ctx context.Context, userID string) (domain.UserRole, error) {
	var role string
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectProfileRole, userID).Scan(&role); err != nil {
		if infra.IsNoRows(err) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return domain.UserRole(role), nil
}
