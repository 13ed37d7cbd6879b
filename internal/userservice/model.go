package userservice

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sushihentaime/quill/internal/common"
)

const userColumns = `
	u.id, u.name, u.email, u.password, u.birth_date, u.gender, u.bio,
	u.profile_image, u.cover_image, u.created_at, u.updated_at, t.id, t.name`

func newUserModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.BirthDate, &u.Gender, &u.Bio,
		&u.ProfileImage, &u.CoverImage, &u.CreatedAt, &u.UpdatedAt, &u.UserType.ID, &u.UserType.Name)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (m *DBModel) insertUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (name, email, password, birth_date, gender, bio, user_type_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	args := []any{u.Name, u.Email, u.Password, u.BirthDate, u.Gender, u.Bio, u.UserType.ID}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case common.UniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		default:
			return errors.WithStack(err)
		}
	}

	return nil
}

func (m *DBModel) getUser(ctx context.Context, where string, arg any) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		JOIN user_types t ON u.user_type_id = t.id
		WHERE ` + where

	u, err := scanUser(m.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrUserNotFound
		default:
			return nil, errors.WithStack(err)
		}
	}

	return u, nil
}

func (m *DBModel) getUserByID(ctx context.Context, id int) (*User, error) {
	return m.getUser(ctx, "u.id = $1", id)
}

func (m *DBModel) getUserByEmail(ctx context.Context, email string) (*User, error) {
	return m.getUser(ctx, "u.email = $1", email)
}

func (m *DBModel) updateUser(ctx context.Context, u *User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, birth_date = $3, gender = $4, bio = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at`

	err := m.db.QueryRowContext(ctx, query, u.Name, u.Email, u.BirthDate, u.Gender, u.Bio, u.ID).Scan(&u.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrUserNotFound
		case common.UniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		default:
			return errors.WithStack(err)
		}
	}

	return nil
}

func (m *DBModel) updatePassword(ctx context.Context, id int, hash []byte) error {
	query := `
		UPDATE users
		SET password = $1, updated_at = NOW()
		WHERE id = $2`

	return m.execOne(ctx, query, hash, id)
}

type imageColumn string

const (
	profileImageColumn imageColumn = "profile_image"
	coverImageColumn   imageColumn = "cover_image"
)

func (m *DBModel) updateImage(ctx context.Context, id int, column imageColumn, url *string) error {
	query := fmt.Sprintf(`
		UPDATE users
		SET %s = $1, updated_at = NOW()
		WHERE id = $2`, column)

	return m.execOne(ctx, query, url, id)
}

// deleteUser removes the user; blogs, comments and likes go with it through the cascades.
func (m *DBModel) deleteUser(ctx context.Context, id int) error {
	return m.execOne(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (m *DBModel) execOne(ctx context.Context, query string, args ...any) error {
	res, err := m.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.WithStack(err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return ErrUserNotFound
		default:
			return errors.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// listUsers returns a page of users whose name contains keyword, and the total number of matches.
// An empty keyword matches every user.
func (m *DBModel) listUsers(ctx context.Context, keyword string, limit, offset int) ([]*User, int, error) {
	query := `
		SELECT COUNT(*) OVER(), ` + userColumns + `
		FROM users u
		JOIN user_types t ON u.user_type_id = t.id
		WHERE ($1 = '' OR u.name ILIKE $2)
		ORDER BY u.created_at DESC, u.id DESC
		LIMIT $3 OFFSET $4`

	rows, err := m.db.QueryContext(ctx, query, keyword, common.LikePattern(keyword), limit, offset)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	defer rows.Close()

	total := 0
	users := []*User{}
	for rows.Next() {
		var u User
		err := rows.Scan(&total, &u.ID, &u.Name, &u.Email, &u.Password, &u.BirthDate, &u.Gender, &u.Bio,
			&u.ProfileImage, &u.CoverImage, &u.CreatedAt, &u.UpdatedAt, &u.UserType.ID, &u.UserType.Name)
		if err != nil {
			return nil, 0, errors.WithStack(err)
		}
		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, errors.WithStack(err)
	}

	if len(users) == 0 && offset > 0 {
		if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u WHERE ($1 = '' OR u.name ILIKE $2)`, keyword, common.LikePattern(keyword)).Scan(&total); err != nil {
			return nil, 0, errors.WithStack(err)
		}
	}

	return users, total, nil
}

// blogCoverImages returns the cover images of every blog owned by the user, so they can be
// released once the cascade has removed the blogs.
func (m *DBModel) blogCoverImages(ctx context.Context, userID int) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT cover_image FROM blogs WHERE user_id = $1 AND cover_image IS NOT NULL`, userID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	var images []string
	for rows.Next() {
		var image string
		if err := rows.Scan(&image); err != nil {
			return nil, errors.WithStack(err)
		}
		images = append(images, image)
	}

	return images, errors.WithStack(rows.Err())
}
