package blogservice

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/sushihentaime/quill/internal/common"
)

const blogColumns = `
	b.id, b.title, b.content, b.cover_image, b.user_id, b.created_at, b.updated_at,
	u.id, u.name, u.profile_image,
	(SELECT COUNT(*) FROM likes l WHERE l.blog_id = b.id),
	(SELECT COUNT(*) FROM comments c WHERE c.blog_id = b.id AND c.parent_id IS NULL)`

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlog(row rowScanner, extra ...any) (*Blog, error) {
	var b Blog
	dest := append(extra, &b.ID, &b.Title, &b.Content, &b.CoverImage, &b.UserID, &b.CreatedAt, &b.UpdatedAt,
		&b.User.ID, &b.User.Name, &b.User.ProfileImage, &b.LikeCount, &b.CommentCount)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	return &b, nil
}

func (m *BlogModel) insert(ctx context.Context, b *Blog) error {
	query := `
		INSERT INTO blogs (title, content, cover_image, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := m.db.QueryRowContext(ctx, query, b.Title, b.Content, b.CoverImage, b.UserID).Scan(&b.ID)
	if err != nil {
		switch {
		case common.ForeignKeyViolation(err, "blogs_user_id_fkey"):
			return common.Unauthorized("the signed in user no longer exists")
		default:
			return errors.WithStack(err)
		}
	}

	return nil
}

// getBlogById loads a blog joined with its author and derived counts.
func (m *BlogModel) getBlogById(ctx context.Context, id int) (*Blog, error) {
	query := `
		SELECT ` + blogColumns + `
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		WHERE b.id = $1`

	b, err := scanBlog(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrBlogNotFound
		default:
			return nil, errors.WithStack(err)
		}
	}

	return b, nil
}

func (m *BlogModel) exists(ctx context.Context, id int) (bool, error) {
	var ok bool
	err := m.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM blogs WHERE id = $1)`, id).Scan(&ok)
	return ok, errors.WithStack(err)
}

func (m *BlogModel) updateBlog(ctx context.Context, b *Blog) error {
	query := `
		UPDATE blogs
		SET title = $1, content = $2, cover_image = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`

	err := m.db.QueryRowContext(ctx, query, b.Title, b.Content, b.CoverImage, b.ID).Scan(&b.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrBlogNotFound
		default:
			return errors.WithStack(err)
		}
	}

	return nil
}

// deleteBlog removes the blog; comments and likes go with it through the cascades.
func (m *BlogModel) deleteBlog(ctx context.Context, id int) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
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
			return ErrBlogNotFound
		default:
			return errors.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// listBlogs returns a page of blogs newest first together with the total number of matches.
// userID 0 and an empty keyword disable the respective filter.
func (m *BlogModel) listBlogs(ctx context.Context, userID int, keyword string, limit, offset int) ([]*Blog, int, error) {
	query := `
		SELECT COUNT(*) OVER(), ` + blogColumns + `
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		WHERE ($1 = 0 OR b.user_id = $1)
		AND ($2 = '' OR b.title ILIKE $3)
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $4 OFFSET $5`

	pattern := common.LikePattern(keyword)

	rows, err := m.db.QueryContext(ctx, query, userID, keyword, pattern, limit, offset)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	defer rows.Close()

	total := 0
	blogs := []*Blog{}
	for rows.Next() {
		b, err := scanBlog(rows, &total)
		if err != nil {
			return nil, 0, errors.WithStack(err)
		}
		blogs = append(blogs, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, errors.WithStack(err)
	}

	// past the last page the window count is unavailable
	if len(blogs) == 0 && offset > 0 {
		query := `
			SELECT COUNT(*) FROM blogs b
			WHERE ($1 = 0 OR b.user_id = $1) AND ($2 = '' OR b.title ILIKE $3)`
		if err := m.db.QueryRowContext(ctx, query, userID, keyword, pattern).Scan(&total); err != nil {
			return nil, 0, errors.WithStack(err)
		}
	}

	return blogs, total, nil
}

// toggleLike removes the like of the user on the blog if present, else creates it.
// It reports whether the like exists afterwards.
func (m *BlogModel) toggleLike(ctx context.Context, userID, blogID int) (bool, error) {
	res, err := m.db.ExecContext(ctx, `DELETE FROM likes WHERE user_id = $1 AND blog_id = $2`, userID, blogID)
	if err != nil {
		return false, errors.WithStack(err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, errors.WithStack(err)
	}
	if rows > 0 {
		return false, nil
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO likes (user_id, blog_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, blog_id) DO NOTHING`, userID, blogID)
	if err != nil {
		switch {
		case common.ForeignKeyViolation(err, "likes_blog_id_fkey"):
			return false, ErrBlogNotFound
		default:
			return false, errors.WithStack(err)
		}
	}

	return true, nil
}
