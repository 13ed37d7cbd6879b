package commentservice

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/sushihentaime/quill/internal/common"
)

const commentColumns = `
	c.id, c.text, c.blog_id, c.user_id, c.parent_id, c.created_at, c.updated_at,
	u.id, u.name, u.profile_image,
	(SELECT COUNT(*) FROM comments r WHERE r.parent_id = c.id),
	(SELECT COUNT(*) FROM comment_likes l WHERE l.comment_id = c.id)`

func newCommentModel(db *sql.DB) *CommentModel {
	return &CommentModel{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner, extra ...any) (*Comment, error) {
	var c Comment
	var parentID sql.NullInt64
	dest := append(extra, &c.ID, &c.Text, &c.BlogID, &c.UserID, &parentID, &c.CreatedAt, &c.UpdatedAt,
		&c.User.ID, &c.User.Name, &c.User.ProfileImage, &c.ReplyCount, &c.LikeCount)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if parentID.Valid {
		id := int(parentID.Int64)
		c.ParentID = &id
	}

	return &c, nil
}

func (m *CommentModel) insert(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (text, blog_id, user_id, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := m.db.QueryRowContext(ctx, query, c.Text, c.BlogID, c.UserID, c.ParentID).Scan(&c.ID)
	if err != nil {
		switch {
		case common.ForeignKeyViolation(err, "comments_blog_id_fkey"):
			return ErrBlogNotFound
		case common.ForeignKeyViolation(err, "comments_parent_id_fkey"):
			return ErrParentNotFound
		case common.ForeignKeyViolation(err, "comments_user_id_fkey"):
			return common.Unauthorized("the signed in user no longer exists")
		default:
			return errors.WithStack(err)
		}
	}

	return nil
}

func (m *CommentModel) getCommentById(ctx context.Context, id int) (*Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.id = $1`

	c, err := scanComment(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrCommentNotFound
		default:
			return nil, errors.WithStack(err)
		}
	}

	return c, nil
}

func (m *CommentModel) exists(ctx context.Context, id int) (bool, error) {
	var ok bool
	err := m.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM comments WHERE id = $1)`, id).Scan(&ok)
	return ok, errors.WithStack(err)
}

func (m *CommentModel) blogExists(ctx context.Context, id int) (bool, error) {
	var ok bool
	err := m.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM blogs WHERE id = $1)`, id).Scan(&ok)
	return ok, errors.WithStack(err)
}

// parentBlogID returns the blog the comment belongs to.
func (m *CommentModel) parentBlogID(ctx context.Context, id int) (int, error) {
	var blogID int
	err := m.db.QueryRowContext(ctx, `SELECT blog_id FROM comments WHERE id = $1`, id).Scan(&blogID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return 0, ErrParentNotFound
		default:
			return 0, errors.WithStack(err)
		}
	}

	return blogID, nil
}

func (m *CommentModel) updateComment(ctx context.Context, c *Comment) error {
	query := `
		UPDATE comments
		SET text = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING updated_at`

	err := m.db.QueryRowContext(ctx, query, c.Text, c.ID).Scan(&c.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrCommentNotFound
		default:
			return errors.WithStack(err)
		}
	}

	return nil
}

// deleteComment removes the comment; replies and likes go with it through the cascades.
func (m *CommentModel) deleteComment(ctx context.Context, id int) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
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
			return ErrCommentNotFound
		default:
			return errors.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// listBlogComments returns the top-level comments of a blog, oldest first.
func (m *CommentModel) listBlogComments(ctx context.Context, blogID, limit, offset int) ([]*Comment, int, error) {
	query := `
		SELECT COUNT(*) OVER(), ` + commentColumns + `
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.blog_id = $1 AND c.parent_id IS NULL
		ORDER BY c.created_at, c.id
		LIMIT $2 OFFSET $3`

	countQuery := `SELECT COUNT(*) FROM comments WHERE blog_id = $1 AND parent_id IS NULL`

	return m.list(ctx, query, countQuery, blogID, limit, offset)
}

// listReplies returns the direct replies of a comment, oldest first.
func (m *CommentModel) listReplies(ctx context.Context, parentID, limit, offset int) ([]*Comment, int, error) {
	query := `
		SELECT COUNT(*) OVER(), ` + commentColumns + `
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.parent_id = $1
		ORDER BY c.created_at, c.id
		LIMIT $2 OFFSET $3`

	countQuery := `SELECT COUNT(*) FROM comments WHERE parent_id = $1`

	return m.list(ctx, query, countQuery, parentID, limit, offset)
}

func (m *CommentModel) list(ctx context.Context, query, countQuery string, id, limit, offset int) ([]*Comment, int, error) {
	rows, err := m.db.QueryContext(ctx, query, id, limit, offset)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	defer rows.Close()

	total := 0
	comments := []*Comment{}
	for rows.Next() {
		c, err := scanComment(rows, &total)
		if err != nil {
			return nil, 0, errors.WithStack(err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, errors.WithStack(err)
	}

	// past the last page the window count is unavailable
	if len(comments) == 0 && offset > 0 {
		if err := m.db.QueryRowContext(ctx, countQuery, id).Scan(&total); err != nil {
			return nil, 0, errors.WithStack(err)
		}
	}

	return comments, total, nil
}

// toggleLike removes the like of the user on the comment if present, else creates it.
// It reports whether the like exists afterwards.
func (m *CommentModel) toggleLike(ctx context.Context, userID, commentID int) (bool, error) {
	res, err := m.db.ExecContext(ctx, `DELETE FROM comment_likes WHERE user_id = $1 AND comment_id = $2`, userID, commentID)
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
		INSERT INTO comment_likes (user_id, comment_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, comment_id) DO NOTHING`, userID, commentID)
	if err != nil {
		switch {
		case common.ForeignKeyViolation(err, "comment_likes_comment_id_fkey"):
			return false, ErrCommentNotFound
		default:
			return false, errors.WithStack(err)
		}
	}

	return true, nil
}
