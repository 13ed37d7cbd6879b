package blogservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/sushihentaime/quill/internal/common"
	"github.com/sushihentaime/quill/internal/mapper"
	"github.com/sushihentaime/quill/internal/storage"
	"github.com/sushihentaime/quill/internal/userservice"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 5000
)

var (
	ErrBlogNotFound = common.NotFound("blog not found")
	ErrNotOwner     = common.Forbidden("you are not allowed to modify this blog")
)

type Blog struct {
	ID    int
	Title string
	// Content is stored as sanitized HTML.
	Content      string
	CoverImage   *string
	UserID       int
	User         userservice.Author
	LikeCount    int
	CommentCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m      *BlogModel
	mapper *mapper.Registry
	store  storage.Store
	logger *slog.Logger
}

type BlogResDto struct {
	ID           int                      `json:"id"`
	Title        string                   `json:"title"`
	Content      string                   `json:"content"`
	CoverImage   *string                  `json:"coverImage"`
	User         userservice.AuthorResDto `json:"user"`
	LikeCount    int                      `json:"likeCount"`
	CommentCount int                      `json:"commentCount"`
	CreatedAt    time.Time                `json:"createdAt"`
	UpdatedAt    time.Time                `json:"updatedAt"`
}

type LikeResDto struct {
	Liked bool       `json:"liked"`
	Blog  BlogResDto `json:"blog"`
}

type CreateBlogRequest struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	CoverImage *string `json:"coverImage"`
}

// UpdateBlogRequest replaces title and content. A nil CoverImage keeps the current image,
// an empty one clears it.
type UpdateBlogRequest struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	CoverImage *string `json:"coverImage"`
}
