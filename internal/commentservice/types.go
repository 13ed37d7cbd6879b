package commentservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/sushihentaime/quill/internal/common"
	"github.com/sushihentaime/quill/internal/mapper"
	"github.com/sushihentaime/quill/internal/userservice"
)

const MaxTextLength = 500

var (
	ErrCommentNotFound = common.NotFound("comment not found")
	ErrParentNotFound  = common.NotFound("parent comment not found")
	ErrBlogNotFound    = common.NotFound("blog not found")
	ErrNotOwner        = common.Forbidden("you are not allowed to modify this comment")
)

type Comment struct {
	ID     int
	Text   string
	BlogID int
	UserID int
	// ParentID is nil for a top-level comment.
	ParentID   *int
	User       userservice.Author
	ReplyCount int
	LikeCount  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CommentModel struct {
	db *sql.DB
}

type CommentService struct {
	m      *CommentModel
	mapper *mapper.Registry
	logger *slog.Logger
}

type CommentResDto struct {
	ID         int                      `json:"id"`
	Text       string                   `json:"text"`
	BlogID     int                      `json:"blogId"`
	ParentID   *int                     `json:"parentId"`
	User       userservice.AuthorResDto `json:"user"`
	ReplyCount int                      `json:"replyCount"`
	LikeCount  int                      `json:"likeCount"`
	CreatedAt  time.Time                `json:"createdAt"`
	UpdatedAt  time.Time                `json:"updatedAt"`
}

type LikeResDto struct {
	Liked   bool          `json:"liked"`
	Comment CommentResDto `json:"comment"`
}

type PostCommentRequest struct {
	Text     string `json:"text"`
	BlogID   int    `json:"blogId"`
	ParentID *int   `json:"parentId"`
}

type UpdateCommentRequest struct {
	Text string `json:"text"`
}
