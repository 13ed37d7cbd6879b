package commentservice

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/sushihentaime/quill/internal/common"
	"github.com/sushihentaime/quill/internal/mapper"
	"github.com/sushihentaime/quill/internal/userservice"
)

func NewCommentService(db *sql.DB, r *mapper.Registry, logger *slog.Logger) *CommentService {
	return &CommentService{m: newCommentModel(db), mapper: r, logger: logger}
}

// RegisterMappings registers the comment response shape. It relies on the author mapping
// registered by userservice.
func RegisterMappings(r *mapper.Registry) {
	mapper.Register[*Comment, CommentResDto](r,
		mapper.WithFunc("User", func(c *Comment) (any, error) {
			return mapper.Map[userservice.Author, userservice.AuthorResDto](r, c.User)
		}),
	)
}

func (s *CommentService) toDto(c *Comment) (*CommentResDto, error) {
	dto, err := mapper.Map[*Comment, CommentResDto](s.mapper, c)
	if err != nil {
		return nil, err
	}

	return &dto, nil
}

func (s *CommentService) toPage(comments []*Comment, total, limit int) (*common.Page[CommentResDto], error) {
	data, err := mapper.MapSlice[*Comment, CommentResDto](s.mapper, comments)
	if err != nil {
		return nil, err
	}

	return common.NewPage(total, limit, data), nil
}

// PostComment adds a comment to a blog. A reply names its parent, which must exist on the
// same blog.
func (s *CommentService) PostComment(ctx context.Context, userID int, req *PostCommentRequest) (*CommentResDto, error) {
	v := common.NewValidator()
	validateText(v, req.Text)
	common.ValidateID(v, req.BlogID, "blogId")
	if req.ParentID != nil {
		common.ValidateID(v, *req.ParentID, "parentId")
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	ok, err := s.m.blogExists(ctx, req.BlogID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBlogNotFound
	}

	if req.ParentID != nil {
		blogID, err := s.m.parentBlogID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if blogID != req.BlogID {
			return nil, ErrParentNotFound
		}
	}

	c := &Comment{Text: req.Text, BlogID: req.BlogID, UserID: userID, ParentID: req.ParentID}
	if err := s.m.insert(ctx, c); err != nil {
		return nil, err
	}

	return s.GetComment(ctx, c.ID)
}

func (s *CommentService) GetComment(ctx context.Context, id int) (*CommentResDto, error) {
	c, err := s.m.getCommentById(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.toDto(c)
}

func (s *CommentService) loadOwned(ctx context.Context, userID, id int) (*Comment, error) {
	c, err := s.m.getCommentById(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.UserID != userID {
		return nil, ErrNotOwner
	}

	return c, nil
}

// UpdateComment replaces the text of a comment owned by userID.
func (s *CommentService) UpdateComment(ctx context.Context, userID, id int, req *UpdateCommentRequest) (*CommentResDto, error) {
	c, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	v := common.NewValidator()
	validateText(v, req.Text)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	c.Text = req.Text
	if err := s.m.updateComment(ctx, c); err != nil {
		return nil, err
	}

	return s.toDto(c)
}

// DeleteComment deletes a comment owned by userID together with its replies.
func (s *CommentService) DeleteComment(ctx context.Context, userID, id int) error {
	c, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.m.deleteComment(ctx, c.ID); err != nil {
		return err
	}

	s.logger.Info("comment deleted",
		slog.Int("id", c.ID),
		slog.Int("blog_id", c.BlogID),
		slog.Int("replies_removed", c.ReplyCount))

	return nil
}

// ToggleLike likes the comment for userID, or removes the like when it already exists,
// and returns the refreshed comment.
func (s *CommentService) ToggleLike(ctx context.Context, userID, id int) (*LikeResDto, error) {
	ok, err := s.m.exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCommentNotFound
	}

	liked, err := s.m.toggleLike(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	comment, err := s.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}

	return &LikeResDto{Liked: liked, Comment: *comment}, nil
}

// ListBlogComments returns the top-level comments of a blog. Replies are listed through
// ListReplies.
func (s *CommentService) ListBlogComments(ctx context.Context, blogID, page, limit int) (*common.Page[CommentResDto], error) {
	ok, err := s.m.blogExists(ctx, blogID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBlogNotFound
	}

	p := common.GetPagination(page, limit)

	comments, total, err := s.m.listBlogComments(ctx, blogID, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}

	return s.toPage(comments, total, p.Limit)
}

// ListReplies returns the direct replies of a comment, never deeper descendants.
func (s *CommentService) ListReplies(ctx context.Context, id, page, limit int) (*common.Page[CommentResDto], error) {
	ok, err := s.m.exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCommentNotFound
	}

	p := common.GetPagination(page, limit)

	comments, total, err := s.m.listReplies(ctx, id, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}

	return s.toPage(comments, total, p.Limit)
}
