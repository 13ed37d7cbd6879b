package blogservice

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/sushihentaime/quill/internal/common"
	"github.com/sushihentaime/quill/internal/mapper"
	"github.com/sushihentaime/quill/internal/storage"
	"github.com/sushihentaime/quill/internal/userservice"
)

func NewBlogService(db *sql.DB, r *mapper.Registry, store storage.Store, logger *slog.Logger) *BlogService {
	return &BlogService{m: newBlogModel(db), mapper: r, store: store, logger: logger}
}

// RegisterMappings registers the blog response shape. It relies on the author mapping
// registered by userservice.
func RegisterMappings(r *mapper.Registry) {
	mapper.Register[*Blog, BlogResDto](r,
		mapper.WithFunc("User", func(b *Blog) (any, error) {
			return mapper.Map[userservice.Author, userservice.AuthorResDto](r, b.User)
		}),
	)
}

func (s *BlogService) toDto(b *Blog) (*BlogResDto, error) {
	dto, err := mapper.Map[*Blog, BlogResDto](s.mapper, b)
	if err != nil {
		return nil, err
	}

	return &dto, nil
}

func (s *BlogService) toPage(blogs []*Blog, total, limit int) (*common.Page[BlogResDto], error) {
	data, err := mapper.MapSlice[*Blog, BlogResDto](s.mapper, blogs)
	if err != nil {
		return nil, err
	}

	return common.NewPage(total, limit, data), nil
}

// CreateBlog creates a blog owned by userID.
func (s *BlogService) CreateBlog(ctx context.Context, userID int, req *CreateBlogRequest) (*BlogResDto, error) {
	content := sanitizeHTML(req.Content)

	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	b := &Blog{Title: req.Title, Content: content, CoverImage: emptyToNil(req.CoverImage), UserID: userID}
	if err := s.m.insert(ctx, b); err != nil {
		return nil, err
	}

	return s.GetBlog(ctx, b.ID)
}

// GetBlog returns a blog by its ID.
func (s *BlogService) GetBlog(ctx context.Context, id int) (*BlogResDto, error) {
	b, err := s.m.getBlogById(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.toDto(b)
}

// ListBlogs returns every blog, newest first.
func (s *BlogService) ListBlogs(ctx context.Context, page, limit int) (*common.Page[BlogResDto], error) {
	p := common.GetPagination(page, limit)

	blogs, total, err := s.m.listBlogs(ctx, 0, "", p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}

	return s.toPage(blogs, total, p.Limit)
}

// ListBlogsByUser returns the blogs written by one user.
func (s *BlogService) ListBlogsByUser(ctx context.Context, userID, page, limit int) (*common.Page[BlogResDto], error) {
	v := common.NewValidator()
	common.ValidateID(v, userID, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	p := common.GetPagination(page, limit)

	blogs, total, err := s.m.listBlogs(ctx, userID, "", p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}

	return s.toPage(blogs, total, p.Limit)
}

// SearchBlogs returns the blogs whose title contains keyword.
func (s *BlogService) SearchBlogs(ctx context.Context, keyword string, page, limit int) (*common.Page[BlogResDto], error) {
	p := common.GetPagination(page, limit)

	blogs, total, err := s.m.listBlogs(ctx, 0, keyword, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}

	return s.toPage(blogs, total, p.Limit)
}

// loadOwned loads the blog and checks that userID owns it. A missing blog is reported
// before any ownership check.
func (s *BlogService) loadOwned(ctx context.Context, userID, id int) (*Blog, error) {
	b, err := s.m.getBlogById(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.UserID != userID {
		return nil, ErrNotOwner
	}

	return b, nil
}

// UpdateBlog replaces title and content, and the cover image when one is given.
// Only the owner may update a blog; a replaced cover image is released.
func (s *BlogService) UpdateBlog(ctx context.Context, userID, id int, req *UpdateBlogRequest) (*BlogResDto, error) {
	b, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	content := sanitizeHTML(req.Content)

	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	old := b.CoverImage
	b.Title = req.Title
	b.Content = content
	if req.CoverImage != nil {
		b.CoverImage = emptyToNil(req.CoverImage)
	}

	if err := s.m.updateBlog(ctx, b); err != nil {
		return nil, err
	}

	if old != nil && (b.CoverImage == nil || *old != *b.CoverImage) {
		storage.Release(ctx, s.store, s.logger, old)
	}

	return s.toDto(b)
}

// DeleteBlog deletes a blog. Only the owner may delete it; its cover image is released.
func (s *BlogService) DeleteBlog(ctx context.Context, userID, id int) error {
	b, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.m.deleteBlog(ctx, b.ID); err != nil {
		return err
	}

	storage.Release(ctx, s.store, s.logger, b.CoverImage)

	return nil
}

// ToggleLike likes the blog for userID, or removes the like when it already exists,
// and returns the refreshed blog.
func (s *BlogService) ToggleLike(ctx context.Context, userID, id int) (*LikeResDto, error) {
	ok, err := s.m.exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBlogNotFound
	}

	liked, err := s.m.toggleLike(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	blog, err := s.GetBlog(ctx, id)
	if err != nil {
		return nil, err
	}

	return &LikeResDto{Liked: liked, Blog: *blog}, nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
