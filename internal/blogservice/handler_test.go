package blogservice

import (
	"context"
	"crypto/rand"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/quill/internal/common"
	"github.com/sushihentaime/quill/internal/mapper"
	"github.com/sushihentaime/quill/internal/storage"
	"github.com/sushihentaime/quill/internal/userservice"
)

// setupTestUser is a helper function to create a test user in the database.
func setupTestUser(t *testing.T, db *sql.DB, email string) int {
	randomBytes := make([]byte, 16)
	_, err := rand.Read(randomBytes)
	require.NoError(t, err)

	query := `
		INSERT INTO users (name, email, password, user_type_id)
		VALUES ($1, $2, $3, (SELECT id FROM user_types WHERE name = 'Normal'))
		RETURNING id`

	var id int
	err = db.QueryRow(query, "testuser", email, randomBytes).Scan(&id)
	require.NoError(t, err)

	return id
}

func setupTestEnvironment(t *testing.T) (*BlogService, *sql.DB, *storage.MockStore, func() error) {
	db := common.TestDB("file://../../migrations", t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := mapper.NewRegistry()
	userservice.RegisterMappings(r)
	RegisterMappings(r)

	store := new(storage.MockStore)

	cleanup := func() error {
		_, err := db.Exec("DELETE FROM users")
		return err
	}

	return NewBlogService(db, r, store, logger), db, store, cleanup
}

func testBlog() *CreateBlogRequest {
	return &CreateBlogRequest{Title: "Test Blog", Content: "<p>This is a test blog.</p>"}
}

func TestCreateBlog(t *testing.T) {
	s, db, _, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() { assert.NoError(t, cleanup()) })
	userID := setupTestUser(t, db, "testuser@example.com")

	testCases := []struct {
		name        string
		blog        *CreateBlogRequest
		expectedErr error
	}{
		{name: "valid blog", blog: testBlog()},
		{name: "empty title", blog: &CreateBlogRequest{Content: "<p>text</p>"}, expectedErr: common.ErrBadRequest},
		{name: "empty content", blog: &CreateBlogRequest{Title: "Test Blog"}, expectedErr: common.ErrBadRequest},
		{name: "script only content", blog: &CreateBlogRequest{Title: "Test Blog", Content: "<script>alert(1)</script>"}, expectedErr: common.ErrBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			blog, err := s.CreateBlog(context.Background(), userID, tc.blog)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, blog)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.blog.Title, blog.Title)
			assert.Equal(t, userID, blog.User.ID)
			assert.Equal(t, "testuser", blog.User.Name)
			assert.Zero(t, blog.LikeCount)
			assert.Zero(t, blog.CommentCount)
		})
	}
}

func TestGetBlog(t *testing.T) {
	s, db, _, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() { assert.NoError(t, cleanup()) })
	userID := setupTestUser(t, db, "testuser@example.com")

	blog, err := s.CreateBlog(context.Background(), userID, testBlog())
	require.NoError(t, err)

	got, err := s.GetBlog(context.Background(), blog.ID)
	require.NoError(t, err)
	assert.Equal(t, blog.ID, got.ID)

	_, err = s.GetBlog(context.Background(), blog.ID+1000)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateBlog(t *testing.T) {
	s, db, store, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() { assert.NoError(t, cleanup()) })
	ctx := context.Background()

	owner := setupTestUser(t, db, "owner@example.com")
	other := setupTestUser(t, db, "other@example.com")

	oldCover := "https://cdn.example.com/quill/old"
	newCover := "https://cdn.example.com/quill/new"
	req := testBlog()
	req.CoverImage = &oldCover
	blog, err := s.CreateBlog(ctx, owner, req)
	require.NoError(t, err)

	store.On("Delete", mock.Anything, oldCover).Return(true, nil).Once()

	testCases := []struct {
		name        string
		userID      int
		id          int
		req         *UpdateBlogRequest
		expectedErr error
	}{
		{name: "missing blog", userID: other, id: blog.ID + 1000, req: &UpdateBlogRequest{}, expectedErr: common.ErrNotFound},
		{name: "not owner", userID: other, id: blog.ID, req: &UpdateBlogRequest{Title: "Hijacked", Content: "<p>x</p>"}, expectedErr: common.ErrForbidden},
		{name: "not owner invalid payload", userID: other, id: blog.ID, req: &UpdateBlogRequest{}, expectedErr: common.ErrForbidden},
		{name: "invalid payload", userID: owner, id: blog.ID, req: &UpdateBlogRequest{Title: ""}, expectedErr: common.ErrBadRequest},
		{name: "valid", userID: owner, id: blog.ID, req: &UpdateBlogRequest{Title: "Updated Blog", Content: "<p>updated</p>", CoverImage: &newCover}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.UpdateBlog(ctx, tc.userID, tc.id, tc.req)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Updated Blog", got.Title)
			assert.Equal(t, newCover, *got.CoverImage)
		})
	}

	store.AssertExpectations(t)
}

func TestDeleteBlog(t *testing.T) {
	s, db, store, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() { assert.NoError(t, cleanup()) })
	ctx := context.Background()

	owner := setupTestUser(t, db, "owner@example.com")
	other := setupTestUser(t, db, "other@example.com")

	cover := "https://cdn.example.com/quill/cover"
	req := testBlog()
	req.CoverImage = &cover
	blog, err := s.CreateBlog(ctx, owner, req)
	require.NoError(t, err)

	store.On("Delete", mock.Anything, cover).Return(true, nil).Once()

	assert.ErrorIs(t, s.DeleteBlog(ctx, other, blog.ID), common.ErrForbidden)
	require.NoError(t, s.DeleteBlog(ctx, owner, blog.ID))
	assert.ErrorIs(t, s.DeleteBlog(ctx, owner, blog.ID), common.ErrNotFound)

	store.AssertExpectations(t)
}

func TestToggleLike(t *testing.T) {
	s, db, _, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() { assert.NoError(t, cleanup()) })
	ctx := context.Background()

	userID := setupTestUser(t, db, "testuser@example.com")
	blog, err := s.CreateBlog(ctx, userID, testBlog())
	require.NoError(t, err)

	want := []struct {
		liked bool
		count int
	}{{true, 1}, {false, 0}, {true, 1}}

	for _, w := range want {
		res, err := s.ToggleLike(ctx, userID, blog.ID)
		require.NoError(t, err)
		assert.Equal(t, w.liked, res.Liked)
		assert.Equal(t, w.count, res.Blog.LikeCount)
	}

	_, err = s.ToggleLike(ctx, userID, blog.ID+1000)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListAndSearchBlogs(t *testing.T) {
	s, db, _, cleanup := setupTestEnvironment(t)
	t.Cleanup(func() { assert.NoError(t, cleanup()) })
	ctx := context.Background()

	a := setupTestUser(t, db, "a@example.com")
	b := setupTestUser(t, db, "b@example.com")

	for _, title := range []string{"Go generics", "Go channels", "Rust traits"} {
		_, err := s.CreateBlog(ctx, a, &CreateBlogRequest{Title: title, Content: "<p>body</p>"})
		require.NoError(t, err)
	}
	_, err := s.CreateBlog(ctx, b, &CreateBlogRequest{Title: "Go modules", Content: "<p>body</p>"})
	require.NoError(t, err)

	all, err := s.ListBlogs(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, all.PageCount)
	assert.Len(t, all.Data, 3)
	assert.Equal(t, "Go modules", all.Data[0].Title)

	byUser, err := s.ListBlogsByUser(ctx, b, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, byUser.PageCount)
	assert.Len(t, byUser.Data, 1)

	found, err := s.SearchBlogs(ctx, "go", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, found.PageCount)
	assert.Len(t, found.Data, 1)

	beyond, err := s.SearchBlogs(ctx, "go", 5, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, beyond.PageCount)
	assert.Empty(t, beyond.Data)
}
