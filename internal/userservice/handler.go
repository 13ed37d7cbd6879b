package userservice

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/sushihentaime/quill/internal/common"
	"github.com/sushihentaime/quill/internal/mapper"
	"github.com/sushihentaime/quill/internal/storage"
)

func NewUserService(db *sql.DB, hasher *PasswordHasher, r *mapper.Registry, store storage.Store, logger *slog.Logger) *UserService {
	return &UserService{
		m:      newUserModel(db),
		hasher: hasher,
		mapper: r,
		store:  store,
		logger: logger,
	}
}

// loadOwned loads the user and checks that the acting user is that user.
// A missing user is reported before any ownership check.
func (s *UserService) loadOwned(ctx context.Context, actorID, id int) (*User, error) {
	u, err := s.m.getUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if u.ID != actorID {
		return nil, ErrNotOwner
	}

	return u, nil
}

func (s *UserService) verifyPassword(u *User, password string) error {
	ok, err := s.hasher.Compare(password, u.Password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBadPassword
	}

	return nil
}

func (s *UserService) GetUser(ctx context.Context, id int) (*UserResDto, error) {
	u, err := s.m.getUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dto, err := mapper.Map[*User, UserResDto](s.mapper, u)
	if err != nil {
		return nil, err
	}

	return &dto, nil
}

func (s *UserService) ListUsers(ctx context.Context, page, limit int) (*common.Page[UserResDto], error) {
	return s.SearchUsers(ctx, "", page, limit)
}

// SearchUsers returns the users whose name contains keyword.
func (s *UserService) SearchUsers(ctx context.Context, keyword string, page, limit int) (*common.Page[UserResDto], error) {
	p := common.GetPagination(page, limit)

	users, total, err := s.m.listUsers(ctx, keyword, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}

	data, err := mapper.MapSlice[*User, UserResDto](s.mapper, users)
	if err != nil {
		return nil, err
	}

	return common.NewPage(total, p.Limit, data), nil
}

// UpdateProfile changes the profile fields after re-verifying the current password.
func (s *UserService) UpdateProfile(ctx context.Context, actorID, id int, req *UpdateProfileRequest) (*UserResDto, error) {
	u, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	v := common.NewValidator()
	v.Check(req.Password != "", "password", "must be provided")
	validateName(v, req.Name)
	validateEmail(v, req.Email)
	validateGender(v, req.Gender)
	validateBio(v, req.Bio)
	birthDate := parseBirthDate(v, req.BirthDate)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if err := s.verifyPassword(u, req.Password); err != nil {
		return nil, err
	}

	if req.Email != u.Email {
		other, err := s.m.getUserByEmail(ctx, req.Email)
		switch {
		case err == nil && other.ID != u.ID:
			return nil, ErrDuplicateEmail
		case err != nil && !errors.Is(err, common.ErrNotFound):
			return nil, err
		}
	}

	u.Name = req.Name
	u.Email = req.Email
	u.BirthDate = birthDate
	u.Gender = req.Gender
	u.Bio = req.Bio

	if err := s.m.updateUser(ctx, u); err != nil {
		return nil, err
	}

	dto, err := mapper.Map[*User, UserResDto](s.mapper, u)
	if err != nil {
		return nil, err
	}

	return &dto, nil
}

// UpdatePassword replaces the password after re-verifying the old one. Setting the same
// password again is refused.
func (s *UserService) UpdatePassword(ctx context.Context, actorID, id int, oldPassword, newPassword string) error {
	u, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return err
	}

	v := common.NewValidator()
	v.Check(oldPassword != "", "oldPassword", "must be provided")
	validatePassword(v, "newPassword", newPassword)
	if !v.Valid() {
		return v.ValidationError()
	}

	if err := s.verifyPassword(u, oldPassword); err != nil {
		return err
	}

	if oldPassword == newPassword {
		return ErrSamePassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	return s.m.updatePassword(ctx, u.ID, hash)
}

// UpdateProfileImage sets or, with a nil url, clears the profile image.
func (s *UserService) UpdateProfileImage(ctx context.Context, actorID, id int, url *string) (*UserResDto, error) {
	return s.updateImage(ctx, actorID, id, profileImageColumn, url)
}

// UpdateCoverImage sets or, with a nil url, clears the cover image.
func (s *UserService) UpdateCoverImage(ctx context.Context, actorID, id int, url *string) (*UserResDto, error) {
	return s.updateImage(ctx, actorID, id, coverImageColumn, url)
}

func (s *UserService) updateImage(ctx context.Context, actorID, id int, column imageColumn, url *string) (*UserResDto, error) {
	u, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if url != nil && *url == "" {
		url = nil
	}

	previous := &u.ProfileImage
	if column == coverImageColumn {
		previous = &u.CoverImage
	}
	old := *previous

	if err := s.m.updateImage(ctx, u.ID, column, url); err != nil {
		return nil, err
	}
	*previous = url

	if old != nil && (url == nil || *old != *url) {
		storage.Release(ctx, s.store, s.logger, old)
	}

	dto, err := mapper.Map[*User, UserResDto](s.mapper, u)
	if err != nil {
		return nil, err
	}

	return &dto, nil
}

// DeleteUser removes the account after re-verifying the password. Owned blogs, comments
// and likes are removed by the database cascades; the user's images are released.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id int, password string) error {
	u, err := s.loadOwned(ctx, actorID, id)
	if err != nil {
		return err
	}

	v := common.NewValidator()
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return v.ValidationError()
	}

	if err := s.verifyPassword(u, password); err != nil {
		return err
	}

	images, err := s.m.blogCoverImages(ctx, u.ID)
	if err != nil {
		return err
	}

	if err := s.m.deleteUser(ctx, u.ID); err != nil {
		return err
	}

	storage.Release(ctx, s.store, s.logger, u.ProfileImage)
	storage.Release(ctx, s.store, s.logger, u.CoverImage)
	for i := range images {
		storage.Release(ctx, s.store, s.logger, &images[i])
	}

	return nil
}
