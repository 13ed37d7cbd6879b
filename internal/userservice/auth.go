package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/sushihentaime/quill/internal/common"
	"github.com/sushihentaime/quill/internal/mapper"
)

func NewAuthService(db *sql.DB, types *UserTypes, hasher *PasswordHasher, tokens *TokenManager, mb common.MessageProducer, r *mapper.Registry, clientURL string) *AuthService {
	return &AuthService{
		m:         newUserModel(db),
		types:     types,
		hasher:    hasher,
		tokens:    tokens,
		mb:        mb,
		mapper:    r,
		clientURL: strings.TrimSuffix(clientURL, "/"),
	}
}

// Signup registers a Normal user and signs them in.
func (s *AuthService) Signup(ctx context.Context, req *SignupRequest) (*AuthResDto, error) {
	v := common.NewValidator()
	validateName(v, req.Name)
	validateEmail(v, req.Email)
	validatePassword(v, "password", req.Password)
	validateGender(v, req.Gender)
	validateBio(v, req.Bio)
	birthDate := parseBirthDate(v, req.BirthDate)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	_, err := s.m.getUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, ErrDuplicateEmail
	case !errors.Is(err, common.ErrNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	role, err := s.types.ByName(ctx, RoleNormal)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:      req.Name,
		Email:     req.Email,
		Password:  hash,
		BirthDate: birthDate,
		Gender:    req.Gender,
		Bio:       req.Bio,
		UserType:  role,
	}

	// a concurrent signup with the same email still ends as a conflict through the unique key
	err = s.m.insertUser(ctx, u)
	if err != nil {
		return nil, err
	}

	return s.issue(u)
}

// Signin checks the credentials and returns a fresh access and refresh token pair.
func (s *AuthService) Signin(ctx context.Context, req *SigninRequest) (*AuthResDto, error) {
	v := common.NewValidator()
	v.Check(req.Email != "", "email", "must be provided")
	v.Check(req.Password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u, err := s.m.getUserByEmail(ctx, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return nil, ErrWrongEmail
		default:
			return nil, err
		}
	}

	ok, err := s.hasher.Compare(req.Password, u.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrWrongPassword
	}

	return s.issue(u)
}

func (s *AuthService) issue(u *User) (*AuthResDto, error) {
	access, err := s.tokens.Generate(AccessToken, u.ID, u.UserType.Name, nil)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.Generate(RefreshToken, u.ID, u.UserType.Name, nil)
	if err != nil {
		return nil, err
	}

	dto, err := mapper.Map[*User, UserResDto](s.mapper, u)
	if err != nil {
		return nil, err
	}

	return &AuthResDto{User: dto, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh issues a new access token. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Verify(RefreshToken, refreshToken)
	if err != nil {
		return "", ErrTokenFailed
	}

	return s.tokens.Generate(AccessToken, claims.UserID, claims.Role, nil)
}

// Authenticate verifies an access token and returns its claims.
func (s *AuthService) Authenticate(accessToken string) (*Claims, error) {
	claims, err := s.tokens.Verify(AccessToken, accessToken)
	if err != nil {
		return nil, ErrTokenFailed
	}

	return claims, nil
}

// CookieMaxAge is the lifetime in seconds of the auth cookie, bounded by the refresh token
// since a client may refresh the access token it carries until then.
func (s *AuthService) CookieMaxAge() int {
	return int(s.tokens.TTL(RefreshToken).Seconds())
}

// ForgotPassword issues a reset token and publishes a password reset event carrying the reset link.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	v := common.NewValidator()
	validateEmail(v, email)
	if !v.Valid() {
		return v.ValidationError()
	}

	u, err := s.m.getUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.tokens.Generate(ResetToken, u.ID, u.UserType.Name, map[string]any{"email": u.Email})
	if err != nil {
		return err
	}

	msg, err := json.Marshal(PasswordResetMessage{
		Email: u.Email,
		Name:  u.Name,
		Link:  s.clientURL + "/reset-password/" + token,
	})
	if err != nil {
		return err
	}

	return s.mb.Publish(ctx, msg, common.PasswordResetKey, common.UserExchange)
}

// ResetPassword sets a new password for the user the reset token was issued to.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	v := common.NewValidator()
	validatePassword(v, "password", password)
	if !v.Valid() {
		return v.ValidationError()
	}

	claims, err := s.tokens.Verify(ResetToken, token)
	if err != nil {
		return ErrTokenFailed
	}

	u, err := s.m.getUserByID(ctx, claims.UserID)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	return s.m.updatePassword(ctx, u.ID, hash)
}
