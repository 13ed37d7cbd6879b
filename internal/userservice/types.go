package userservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/sushihentaime/quill/internal/common"
	"github.com/sushihentaime/quill/internal/mapper"
	"github.com/sushihentaime/quill/internal/storage"
)

type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
	ResetToken   TokenKind = "reset"

	DefaultAccessTokenTTL  time.Duration = 5 * time.Minute
	DefaultRefreshTokenTTL time.Duration = 15 * 24 * time.Hour
	DefaultResetTokenTTL   time.Duration = 24 * time.Hour

	RoleAdministrator = "Administrator"
	RoleNormal        = "Normal"
)

var (
	ErrUserNotFound   = common.NotFound("user not found")
	ErrDuplicateEmail = common.Conflict("a user with this email address already exists")
	ErrWrongEmail     = common.Unauthorized("Wrong email address")
	ErrWrongPassword  = common.Unauthorized("Wrong password")
	ErrTokenFailed    = common.Unauthorized("Token failed")
	ErrNotOwner       = common.Forbidden("you are not allowed to modify this user")
	ErrSamePassword   = common.Forbidden("the new password must differ from the old password")
	ErrBadPassword    = common.Forbidden("the provided password is incorrect")
)

type DBModel struct {
	db *sql.DB
}

type UserService struct {
	m      *DBModel
	hasher *PasswordHasher
	mapper *mapper.Registry
	store  storage.Store
	logger *slog.Logger
}

type AuthService struct {
	m         *DBModel
	types     *UserTypes
	hasher    *PasswordHasher
	tokens    *TokenManager
	mb        common.MessageProducer
	mapper    *mapper.Registry
	clientURL string
}

type UserType struct {
	ID   int
	Name string
}

type User struct {
	ID           int
	Name         string
	Email        string
	Password     []byte
	BirthDate    *time.Time
	Gender       *string
	Bio          *string
	ProfileImage *string
	CoverImage   *string
	UserType     UserType
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Author is the slice of a user that is embedded in blogs and comments.
type Author struct {
	ID           int
	Name         string
	ProfileImage *string
}

type UserResDto struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	BirthDate    *time.Time `json:"birthDate"`
	Gender       *string    `json:"gender"`
	Bio          *string    `json:"bio"`
	ProfileImage *string    `json:"profileImage"`
	CoverImage   *string    `json:"coverImage"`
	UserType     string     `json:"userType"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type AuthorResDto struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	ProfileImage *string `json:"profileImage"`
}

type AuthResDto struct {
	User         UserResDto `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

type SignupRequest struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	BirthDate *string `json:"birthDate"`
	Gender    *string `json:"gender"`
	Bio       *string `json:"bio"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Password  string  `json:"password"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	BirthDate *string `json:"birthDate"`
	Gender    *string `json:"gender"`
	Bio       *string `json:"bio"`
}

type PasswordResetMessage struct {
	Email string
	Name  string
	Link  string
}
