package userservice

import "github.com/sushihentaime/quill/internal/mapper"

// RegisterMappings registers the user response shapes. The password hash has no
// destination field and therefore never leaves the service.
func RegisterMappings(r *mapper.Registry) {
	mapper.Register[*User, UserResDto](r,
		mapper.WithFunc("UserType", func(u *User) (any, error) { return u.UserType.Name, nil }),
	)
	mapper.Register[*User, AuthorResDto](r)
	mapper.Register[Author, AuthorResDto](r)
}
