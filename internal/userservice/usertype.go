package userservice

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/sushihentaime/quill/internal/common"
)

// UserTypes resolves role names to their ids. The table is seeded once at startup and
// only read afterwards, so lookups are served from the cache.
type UserTypes struct {
	db *sql.DB
	c  *common.Cache
}

func NewUserTypes(db *sql.DB, c *common.Cache) *UserTypes {
	return &UserTypes{db: db, c: c}
}

// Seed makes sure the fixed roles exist and warms the cache.
func (t *UserTypes) Seed(ctx context.Context) error {
	for _, name := range []string{RoleAdministrator, RoleNormal} {
		_, err := t.db.ExecContext(ctx, `INSERT INTO user_types (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	rows, err := t.db.QueryContext(ctx, `SELECT id, name FROM user_types`)
	if err != nil {
		return errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		var ut UserType
		if err := rows.Scan(&ut.ID, &ut.Name); err != nil {
			return errors.WithStack(err)
		}
		t.c.Set(common.CacheKeyUserTypeByName(ut.Name), ut)
	}

	return errors.WithStack(rows.Err())
}

func (t *UserTypes) ByName(ctx context.Context, name string) (UserType, error) {
	if v, ok := t.c.Get(common.CacheKeyUserTypeByName(name)); ok {
		return v.(UserType), nil
	}

	var ut UserType
	err := t.db.QueryRowContext(ctx, `SELECT id, name FROM user_types WHERE name = $1`, name).Scan(&ut.ID, &ut.Name)
	if err != nil {
		return UserType{}, errors.Wrapf(err, "user type %q", name)
	}

	t.c.Set(common.CacheKeyUserTypeByName(ut.Name), ut)

	return ut, nil
}
