//go:build !wasm
// +build !wasm

package gorm

import (
	"github.com/panyam/humans"
)

// Directories holds the entity definitions built from a Config. Groups and
// Permissions are nil when disabled.
type Directories struct {
	Base        *Base
	Users       *UserDef
	Groups      *GroupDef
	Permissions *PermissionDef
}

// Compose runs the builders selected by cfg against base
func Compose(base *Base, cfg *humans.Config) (*Directories, error) {
	if cfg == nil {
		cfg = humans.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	users, err := UserDirectory(base, WithTableName(cfg.UserTable), WithCryptSchemes(cfg.CryptSchemes...))
	if err != nil {
		return nil, err
	}
	dirs := &Directories{Base: base, Users: users}

	if cfg.EnableGroups {
		if dirs.Groups, err = GroupDirectory(base, users, WithTableName(cfg.GroupTable)); err != nil {
			return nil, err
		}
	}
	if cfg.EnablePermissions {
		opts := []Option{WithTableName(cfg.PermissionTable), WithUsers(users)}
		if cfg.GroupPermissions && dirs.Groups != nil {
			opts = append(opts, WithGroups(dirs.Groups))
		}
		if dirs.Permissions, err = PermissionDirectory(base, opts...); err != nil {
			return nil, err
		}
	}
	return dirs, nil
}
