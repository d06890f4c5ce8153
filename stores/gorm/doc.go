//go:build !wasm
// +build !wasm

// Package gorm declares humans entities against a GORM schema base and
// implements their lookups and persistence.
// It supports any database that GORM supports (PostgreSQL, MySQL, SQLite, etc.)
//
// # Database Schema
//
// Builders register tables on a Base; Base.Migrate creates them:
//   - user: User accounts (UserDirectory)
//   - group: Named user groups (GroupDirectory)
//   - user_group: Group membership
//   - permission: Named permissions (PermissionDirectory)
//   - user_permission: Permissions granted to users (WithUsers)
//   - group_permission: Permissions granted to groups (WithGroups)
//
// Table names are configurable; join tables are named from the two tables
// they link. Each join table has a composite primary key on its id pair.
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	base := gormstore.NewBase()
//	users, _ := gormstore.UserDirectory(base, gormstore.WithCryptSchemes("argon2", "bcrypt"))
//	groups, _ := gormstore.GroupDirectory(base, users)
//	perms, _ := gormstore.PermissionDirectory(base, gormstore.WithUsers(users))
//	_ = base.Migrate(ctx, db)
//
// Every query and save takes the host's *gorm.DB, which may be a transaction.
package gorm
