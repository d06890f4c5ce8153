// Package humans adds users, groups and permissions to applications backed by
// an object-relational mapper.
//
// The root package holds the domain types and the password hashing layer.
// Persistence lives in store packages; stores/gorm declares the tables against
// a GORM schema base and runs the lookups.
//
// # Entities
//
// User: A credential-bearing principal with a unique username, an optional
// unique email address, a password hash and active/admin flags.
//
// Group: A named collection of users. Composing groups with users gives every
// user the GroupMember capability (HasGroup).
//
// Permission: A named capability linked to users, groups, or both. Composing
// permissions with users gives every user the PermissionHolder capability
// (PermissionsList, HasPermission). Users of a schema without that link do not
// have the capability at all:
//
//	if holder, ok := user.AsPermissionHolder(); ok && holder.HasPermission("create_user") {
//	    // ...
//	}
//
// # Basic Usage
//
//	base := gormstore.NewBase()
//	users, _ := gormstore.UserDirectory(base)
//	groups, _ := gormstore.GroupDirectory(base, users)
//	perms, _ := gormstore.PermissionDirectory(base, gormstore.WithUsers(users), gormstore.WithGroups(groups))
//	_ = base.Migrate(ctx, db)
//
//	admin, _ := users.New(humans.UserParams{Username: "admin", EmailAddress: "admin@domain.tld", Password: "password"})
//	_ = users.Create(ctx, db, admin)
//	found, _ := users.Query(db).FindByUsernameOrEmail(ctx, "admin@domain.tld")
//
// # Passwords
//
// Passwords are hashed by a CryptContext configured with an ordered list of
// schemes. The first scheme hashes new passwords; every listed scheme is
// accepted when verifying, so hosts can migrate from one scheme to another.
// The default is bcrypt with the default cost. Plaintext is never stored.
package humans
