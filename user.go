package humans

import (
	"time"
)

// UserParams are the construction arguments of a user. All fields are
// optional. A non-empty Password is hashed immediately and never retained.
type UserParams struct {
	Username     string
	EmailAddress string // empty means no email address
	Password     string
	IsActive     bool
	IsAdmin      bool
}

// User is a credential-bearing principal
type User struct {
	ID           uint
	Username     string
	EmailAddress *string
	PasswordHash string
	IsActive     bool
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	crypt       *CryptContext
	membership  *membership
	permissions *grants
}

// GroupMember is the capability of a user whose schema links users to groups
type GroupMember interface {
	Groups() []*Group
	GroupNames() []string
	HasGroup(name string) bool
}

// PermissionHolder is the capability of a user whose schema links users to
// permissions
type PermissionHolder interface {
	Permissions() []*Permission
	PermissionsList() []string
	HasPermission(name string) bool
}

// NewUser builds a user whose password is hashed with crypt. A nil crypt
// uses DefaultCryptContext.
func NewUser(crypt *CryptContext, params UserParams) (*User, error) {
	u := &User{
		Username: params.Username,
		IsActive: params.IsActive,
		IsAdmin:  params.IsAdmin,
		crypt:    crypt,
	}
	if params.EmailAddress != "" {
		email := params.EmailAddress
		u.EmailAddress = &email
	}
	if params.Password != "" {
		if err := u.SetPassword(params.Password); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// Email returns the email address or "" when none is set
func (u *User) Email() string {
	if u.EmailAddress == nil {
		return ""
	}
	return *u.EmailAddress
}

// CryptContext returns the context used to hash this user's password
func (u *User) CryptContext() *CryptContext {
	return u.crypt.orDefault()
}

// SetCryptContext binds the user to a crypt context. Stores call this when
// loading users.
func (u *User) SetCryptContext(crypt *CryptContext) {
	u.crypt = crypt
}

// SetPassword replaces the stored hash using the preferred scheme
func (u *User) SetPassword(password string) error {
	hash, err := u.CryptContext().Hash(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword reports whether password matches the stored hash under any
// accepted scheme. It is false when no hash is stored.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return u.CryptContext().Verify(password, u.PasswordHash)
}

// PasswordNeedsUpdate reports whether the stored hash should be replaced
// with one made by the preferred scheme
func (u *User) PasswordNeedsUpdate() bool {
	return u.PasswordHash != "" && u.CryptContext().NeedsUpdate(u.PasswordHash)
}

// AttachGroups installs the group membership capability with the given
// groups. Stores call this when the schema links users to groups.
func (u *User) AttachGroups(groups []*Group) {
	u.membership = &membership{groups: groups}
}

// AttachPermissions installs the permission capability with the given
// permissions. Stores call this when the schema links users to permissions.
func (u *User) AttachPermissions(permissions []*Permission) {
	u.permissions = &grants{permissions: permissions}
}

// AsGroupMember returns the membership capability, if groups are configured
func (u *User) AsGroupMember() (GroupMember, bool) {
	if u.membership == nil {
		return nil, false
	}
	return u.membership, true
}

// AsPermissionHolder returns the permission capability, if permissions are
// configured
func (u *User) AsPermissionHolder() (PermissionHolder, bool) {
	if u.permissions == nil {
		return nil, false
	}
	return u.permissions, true
}

// AddGroup appends g to the user's groups and, when g's members are
// loaded, the user to g's members. Nothing is written until the user or the
// group is saved.
func (u *User) AddGroup(g *Group) error {
	if u.membership == nil {
		return ErrGroupsNotConfigured
	}
	if !containsGroup(u.membership.groups, g) {
		u.membership.groups = append(u.membership.groups, g)
	}
	if g.Members != nil && !containsUser(g.Members, u) {
		g.Members = append(g.Members, u)
	}
	return nil
}

// AddPermission appends p to the user's permissions and, when p's users are
// loaded, the user to p's users
func (u *User) AddPermission(p *Permission) error {
	if u.permissions == nil {
		return ErrPermissionsNotConfigured
	}
	if !containsPermission(u.permissions.permissions, p) {
		u.permissions.permissions = append(u.permissions.permissions, p)
	}
	if p.Users != nil && !containsUser(p.Users, u) {
		p.Users = append(p.Users, u)
	}
	return nil
}

type membership struct {
	groups []*Group
}

func (m *membership) Groups() []*Group { return m.groups }

func (m *membership) GroupNames() []string {
	names := make([]string, 0, len(m.groups))
	for _, g := range m.groups {
		names = append(names, g.Name)
	}
	return uniqueNames(names)
}

func (m *membership) HasGroup(name string) bool {
	for _, g := range m.groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

type grants struct {
	permissions []*Permission
}

func (g *grants) Permissions() []*Permission { return g.permissions }

func (g *grants) PermissionsList() []string {
	names := make([]string, 0, len(g.permissions))
	for _, p := range g.permissions {
		names = append(names, p.Name)
	}
	return uniqueNames(names)
}

func (g *grants) HasPermission(name string) bool {
	for _, p := range g.permissions {
		if p.Name == name {
			return true
		}
	}
	return false
}

func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func containsUser(users []*User, u *User) bool {
	for _, x := range users {
		if x == u || (u.ID != 0 && x.ID == u.ID) {
			return true
		}
	}
	return false
}

func containsGroup(groups []*Group, g *Group) bool {
	for _, x := range groups {
		if x == g || (g.ID != 0 && x.ID == g.ID) {
			return true
		}
	}
	return false
}

func containsPermission(perms []*Permission, p *Permission) bool {
	for _, x := range perms {
		if x == p || (p.ID != 0 && x.ID == p.ID) {
			return true
		}
	}
	return false
}
