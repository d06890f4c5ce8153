package humans

// Permission is a named capability that can be granted to users and groups
type Permission struct {
	ID     uint
	Name   string
	Users  []*User
	Groups []*Group
}

// NewPermission builds an unsaved permission
func NewPermission(name string) *Permission {
	return &Permission{Name: name}
}

func (p *Permission) String() string { return p.Name }

// GrantUser appends u to the permission's users, creating Users when nil,
// and, when u carries the permission capability, p to u's permissions
func (p *Permission) GrantUser(u *User) {
	if !containsUser(p.Users, u) {
		p.Users = append(p.Users, u)
	}
	if u.permissions != nil {
		_ = u.AddPermission(p)
	}
}

// GrantGroup appends g to the permission's groups, creating Groups when
// nil, and p to g's permissions
func (p *Permission) GrantGroup(g *Group) {
	if !containsGroup(p.Groups, g) {
		p.Groups = append(p.Groups, g)
	}
	g.AddPermission(p)
}
