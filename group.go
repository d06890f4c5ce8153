package humans

// Group is a named collection of users. A nil Members means the members
// were not loaded, as for groups reached through a user; saving such a group
// leaves its stored members untouched.
type Group struct {
	ID      uint
	Name    string
	Members []*User

	// Permissions is only populated when the schema links groups to
	// permissions
	Permissions []*Permission
}

// NewGroup builds an unsaved group
func NewGroup(name string) *Group {
	return &Group{Name: name}
}

func (g *Group) String() string { return g.Name }

// AddMember appends u to the group's members and, when u carries the
// membership capability, g to u's groups. Members is created when nil, so
// a later save of g stores exactly the members it then holds.
func (g *Group) AddMember(u *User) {
	if !containsUser(g.Members, u) {
		g.Members = append(g.Members, u)
	}
	if u.membership != nil {
		_ = u.AddGroup(g)
	}
}

// HasMember reports whether u is among the loaded members
func (g *Group) HasMember(u *User) bool {
	return containsUser(g.Members, u)
}

// AddPermission appends p to the group's permissions and, when p's groups
// are loaded, g to p's groups
func (g *Group) AddPermission(p *Permission) {
	if !containsPermission(g.Permissions, p) {
		g.Permissions = append(g.Permissions, p)
	}
	if p.Groups != nil && !containsGroup(p.Groups, g) {
		p.Groups = append(p.Groups, g)
	}
}
