package humans_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/panyam/humans"
)

func TestNewUser(t *testing.T) {
	u, err := humans.NewUser(nil, humans.UserParams{
		Username:     "admin",
		EmailAddress: "admin@domain.tld",
		Password:     "password",
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("NewUser failed: %v", err)
	}
	if u.Email() != "admin@domain.tld" {
		t.Errorf("unexpected email %q", u.Email())
	}
	if u.PasswordHash == "" || u.PasswordHash == "password" {
		t.Errorf("password not hashed: %q", u.PasswordHash)
	}
	if !u.IsActive || u.IsAdmin {
		t.Errorf("unexpected flags active=%v admin=%v", u.IsActive, u.IsAdmin)
	}
	if !u.CheckPassword("password") {
		t.Error("expected password to verify")
	}
	if u.CheckPassword("invalid") {
		t.Error("expected wrong password to be rejected")
	}
}

func TestNewUser_NoPassword(t *testing.T) {
	u, err := humans.NewUser(nil, humans.UserParams{Username: "nopass"})
	if err != nil {
		t.Fatalf("NewUser failed: %v", err)
	}
	if u.PasswordHash != "" {
		t.Errorf("expected no hash, got %q", u.PasswordHash)
	}
	if u.EmailAddress != nil {
		t.Error("expected no email address")
	}
	if u.CheckPassword("") {
		t.Error("a user without hash must not match the empty password")
	}
	if u.PasswordNeedsUpdate() {
		t.Error("a user without hash has nothing to update")
	}
}

func TestCheckPassword_MalformedStoredHash(t *testing.T) {
	crypt, err := humans.NewCryptContext(humans.SchemeArgon2, humans.SchemeScrypt)
	if err != nil {
		t.Fatalf("NewCryptContext failed: %v", err)
	}
	u, _ := humans.NewUser(crypt, humans.UserParams{Username: "admin"})
	for _, hash := range []string{
		"$argon2id$v=19$m=65536,t=0,p=4$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5",
		"$argon2id$v=19$m=65536,t=2,p=0$c2FsdHNhbHRzYWx0$a2V5a2V5a2V5",
		"$scrypt$ln=16,r=0,p=1$c2FsdA$a2V5",
	} {
		u.PasswordHash = hash
		if u.CheckPassword("password") {
			t.Errorf("CheckPassword matched malformed hash %q", hash)
		}
	}
}

func TestSetPassword(t *testing.T) {
	crypt, err := humans.NewCryptContext(humans.SchemePBKDF2SHA256)
	if err != nil {
		t.Fatalf("NewCryptContext failed: %v", err)
	}
	u, _ := humans.NewUser(crypt, humans.UserParams{Username: "admin", Password: "password"})
	first := u.PasswordHash

	if err := u.SetPassword("changed"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if u.PasswordHash == first {
		t.Error("expected a new hash")
	}
	if u.CheckPassword("password") || !u.CheckPassword("changed") {
		t.Error("password was not replaced")
	}

	// Upgrading the context flags the old hash
	upgraded, _ := humans.NewCryptContext(humans.SchemeBcrypt, humans.SchemePBKDF2SHA256)
	u.SetCryptContext(upgraded)
	if !u.CheckPassword("changed") {
		t.Error("old hash should verify under the upgraded context")
	}
	if !u.PasswordNeedsUpdate() {
		t.Error("old hash should need an update")
	}
}

func TestCapabilitiesAbsentByDefault(t *testing.T) {
	u, _ := humans.NewUser(nil, humans.UserParams{Username: "admin"})

	if _, ok := u.AsGroupMember(); ok {
		t.Error("user should not be a group member")
	}
	if _, ok := u.AsPermissionHolder(); ok {
		t.Error("user should not hold permissions")
	}
	if err := u.AddGroup(humans.NewGroup("admin")); !errors.Is(err, humans.ErrGroupsNotConfigured) {
		t.Errorf("expected ErrGroupsNotConfigured, got %v", err)
	}
	if err := u.AddPermission(humans.NewPermission("create_user")); !errors.Is(err, humans.ErrPermissionsNotConfigured) {
		t.Errorf("expected ErrPermissionsNotConfigured, got %v", err)
	}
}

func TestHasGroup(t *testing.T) {
	u, _ := humans.NewUser(nil, humans.UserParams{Username: "jeanphix"})
	u.AttachGroups(nil)
	admin := &humans.Group{Name: "admin", Members: []*humans.User{}}
	if err := u.AddGroup(admin); err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}
	// Adding twice is a no-op
	if err := u.AddGroup(admin); err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}

	member, ok := u.AsGroupMember()
	if !ok {
		t.Fatal("expected group membership")
	}
	tests := []struct {
		group string
		want  bool
	}{
		{"admin", true},
		{"user", false},
		{"Admin", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := member.HasGroup(tt.group); got != tt.want {
			t.Errorf("HasGroup(%q) = %v, want %v", tt.group, got, tt.want)
		}
	}
	if len(member.Groups()) != 1 {
		t.Errorf("expected one group, got %d", len(member.Groups()))
	}
	if !admin.HasMember(u) || len(admin.Members) != 1 {
		t.Error("expected user among the admin members")
	}
}

func TestAddGroup_UnloadedMembers(t *testing.T) {
	u, _ := humans.NewUser(nil, humans.UserParams{Username: "jeanphix"})
	u.AttachGroups([]*humans.Group{})
	shallow := &humans.Group{ID: 3, Name: "staff"}

	if err := u.AddGroup(shallow); err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}
	if shallow.Members != nil {
		t.Error("unloaded members must stay unloaded")
	}
}

func TestGroupAddMember(t *testing.T) {
	g := &humans.Group{Name: "staff", Members: []*humans.User{}}

	plain, _ := humans.NewUser(nil, humans.UserParams{Username: "plain"})
	g.AddMember(plain)
	if !g.HasMember(plain) {
		t.Error("expected plain user among members")
	}

	member, _ := humans.NewUser(nil, humans.UserParams{Username: "member"})
	member.AttachGroups(nil)
	g.AddMember(member)
	g.AddMember(member)
	if len(g.Members) != 2 {
		t.Errorf("expected 2 members, got %d", len(g.Members))
	}
	m, _ := member.AsGroupMember()
	if !m.HasGroup("staff") {
		t.Error("membership should be recorded on the user")
	}
}

func TestNewGroupAddMember(t *testing.T) {
	u, _ := humans.NewUser(nil, humans.UserParams{Username: "jeanphix"})
	u.AttachGroups(nil)
	g := humans.NewGroup("admin")
	g.AddMember(u)

	m, _ := u.AsGroupMember()
	if !m.HasGroup("admin") {
		t.Error("membership should be recorded on the user")
	}
	if !g.HasMember(u) || len(g.Members) != 1 {
		t.Errorf("expected jeanphix as the only member, got %d members", len(g.Members))
	}
}

func TestNewPermissionGrants(t *testing.T) {
	u, _ := humans.NewUser(nil, humans.UserParams{Username: "admin"})
	u.AttachPermissions(nil)
	p := humans.NewPermission("create_user")
	p.GrantUser(u)
	if len(p.Users) != 1 || p.Users[0] != u {
		t.Errorf("expected admin among grantees, got %v", p.Users)
	}
	holder, _ := u.AsPermissionHolder()
	if !holder.HasPermission("create_user") {
		t.Error("permission should be recorded on the user")
	}

	g := humans.NewGroup("staff")
	p.GrantGroup(g)
	if len(p.Groups) != 1 || len(g.Permissions) != 1 {
		t.Errorf("expected one group grant, got groups=%d permissions=%d", len(p.Groups), len(g.Permissions))
	}
}

func TestHasPermission(t *testing.T) {
	u, _ := humans.NewUser(nil, humans.UserParams{Username: "admin"})
	u.AttachPermissions(nil)

	createUser := humans.NewPermission("create_user")
	createUser.Users = []*humans.User{}
	createUser.GrantUser(u)
	createUser.GrantUser(u)

	holder, ok := u.AsPermissionHolder()
	if !ok {
		t.Fatal("expected permission capability")
	}
	if !holder.HasPermission("create_user") {
		t.Error("expected create_user")
	}
	if holder.HasPermission("create_group") {
		t.Error("unexpected create_group")
	}
	if got := holder.PermissionsList(); !reflect.DeepEqual(got, []string{"create_user"}) {
		t.Errorf("unexpected permissions list %v", got)
	}
	if len(createUser.Users) != 1 {
		t.Errorf("expected one grantee, got %d", len(createUser.Users))
	}
}

func TestPermissionsList_DistinctNames(t *testing.T) {
	u, _ := humans.NewUser(nil, humans.UserParams{Username: "admin"})
	u.AttachPermissions([]*humans.Permission{
		{ID: 1, Name: "create_user"},
		{ID: 2, Name: "delete_user"},
		{ID: 3, Name: "create_user"},
	})
	holder, _ := u.AsPermissionHolder()
	want := []string{"create_user", "delete_user"}
	if got := holder.PermissionsList(); !reflect.DeepEqual(got, want) {
		t.Errorf("PermissionsList() = %v, want %v", got, want)
	}
	if len(holder.Permissions()) != 3 {
		t.Error("Permissions() should keep every loaded permission")
	}
}

func TestGrantGroup(t *testing.T) {
	g := &humans.Group{Name: "staff", Permissions: []*humans.Permission{}}
	p := &humans.Permission{Name: "read_reports", Groups: []*humans.Group{}}
	p.GrantGroup(g)
	p.GrantGroup(g)

	if len(g.Permissions) != 1 || g.Permissions[0] != p {
		t.Errorf("unexpected group permissions %v", g.Permissions)
	}
	if len(p.Groups) != 1 || p.Groups[0] != g {
		t.Errorf("unexpected permission groups %v", p.Groups)
	}
	if p.String() != "read_reports" || g.String() != "staff" {
		t.Error("unexpected String()")
	}
}

func TestJoinTableName(t *testing.T) {
	tests := []struct {
		left, right, want string
	}{
		{humans.DefaultUserTable, humans.DefaultGroupTable, "user_group"},
		{humans.DefaultUserTable, humans.DefaultPermissionTable, "user_permission"},
		{humans.DefaultGroupTable, humans.DefaultPermissionTable, "group_permission"},
		{"accounts", "teams", "accounts_teams"},
	}
	for _, tt := range tests {
		if got := humans.JoinTableName(tt.left, tt.right); got != tt.want {
			t.Errorf("JoinTableName(%q, %q) = %q, want %q", tt.left, tt.right, got, tt.want)
		}
	}
}
