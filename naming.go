package humans

// Default storage names
const (
	DefaultUserTable       = "user"
	DefaultGroupTable      = "group"
	DefaultPermissionTable = "permission"
)

// JoinTableName names the association table between two entities from their
// storage names, in the order given: ("user", "group") is "user_group".
func JoinTableName(left, right string) string {
	return left + "_" + right
}
