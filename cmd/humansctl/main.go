// humansctl manages users, groups and permissions in a SQLite database.
//
// Usage:
//
//	humansctl --db humans.db migrate
//	humansctl user create admin --email admin@domain.tld --password secret --admin
//	humansctl group create staff
//	humansctl group add staff admin
//	humansctl permission create create_user
//	humansctl permission grant create_user --user admin
//	humansctl user show admin@domain.tld
//	humansctl user check admin --password secret
//
// Table names, crypt schemes and enabled entities come from --config (YAML)
// and HUMANS_* environment variables.
package main

import "os"

func main() {
	os.Exit(Execute())
}
