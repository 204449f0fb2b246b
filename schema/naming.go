package schema

import (
	"sort"
	"strings"

	pluralizer "github.com/gertd/go-pluralize"
)

// pluralizeClient is shared; its rule tables are only read after init.
var pluralizeClient = pluralizer.NewClient()

// Singular returns the singular form of a snake_case table name. Only the
// last word is inflected: "order_items" -> "order_item".
func Singular(name string) string {
	head, last := splitLastWord(name)
	return head + pluralizeClient.Singular(last)
}

// ForeignKeyName is the conventional foreign key pointing at table:
// "users" -> "user_id".
func ForeignKeyName(table string) string {
	return Singular(table) + "_id"
}

// PivotTableName is the conventional pivot name for two tables: the
// singular names in alphabetical order, joined by an underscore.
// ("users", "roles") -> "role_user".
func PivotTableName(a, b string) string {
	names := []string{Singular(a), Singular(b)}
	sort.Strings(names)
	return names[0] + "_" + names[1]
}

func splitLastWord(name string) (string, string) {
	i := strings.LastIndex(name, "_")
	if i < 0 {
		return "", name
	}
	return name[:i+1], name[i+1:]
}
