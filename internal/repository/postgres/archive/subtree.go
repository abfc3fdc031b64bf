package archive

import "strings"

// likeEscaper rewrites a literal path for use in a LIKE pattern. Folder
// names may legally contain the LIKE metacharacters _ and %, so the
// subtree match must treat them as literals or a delete aimed at
// "week_1" would also sweep up an unrelated "week-1" sibling.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// subtreePattern builds the LIKE pattern matching every path strictly
// below the given canonical path.
func subtreePattern(path string) string {
	return likeEscaper.Replace(path) + "/%"
}
