package models

import "strings"

// Slugify derives the canonical skill identity from a repository owner and
// name: lowercase "owner-repo" with every run of non-alphanumeric characters
// collapsed to a single hyphen. The same input always yields the same slug;
// the indexer's dedup check and the database uniqueness constraint both key
// on this value.
func Slugify(owner, repo string) string {
	raw := strings.ToLower(owner + "-" + repo)

	var b strings.Builder
	b.Grow(len(raw))
	lastHyphen := false
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
