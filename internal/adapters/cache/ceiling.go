package cache

import "strings"

// Ceiling bounds how many entries whose key starts with Prefix a shared store
// keeps. On overflow, expired entries go first and then the oldest-written.
type Ceiling struct {
	Prefix     string
	MaxEntries int
}

func addCeiling(ceilings []Ceiling, prefix string, maxEntries int) []Ceiling {
	if maxEntries <= 0 {
		return ceilings
	}
	return append(ceilings, Ceiling{Prefix: prefix, MaxEntries: maxEntries})
}

// ceilingFor returns the longest-prefix ceiling that applies to key.
func ceilingFor(ceilings []Ceiling, key string) (Ceiling, bool) {
	var best Ceiling
	found := false
	for _, c := range ceilings {
		if strings.HasPrefix(key, c.Prefix) && (!found || len(c.Prefix) > len(best.Prefix)) {
			best, found = c, true
		}
	}
	return best, found
}

// likePrefix turns prefix into a LIKE pattern using '\' as the escape character.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
