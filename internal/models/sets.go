package models

// AddToSet returns the set with id appended, unchanged if already present.
func AddToSet(set []string, id string) []string {
	if contains(set, id) {
		return set
	}
	return append(set, id)
}

// RemoveFromSet returns the set without id.
func RemoveFromSet(set []string, id string) []string {
	out := set[:0]
	for _, s := range set {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}
