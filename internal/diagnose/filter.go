package diagnose

import "prefabls/internal/detect"

// KeySet reports the keys known to a catalog.
type KeySet interface {
	AllKeys() map[string]struct{}
}

// FilterForMissingKeys keeps the locations whose key is not in keys. It has
// no side effects, so applying it twice gives the same result as once.
func FilterForMissingKeys(locs []detect.MethodLocation, keys KeySet) []detect.MethodLocation {
	known := keys.AllKeys()
	var out []detect.MethodLocation
	for _, l := range locs {
		if _, ok := known[l.Key]; !ok {
			out = append(out, l)
		}
	}
	return out
}
