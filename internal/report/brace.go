package report

import "strings"

// Compact renders two paths as a single brace pattern when they differ in
// exactly one segment: /data/a/file and /data/b/file become
// /data/{a,b}/file. Returns false when the paths do not qualify.
func Compact(a, b string) (string, bool) {
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")
	if len(as) != len(bs) {
		return "", false
	}

	diff := -1
	for i := range as {
		if as[i] == bs[i] {
			continue
		}
		if diff >= 0 {
			return "", false
		}
		diff = i
	}
	if diff < 0 {
		// Identical paths; nothing to compact.
		return "", false
	}

	as[diff] = "{" + as[diff] + "," + bs[diff] + "}"
	return strings.Join(as, "/"), true
}
