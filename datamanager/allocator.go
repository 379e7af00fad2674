package datamanager

import "strconv"

// NextID returns the next identifier for a collection of previously issued
// keys: the smallest integer strictly greater than the maximum existing
// key, or "1" for an empty collection. Keys are compared numerically, so
// "10" sorts after "9". Empty-string keys are the row store's "no movies
// yet" placeholder and are ignored, as is anything non-numeric, so the
// first real allocation after a placeholder-only state yields "1".
func NextID(keys []string) string {
	max := 0
	for _, key := range keys {
		n, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}
