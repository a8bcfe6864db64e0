// Package partition assigns keys to a fixed number of shards.
package partition

import "hash/fnv"

// For returns the shard in [0, n) that key belongs to.
// Stable and deterministic: the same key and n always map to the same shard.
// n < 1 is treated as a single shard.
func For(key string, n int) int {
	if n < 1 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

// Split groups keys into n shards by For, preserving the input order inside
// each shard. Empty shards are omitted.
func Split(keys []string, n int) [][]string {
	if n < 1 {
		n = 1
	}
	shards := make([][]string, n)
	for _, k := range keys {
		i := For(k, n)
		shards[i] = append(shards[i], k)
	}
	out := shards[:0]
	for _, s := range shards {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}
