// Package reqhash computes the content-addressed request fingerprint
// used to look up a recorded response for a replayed request (spec §4.B).
package reqhash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/brennhill/replayverify/internal/canon"
)

// Query is a mapping of query-parameter name to one or more values,
// mirroring spec §3's Request.query (string -> string|[]string).
type Query map[string][]string

// Hash produces the lowercase-hex SHA-256 digest over method, path,
// canonicalized query, and canonicalized body. Headers, timing, and
// client cookies never participate — changing only those must not
// change the hash.
func Hash(method, path string, query Query, body any) string {
	canonical := canon.Map{
		"method": strings.ToUpper(method),
		"path":   path,
		"query":  canonQuery(query),
		"body":   canon.Canon(body),
	}
	encoded := canon.Encode(canonical)
	sum := sha256.Sum256([]byte(encoded))
	return hex.EncodeToString(sum[:])
}

// canonQuery sorts query keys and, for each key, sorts its values so
// that encoding order never depends on map iteration or client
// submission order.
func canonQuery(q Query) canon.Map {
	out := make(canon.Map, len(q))
	for k, vals := range q {
		sorted := append([]string(nil), vals...)
		sort.Strings(sorted)
		arr := make([]canon.Value, len(sorted))
		for i, v := range sorted {
			arr[i] = v
		}
		out[k] = arr
	}
	return out
}
