package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// StateHash identifies a tuple of control values feeding one output
type StateHash Hash

func (h StateHash) String() string { return Hash(h).String() }

// ComputeStateHash hashes an output name and the values of the controls it reads.
// Keys are sorted so map iteration order never changes the result.
func ComputeStateHash(output string, values map[string]interface{}) StateHash {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	data.WriteString(output)
	for _, key := range keys {
		data.WriteString("|")
		data.WriteString(key)
		data.WriteString("=")
		data.WriteString(fmt.Sprintf("%v", values[key]))
	}

	return StateHash(NewHash([]byte(data.String())))
}
