// Package objectid defines the content address used across the merge
// driver: a fixed-width, hex-serializable identifier for blobs, trees
// and commits.
package objectid

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"sort"

	"github.com/zeebo/blake3"
)

const (
	DigestSize = 32
	HexSize    = DigestSize * 2
)

// ID is a BLAKE3 content address. The zero value is the all-zero ID,
// distinct from EmptyBlob/EmptyTree.
type ID [DigestSize]byte

// EmptyBlob is the ID of a zero-length blob, used as the synthetic
// ancestor when a path was added independently on both sides.
var EmptyBlob = New("af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262")

// EmptyTree is the distinguished ID denoting an empty tree, used as the
// ancestor for unrelated-history merges.
var EmptyTree = New("0000000000000000000000000000000000000000000000000000000000000001")

// Zero is the all-zero ID.
var Zero ID

func New(s string) ID {
	var id ID
	b, _ := hex.DecodeString(s)
	copy(id[:], b)
	return id
}

func NewEx(s string) (ID, error) {
	if !Valid(s) {
		return Zero, fmt.Errorf("objectid: %q is not a valid object id", s)
	}
	return New(s), nil
}

func Valid(s string) bool {
	if len(s) != HexSize {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func (id ID) IsZero() bool {
	return id == Zero
}

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *ID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	raw, _ := hex.DecodeString(s)
	copy(id[:], raw)
	return nil
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	raw, _ := hex.DecodeString(string(text))
	copy(id[:], raw)
	return nil
}

// Sort sorts a slice of IDs in increasing byte order.
func Sort(ids []ID) {
	sort.Sort(idSlice(ids))
}

type idSlice []ID

func (p idSlice) Len() int           { return len(p) }
func (p idSlice) Less(i, j int) bool { return bytes.Compare(p[i][:], p[j][:]) < 0 }
func (p idSlice) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

// Hasher computes an ID incrementally.
type Hasher struct {
	hash.Hash
}

func NewHasher() Hasher {
	return Hasher{Hash: blake3.New()}
}

func (h Hasher) Sum() (id ID) {
	copy(id[:], h.Hash.Sum(nil))
	return
}

// Of is a convenience one-shot hash of content.
func Of(content []byte) ID {
	h := NewHasher()
	_, _ = h.Write(content)
	return h.Sum()
}
