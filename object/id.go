// Package object carries the object model the wire protocol
// advertises: fixed-width ids, the minimal commit/tag/blob/tree
// headers, and the resolver contracts the protocol layer consumes.
package object

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
)

var errBadIDLen = errors.New("object: invalid ID length")

// An ID is the name of an object: the SHA-1 digest of its canonical
// representation.
type ID [sha1.Size]byte

// HexLen is the length of an ID rendered as hexadecimal text.
const HexLen = 2 * sha1.Size

// ZeroID designates a nonexistent object.
var ZeroID ID

// String renders the ID as HexLen lowercase hexadecimal digits.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseID parses a HexLen-digit hexadecimal string.
func ParseID(s string) (id ID, err error) {
	if len(s) != HexLen {
		return ZeroID, errBadIDLen
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroID, err
	}
	copy(id[:], b)
	return id, nil
}

// Sum names an object from its type and body.
func Sum(t Type, body []byte) ID {
	h := sha1.New()
	h.Write([]byte(t.String()))
	h.Write([]byte{' '})
	h.Write(body)
	var id ID
	copy(id[:], h.Sum(nil))
	return id
}
