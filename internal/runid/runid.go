// Package runid generates sortable identifiers for gateway sessions and
// recorded training or evaluation runs.
package runid

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"
)

// Crockford base32, lower case.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length of an encoded identifier.
const Length = 26

// Generator builds UUIDv7-style identifiers from a clock and an entropy
// source.
type Generator struct {
	entropy io.Reader
	now     func() time.Time
}

// NewGenerator returns a generator. Nil arguments fall back to crypto/rand
// and time.Now.
func NewGenerator(entropy io.Reader, now func() time.Time) *Generator {
	if entropy == nil {
		entropy = rand.Reader
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{entropy: entropy, now: now}
}

// New returns an identifier from the default generator.
func New() string {
	id, err := NewGenerator(nil, nil).Generate()
	if err != nil {
		panic("runid: " + err.Error())
	}
	return id
}

// Generate returns a 26 character identifier. Identifiers generated in later
// milliseconds sort after earlier ones.
func (g *Generator) Generate() (string, error) {
	var id [16]byte

	ms := uint64(g.now().UnixMilli())
	for i := range 6 {
		id[i] = byte(ms >> (40 - 8*i))
	}
	if _, err := io.ReadFull(g.entropy, id[6:]); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	id[6] = (id[6] & 0x0f) | 0x70 // version 7
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant

	return encode(id), nil
}

// encode writes the 128 bits as 26 five-bit groups, most significant first,
// with two zero bits of padding at the front.
func encode(id [16]byte) string {
	var b strings.Builder
	b.Grow(Length)

	hi := uint64(0)
	lo := uint64(0)
	for i := range 8 {
		hi = hi<<8 | uint64(id[i])
		lo = lo<<8 | uint64(id[8+i])
	}
	for i := Length - 1; i >= 0; i-- {
		shift := uint(5 * i)
		var v uint64
		switch {
		case shift >= 64:
			v = hi >> (shift - 64)
		case shift > 59:
			v = lo>>shift | hi<<(64-shift)
		default:
			v = lo >> shift
		}
		b.WriteByte(alphabet[v&0x1f])
	}
	return b.String()
}

// Validate checks that id has the right length and alphabet.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("id must be exactly %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("id first character must be 0-7, got %c", id[0])
	}
	for i, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}
