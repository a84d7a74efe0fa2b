package utils // package utils provides helpers shared by the ticket store

import (
	"crypto/rand" // default random source for code suffixes
	"fmt"
	"io"
	"time"
)

// codeAlphabet is the set of characters used in the random code suffix.
const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// codeSuffixLen is the number of random characters appended to a code.
const codeSuffixLen = 4

// CodeGenerator produces human-readable ticket codes of the form
// SR-YYYYMMDD-HHMMSS-XXXX.  Codes are not guaranteed to be unique: two
// tickets created in the same second share a 1 in 36^4 chance of colliding.
type CodeGenerator struct {
	Now    func() time.Time // clock, local time; defaults to time.Now
	Random io.Reader        // entropy for the suffix; defaults to crypto/rand
}

// NewCodeGenerator returns a generator backed by the wall clock and crypto/rand.
func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{Now: time.Now, Random: rand.Reader}
}

// Generate formats the current local time and a random suffix into a code.
// If the random source fails, the suffix falls back to digits taken from the
// clock's nanoseconds so that ticket creation never fails.
func (g *CodeGenerator) Generate() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	t := now()
	return fmt.Sprintf("SR-%s-%s", t.Format("20060102-150405"), g.suffix(t))
}

func (g *CodeGenerator) suffix(t time.Time) string {
	src := g.Random
	if src == nil {
		src = rand.Reader
	}
	buf := make([]byte, codeSuffixLen)
	if _, err := io.ReadFull(src, buf); err != nil {
		return fmt.Sprintf("%04d", t.Nanosecond()%10000)
	}
	// modulo bias over 256 is tolerated; the suffix is not a secret
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}
