// Package util provides the engine identity generator: every CoreState gets
// a ULID (spec.md §4.1 "engine_id") so operators can correlate a single
// engine instance across log lines and trace spans even as it is reset or
// reinstantiated in place.
package util

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// entropy is a single process-wide monotonic source: ULIDs minted in the
// same millisecond still sort strictly, which matters when many engines are
// bootstrapped back-to-back in a test run or a worker pool.
var entropy *ulid.MonotonicEntropy

func init() {
	var seed int64
	_ = binary.Read(rand.Reader, binary.BigEndian, &seed)
	entropy = ulid.Monotonic(mrand.New(mrand.NewSource(seed)), 0)
}

// New mints a canonical Crockford base-32 ULID for use as an engine_id.
func New() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// MustNew panics if New fails, which happens when the monotonic entropy
// source overflows within a single millisecond.
func MustNew() string {
	s, err := New()
	if err != nil {
		panic(err)
	}
	return s
}
