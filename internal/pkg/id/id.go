package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs sort by creation time, so issue IDs
// in the logs line up with the order OTPs were handed out.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
