package extract

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

var hashNamespace = uuid.MustParse("6f1c3a52-0d4e-4b8e-9a57-3c2f1d0e8b41")

const hashLen = 12

// ContentHash is a short name-based digest of parts. The same parts always
// give the same hash.
func ContentHash(parts ...string) string {
	u := uuid.NewMD5(hashNamespace, []byte(strings.Join(parts, "\x1f")))
	return strings.ReplaceAll(u.String(), "-", "")[:hashLen]
}

// InternalID combines a native id with a content hash so that price variants
// of one article stay apart.
func InternalID(native string, parts ...string) string {
	return native + "_" + ContentHash(parts...)
}

// DatePart formats a date for hashing. Zero dates hash as empty.
func DatePart(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
