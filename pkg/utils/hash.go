package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// HashStrings returns a stable hex digest of the given parts, used for
// cache keys. Not a security hash.
func HashStrings(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "\x1f")))
	return fmt.Sprintf("%x", sum)
}
