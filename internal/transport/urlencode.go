package transport

import (
	"fmt"
	"strings"
)

// urlEncode percent-encodes exactly the five characters that can break an
// InfluxDB query string embedded in a URL: '%', '=', '&', '\n' and space.
// Everything else, including characters a general-purpose net/url encoder
// would also escape (e.g. '/', "'"), passes through untouched, because SQL
// literals routinely contain them and the backend expects them literal.
func urlEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '%', '=', '&', '\n', ' ':
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
