package files

import (
	"fmt"
	"os"
	"strconv"
)

// ParseMode parses an octal mode such as "0644" or "2775". The setuid,
// setgid and sticky digits become the matching os.FileMode flags.
func ParseMode(s string) (os.FileMode, error) {
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil || n > 0o7777 {
		return 0, fmt.Errorf("invalid mode %q: want octal such as 0644", s)
	}

	m := os.FileMode(n & 0o777)

	if n&0o4000 != 0 {
		m |= os.ModeSetuid
	}

	if n&0o2000 != 0 {
		m |= os.ModeSetgid
	}

	if n&0o1000 != 0 {
		m |= os.ModeSticky
	}

	return m, nil
}

// modeArg renders m as the octal argument of chmod and mkdir -m, keeping the
// setuid, setgid and sticky bits.
func modeArg(m os.FileMode) string {
	n := uint32(m) & 0o7777

	if m&os.ModeSetuid != 0 {
		n |= 0o4000
	}

	if m&os.ModeSetgid != 0 {
		n |= 0o2000
	}

	if m&os.ModeSticky != 0 {
		n |= 0o1000
	}

	return strconv.FormatUint(uint64(n), 8)
}
