package sessioncode

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// alphabet excludes 0/O and 1/I to keep codes readable when typed by hand.
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const groupLen = 6

// Generate returns a human-typeable session code of two random six-character
// groups, e.g. "K7KQ2M-9XDPRF". The code space (32^12) makes collisions
// negligible for the expected session volume.
func Generate() (string, error) {
	first, err := randomGroup(groupLen)
	if err != nil {
		return "", err
	}
	second, err := randomGroup(groupLen)
	if err != nil {
		return "", err
	}
	return first + "-" + second, nil
}

func randomGroup(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	var b strings.Builder
	b.Grow(n)
	for _, c := range buf {
		b.WriteByte(alphabet[int(c)%len(alphabet)])
	}
	return b.String(), nil
}

// Valid reports whether a string looks like a generated session code.
// Manual check-in uses this to reject garbage before hitting the store.
func Valid(code string) bool {
	parts := strings.Split(code, "-")
	if len(parts) != 2 {
		return false
	}
	for _, part := range parts {
		if len(part) != groupLen {
			return false
		}
		for i := 0; i < len(part); i++ {
			if !strings.ContainsRune(alphabet, rune(part[i])) {
				return false
			}
		}
	}
	return true
}
