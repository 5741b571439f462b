package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const (
	resetTokenBytes = 32
	confirmPinLen   = 6
)

// newResetToken returns a random hex token for password reset links
func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// newConfirmPin returns a zero-padded numeric PIN
func newConfirmPin() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", confirmPinLen, n.Int64()), nil
}

func validPinFormat(pin string) bool {
	if len(pin) != confirmPinLen {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// digest keys the stored hash with the server secret so a leaked users
// table does not reveal short PINs by brute force
func digest(secret string, parts ...string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(mac.Sum(nil))
}
