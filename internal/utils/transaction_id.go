package utils

import (
	"crypto/rand"
	"fmt"
	"time"
)

const txSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateTransactionID returns a new contribution transaction id in the form
// TS<unix-millis><9 random chars>. The random suffix keeps concurrent calls
// within the same millisecond from colliding; the database enforces
// uniqueness as the final guard.
func GenerateTransactionID() string {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i, b := range buf {
		buf[i] = txSuffixAlphabet[int(b)%len(txSuffixAlphabet)]
	}
	return fmt.Sprintf("TS%d%s", time.Now().UnixMilli(), buf)
}
