package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// MethodID returns the 4-byte selector for a canonical method signature,
// e.g. "approve(address,uint256)" -> "0x095ea7b3".
func MethodID(signature string) string {
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(signature))
	sum := hash.Sum(nil)

	return "0x" + hex.EncodeToString(sum[:4])
}
