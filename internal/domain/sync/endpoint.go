package sync

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// MobileEndpointAddress derives the opaque per-user discovery address handed
// to external mobile contact clients. The derivation is deterministic: the
// same user, base URL and secret always yield the same address, so the
// address can be regenerated instead of migrated. The token is an HMAC, so
// it neither reveals the user ID nor can be forged from a known one.
func MobileEndpointAddress(userID uuid.UUID, baseURL string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte("carddav:" + userID.String() + ":" + baseURL))
	token := hex.EncodeToString(mac.Sum(nil)[:16])
	return strings.TrimRight(baseURL, "/") + "/carddav/" + token
}
