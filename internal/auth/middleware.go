// Package auth gates privileged operations (fee-rate changes, token listing)
// behind an Ethereum-style signed-message check against a configured
// allow-list of admin addresses.
package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// signatureWindow bounds how old a signed timestamp may be.
const signatureWindow = 5 * time.Minute

// AdminMiddleware verifies signed admin requests.
type AdminMiddleware struct {
	allowed map[string]struct{}
	now     func() time.Time
}

// NewAdminMiddleware creates middleware allowing only the given addresses.
func NewAdminMiddleware(addresses []string) *AdminMiddleware {
	allowed := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		allowed[strings.ToLower(addr)] = struct{}{}
	}
	return &AdminMiddleware{allowed: allowed, now: time.Now}
}

// RequireAdmin rejects requests that do not carry a fresh, valid signature
// from an allow-listed address. The signed message binds the address and a
// unix timestamp, so captured headers expire quickly.
func (am *AdminMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.GetHeader("X-Admin-Address")
		signature := c.GetHeader("X-Admin-Signature")
		timestampStr := c.GetHeader("X-Admin-Timestamp")

		if address == "" || signature == "" || timestampStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "admin signature headers required",
				"code":  "AUTH_HEADERS_MISSING",
			})
			c.Abort()
			return
		}

		timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid timestamp", "code": "AUTH_BAD_TIMESTAMP"})
			c.Abort()
			return
		}
		age := am.now().Sub(time.Unix(timestamp, 0))
		if age > signatureWindow || age < -signatureWindow {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "signature expired", "code": "AUTH_EXPIRED"})
			c.Abort()
			return
		}

		recovered, err := recoverSigner(address, timestamp, signature)
		if err != nil {
			logrus.WithError(err).WithField("address", address).Warn("Admin signature verification failed")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "signature verification failed", "code": "AUTH_FAILED"})
			c.Abort()
			return
		}
		if !strings.EqualFold(recovered, address) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "signer mismatch", "code": "AUTH_FAILED"})
			c.Abort()
			return
		}
		if _, ok := am.allowed[strings.ToLower(address)]; !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "address not authorized", "code": "AUTH_FORBIDDEN"})
			c.Abort()
			return
		}

		c.Set("admin_address", recovered)
		c.Next()
	}
}

// SignedMessage is the exact payload an admin must sign for a request at the
// given timestamp.
func SignedMessage(address string, timestamp int64) string {
	return fmt.Sprintf("launchblock-admin:%s:%d", strings.ToLower(address), timestamp)
}

func recoverSigner(address string, timestamp int64, signature string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("unexpected signature length %d", len(sig))
	}
	// Accept the 27/28 recovery id convention used by wallet signers.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	msg := SignedMessage(address, timestamp)
	hash := textHash([]byte(msg))
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return "", fmt.Errorf("recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

// textHash reproduces the eth_sign personal-message hash.
func textHash(data []byte) []byte {
	msg := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(data), data)
	return crypto.Keccak256([]byte(msg))
}

// SecurityHeaders sets conservative response headers on every request.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Next()
	}
}

// ValidAddress reports whether s looks like a hex account address.
func ValidAddress(s string) bool {
	return common.IsHexAddress(s)
}
