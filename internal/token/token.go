// Package token issues the access hashes that gate shared-document links.
// The hash is bearer-equivalent: whoever holds it can act on the share.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

const randomLen = 40

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

type Issuer struct {
	appKey string
	now    func() time.Time
}

func NewIssuer(appKey string) *Issuer {
	return &Issuer{appKey: appKey, now: time.Now}
}

// AccessHash returns a 64-character hex digest of a random 40-character
// string, the current epoch seconds and the application key.
func (i *Issuer) AccessHash() (string, error) {
	r, err := randomString(randomLen)
	if err != nil {
		return "", fmt.Errorf("generate random component: %w", err)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s%d%s", r, i.now().Unix(), i.appKey)))
	return hex.EncodeToString(sum[:]), nil
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}
