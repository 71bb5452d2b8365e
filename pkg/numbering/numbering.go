// Package numbering builds human-readable document numbers such as
// ORD-20240501-7K2QZ9.
package numbering

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	OrderPrefix     = "ORD"
	BordereauPrefix = "BRD"
)

// Generate returns PREFIX-YYYYMMDD-XXXX with n random characters. The date is
// taken in UTC.
func Generate(prefix string, now time.Time, n int) (string, error) {
	suffix, err := randomSuffix(n)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('-')
	b.WriteString(now.UTC().Format("20060102"))
	b.WriteByte('-')
	b.WriteString(suffix)
	return b.String(), nil
}

func randomSuffix(n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
