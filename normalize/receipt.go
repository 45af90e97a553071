package normalize

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"
)

// ReceiptPrefix starts every application receipt number.
const ReceiptPrefix = "YP"

// NewReceiptNumber mints a client-side application receipt: YP + YYYYMMDD +
// four random decimal digits, e.g. YP202411271234. Generation is
// best-effort; the sink tolerates and resolves collisions downstream.
func NewReceiptNumber(now time.Time, rng *rand.Rand) string {
	return fmt.Sprintf("%s%s%04d", ReceiptPrefix, now.Format("20060102"), rng.Intn(10000))
}

var receiptPattern = regexp.MustCompile(`^` + ReceiptPrefix + `\d{12}$`)

// IsReceiptValid reports whether s has the shape minted by
// NewReceiptNumber. A client-supplied receipt only serves as the
// submission's dedup key when it passes this check.
func IsReceiptValid(s string) bool {
	return receiptPattern.MatchString(s)
}
