package normalize

import (
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "01012345678", DigitsOnly("010-1234-5678"))
	assert.Equal(t, "01012345678", DigitsOnly(" 010 1234 5678 "))
	assert.Equal(t, "", DigitsOnly("abc-"))
	assert.Equal(t, "1234567890", DigitsOnly("123-45-67890"))
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "010-1234-5678", FormatPhone("01012345678"))
	assert.Equal(t, "010-1234-5678", FormatPhone("010-1234-5678"))
	assert.Equal(t, "010-1234-5678", FormatPhone("010.1234.5678"))

	// Not an 11-digit 010 number: bare digits come back unchanged.
	assert.Equal(t, "010123456", FormatPhone("010-12-3456"))
	assert.Equal(t, "01112345678", FormatPhone("01112345678"))
	assert.Equal(t, "", FormatPhone(""))
}

func TestIsPhoneValid(t *testing.T) {
	assert.True(t, IsPhoneValid("01012345678"))
	assert.True(t, IsPhoneValid("010-1234-5678"))
	assert.False(t, IsPhoneValid("010-12-3456"))
	assert.False(t, IsPhoneValid("01612345678"))
	assert.False(t, IsPhoneValid(""))
}

// Phone normalization must be idempotent through its own round trip for
// any input, valid or not.
func TestFormatPhone_RoundTrip(t *testing.T) {
	inputs := []string{
		"01012345678",
		"010-1234-5678",
		"010 1234 5678",
		"010-12-3456",
		"not a phone",
		"",
		"+82 10-1234-5678",
	}
	for _, x := range inputs {
		once := FormatPhone(DigitsOnly(x))
		twice := FormatPhone(DigitsOnly(FormatPhone(x)))
		assert.Equal(t, once, twice, "round trip diverged for %q", x)
	}
}

func TestFormatBizNo(t *testing.T) {
	assert.Equal(t, "123-45-67890", FormatBizNo("1234567890"))
	assert.Equal(t, "123-45-67890", FormatBizNo("123-45-67890"))
	assert.Equal(t, "123456789", FormatBizNo("123456789"))
	assert.Equal(t, "", FormatBizNo(""))
}

func TestIsBizNoValid(t *testing.T) {
	assert.True(t, IsBizNoValid(""), "biz-no is optional")
	assert.True(t, IsBizNoValid("  "), "blank counts as empty")
	assert.True(t, IsBizNoValid("1234567890"))
	assert.True(t, IsBizNoValid("123-45-67890"))
	assert.False(t, IsBizNoValid("123456789"))
	assert.False(t, IsBizNoValid("12345678901"))
}

func TestSafeDate(t *testing.T) {
	d := SafeDate(2025, 2, 31)
	assert.Equal(t, "2025-02-28", d.Format("2006-01-02"))

	d = SafeDate(2024, 2, 31)
	assert.Equal(t, "2024-02-29", d.Format("2006-01-02"), "leap year keeps the 29th")

	d = SafeDate(2024, 4, 31)
	assert.Equal(t, "2024-04-30", d.Format("2006-01-02"))

	d = SafeDate(2024, 12, 25)
	assert.Equal(t, "2024-12-25", d.Format("2006-01-02"), "valid dates pass through")

	d = SafeDate(2024, 0, 0)
	assert.Equal(t, "2024-01-01", d.Format("2006-01-02"), "zero controls clamp up")
}

func TestDebtRatio(t *testing.T) {
	assert.Equal(t, "240%", DebtRatio("5,000", "12,000"))
	assert.Equal(t, "240%", DebtRatio("5000", "12000"))
	assert.Equal(t, "50%", DebtRatio("10,000", "5,000"))
	assert.Equal(t, "67%", DebtRatio("3", "2"), "rounds half-up")

	assert.Equal(t, DebtRatioNA, DebtRatio("0", "100"))
	assert.Equal(t, DebtRatioNA, DebtRatio("-100", "100"))
	assert.Equal(t, DebtRatioNA, DebtRatio("", "100"))
	assert.Equal(t, DebtRatioNA, DebtRatio("abc", "100"))
	assert.Equal(t, DebtRatioNA, DebtRatio("5,000", "약 1억"))
}

func TestNewReceiptNumber(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	now := time.Date(2024, 11, 27, 10, 30, 0, 0, time.UTC)

	re := regexp.MustCompile(`^YP\d{12}$`)
	for i := 0; i < 50; i++ {
		r := NewReceiptNumber(now, rng)
		assert.Regexp(t, re, r)
		assert.Equal(t, "YP20241127", r[:10])
		assert.True(t, IsReceiptValid(r))
	}
}

func TestIsReceiptValid(t *testing.T) {
	assert.True(t, IsReceiptValid("YP202411271234"))

	for _, bad := range []string{
		"",
		"YP2024112712",      // too short
		"YP2024112712345",   // too long
		"XX202411271234",    // wrong prefix
		"YP20241127123a",    // non-digit
		" YP202411271234",   // leading junk
		"yp202411271234",    // prefix is case sensitive
	} {
		assert.False(t, IsReceiptValid(bad), bad)
	}
}
