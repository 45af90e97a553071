// Package normalize is the deterministic reformatting and validation
// pipeline shared by every stage: phone numbers, business registration
// numbers, partial dates, and money-derived aggregates. Everything here is
// pure; the same input always produces the same output.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DigitsOnly strips everything but ASCII digits.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone normalizes a Korean mobile number to 010-NNNN-NNNN. Anything
// that is not an 11-digit 010 number comes back as its bare digit string,
// unchanged, so callers can still show what the user typed.
func FormatPhone(s string) string {
	d := DigitsOnly(s)
	if !IsPhoneValid(d) {
		return d
	}
	return d[:3] + "-" + d[3:7] + "-" + d[7:]
}

// IsPhoneValid reports whether the digits of s form an 11-digit 010 number.
func IsPhoneValid(s string) bool {
	d := DigitsOnly(s)
	return len(d) == 11 && strings.HasPrefix(d, "010")
}

// FormatBizNo normalizes a 10-digit business registration number to
// NNN-NN-NNNNN. Other inputs come back as their bare digit string.
func FormatBizNo(s string) string {
	d := DigitsOnly(s)
	if len(d) != 10 {
		return d
	}
	return d[:3] + "-" + d[3:5] + "-" + d[5:]
}

// IsBizNoValid reports whether s is an acceptable business registration
// number. The field is optional, so empty is valid; any non-empty value
// must reduce to exactly 10 digits.
func IsBizNoValid(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	return len(DigitsOnly(s)) == 10
}

// SafeDate builds a valid calendar date from separately chosen year, month,
// and day controls. A day past the end of the month is clamped to the last
// day of that month, so (2025, 2, 31) becomes 2025-02-28.
func SafeDate(year, month, day int) time.Time {
	if month < 1 {
		month = 1
	}
	if month > 12 {
		month = 12
	}
	if day < 1 {
		day = 1
	}
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year, month int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DebtRatioNA is rendered when a debt ratio cannot be computed.
const DebtRatioNA = "N/A"

// DebtRatio computes debt/capital as an integer percentage rounded half-up,
// e.g. "240%". Inputs are operator-typed money strings and may carry
// thousands-separator commas. Unparseable input or non-positive capital
// yields DebtRatioNA rather than an error: the ratio is a display aggregate
// and must never block a submission.
func DebtRatio(capital, debt string) string {
	capAmt, err := parseMoney(capital)
	if err != nil {
		return DebtRatioNA
	}
	debtAmt, err := parseMoney(debt)
	if err != nil {
		return DebtRatioNA
	}
	if capAmt.Sign() <= 0 {
		return DebtRatioNA
	}
	ratio := debtAmt.Mul(decimal.NewFromInt(100)).DivRound(capAmt, 0)
	return fmt.Sprintf("%s%%", ratio.String())
}

func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(s)
}
