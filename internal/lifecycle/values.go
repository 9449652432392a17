package lifecycle

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TruncateUSD cuts a money value to two decimal places without rounding
// (7.189 becomes 7.18). Spreadsheet input arrives with arbitrary precision
// and the ledger columns are DECIMAL(19,2).
func TruncateUSD(v decimal.Decimal) decimal.Decimal {
	return v.Truncate(2)
}

// UnitValue derives unit price as total/quantity truncated to two decimals.
// It returns nil when the quantity is zero or the total is unknown: nil means
// "unknown", which is distinct from a confirmed zero value.
func UnitValue(total *decimal.Decimal, quantity int) *decimal.Decimal {
	if total == nil || quantity == 0 {
		return nil
	}
	u := TruncateUSD(total.Div(decimal.NewFromInt(int64(quantity))))
	return &u
}

// NormalizeSPN keeps a spare part number as a string, zero-padding purely
// numeric values to six digits so leading zeros survive spreadsheet round
// trips. Non-numeric values are only trimmed.
func NormalizeSPN(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fmt.Sprintf("%06d", n)
	}
	return s
}

// GenerateRecordID assembles the key for a manually inserted record:
// #{destVessel}-{spn}-{originVessel}-{dept3}-{prNumber}/{year}. The result is
// an opaque string from here on; nothing ever parses it back apart. Records
// missing either vessel get a timestamped placeholder key instead.
func GenerateRecordID(destVessel, spn, originVessel, originDept, prTMMaster string, now time.Time) string {
	if strings.TrimSpace(destVessel) == "" || strings.TrimSpace(originVessel) == "" {
		return "#AUTO-" + now.Format("20060102150405")
	}
	dept := strings.ToUpper(strings.TrimSpace(originDept))
	if r := []rune(dept); len(r) > 3 {
		dept = string(r[:3])
	}
	if dept == "" {
		dept = "XXX"
	}
	pr := strings.TrimSpace(prTMMaster)
	if pr == "" {
		pr = "0000"
	}
	return fmt.Sprintf("#%s-%s-%s-%s-%s/%d",
		strings.TrimSpace(destVessel), strings.TrimSpace(spn),
		strings.TrimSpace(originVessel), dept, pr, now.Year())
}
