package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatMoney renders an amount with thousand separators and no cents when whole.
func FormatMoney(amount float64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	whole := int64(math.Floor(amount))
	cents := int64(math.Round((amount - float64(whole)) * 100))
	if cents == 100 {
		whole++
		cents = 0
	}
	out := sign + formatThousand(whole)
	if cents > 0 {
		out += fmt.Sprintf(".%02d", cents)
	}
	return out + " " + currency
}

// FormatCostRange renders "free", a single amount, or "min - max CUR".
func FormatCostRange(min, max float64, currency string) string {
	if min <= 0 && max <= 0 {
		return "free"
	}
	if max <= min {
		return FormatMoney(math.Max(min, max), currency)
	}
	lo := strings.TrimSuffix(FormatMoney(min, currency), " "+strings.ToUpper(strings.TrimSpace(orDefault(currency, "USD"))))
	return lo + " - " + FormatMoney(max, currency)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
