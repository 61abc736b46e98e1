// Package money formats integer Chilean peso amounts.
package money

import "strconv"

// Thousands renders n with es-CL digit grouping: 1234567 -> "1.234.567".
func Thousands(n int64) string {
	negative := n < 0
	if negative {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	out := make([]byte, 0, len(digits)+len(digits)/3+1)
	if negative {
		out = append(out, '-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	out = append(out, digits[:lead]...)
	for i := lead; i < len(digits); i += 3 {
		out = append(out, '.')
		out = append(out, digits[i:i+3]...)
	}
	return string(out)
}

// CLP renders n as a peso amount: 4000 -> "$4.000".
func CLP(n int64) string {
	return "$" + Thousands(n)
}
