// Package validation holds pure record-quality checks applied during
// transformation.
package validation

// cnpjWeights are the modulus-11 weights for the first check digit of the
// 14-digit national business identifier. The second check digit prepends a
// weight of 6 and covers the first check digit as well.
var cnpjWeights = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

// ValidCNPJ reports whether s contains a valid CNPJ. Non-digit characters
// are stripped first; inputs that are not exactly 14 digits, or that repeat
// a single digit (placeholder ids), are invalid. The result flags records
// for data-quality reporting and is never used to drop them.
func ValidCNPJ(s string) bool {
	digits := make([]int, 0, 14)
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}

	if len(digits) != 14 {
		return false
	}

	allSame := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	if checkDigit(digits, cnpjWeights) != digits[12] {
		return false
	}

	secondWeights := append([]int{6}, cnpjWeights...)
	return checkDigit(digits, secondWeights) == digits[13]
}

// checkDigit computes a modulus-11 check digit over the leading digits
// covered by weights: 0 when the remainder is below 2, 11-remainder
// otherwise.
func checkDigit(digits, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += digits[i] * w
	}
	if rest := sum % 11; rest >= 2 {
		return 11 - rest
	}
	return 0
}
