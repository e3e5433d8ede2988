package rut

import (
	"regexp"
	"strconv"
	"strings"
)

// body of 7 or 8 digits, a hyphen and a check character
var shape = regexp.MustCompile(`^(\d{7,8})-([0-9K])$`)

// Clean strips dots and whitespace and uppercases the check character.
func Clean(input string) string {
	var b strings.Builder
	b.Grow(len(input))

	for _, r := range input {
		switch r {
		case '.', ' ', '\t', '\n', '\r', '\v', '\f':
			continue
		}
		b.WriteRune(r)
	}

	return strings.ToUpper(b.String())
}

// CheckDigit computes the mod-11 check character for a numeric body.
// It returns false when body contains anything other than ASCII digits.
func CheckDigit(body string) (byte, bool) {
	if body == "" {
		return 0, false
	}

	sum := 0
	multiplier := 2

	for i := len(body) - 1; i >= 0; i-- {
		c := body[i]
		if c < '0' || c > '9' {
			return 0, false
		}

		sum += int(c-'0') * multiplier

		if multiplier == 7 {
			multiplier = 2
		} else {
			multiplier++
		}
	}

	switch check := 11 - sum%11; check {
	case 11:
		return '0', true
	case 10:
		return 'K', true
	default:
		return strconv.Itoa(check)[0], true
	}
}

// split returns body and check character of a cleaned, well-shaped RUT.
func split(input string) (string, byte, bool) {
	m := shape.FindStringSubmatch(Clean(input))
	if m == nil {
		return "", 0, false
	}

	return m[1], m[2][0], true
}

// Validate reports whether input is a well-formed RUT whose check character
// matches its body. Dots and whitespace are ignored and a lowercase k is accepted.
func Validate(input string) bool {
	body, check, ok := split(input)
	if !ok {
		return false
	}

	want, ok := CheckDigit(body)

	return ok && want == check
}

// Format renders a valid RUT as 12.345.678-5. Invalid input is returned unchanged.
func Format(input string) string {
	if !Validate(input) {
		return input
	}

	body, check, _ := split(input)

	return groupThousands(body) + "-" + string(check)
}

func groupThousands(digits string) string {
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}

	var b strings.Builder
	b.WriteString(digits[:head])

	for i := head; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}

	return b.String()
}
