package model

import "regexp"

// bareNumber matches text that is nothing but a (possibly signed and
// punctuated) number: digits with optional thousand separators and an
// optional decimal part. It deliberately accepts both 1.234,56 and 1,234.56
// style grouping.
var bareNumber = regexp.MustCompile(`^[+-]?\d{1,3}(?:[.,\x{00A0} ]\d{3})*(?:[.,]\d+)?$|^[+-]?\d+(?:[.,]\d+)?$`)

// hasDigit matches any decimal digit
var hasDigit = regexp.MustCompile(`\d`)

// IsBareNumber reports whether text is a plain punctuated number with no
// surrounding unit or currency symbols.
func IsBareNumber(text string) bool {
	return bareNumber.MatchString(text)
}

// HasDigit reports whether text contains any decimal digit
func HasDigit(text string) bool {
	return hasDigit.MatchString(text)
}
