package core

// FormatUint renders v in decimal with no leading zeros; zero renders as
// "0". It avoids fmt and strconv so the MCU build stays small.
func FormatUint(v uint32) string {
	// 4294967295 is ten digits.
	var buf [10]byte
	pos := len(buf)
	for {
		pos--
		buf[pos] = byte('0' + v%10)
		v /= 10
		if v == 0 {
			break
		}
	}
	return string(buf[pos:])
}

// itoa converts an integer to a string without using fmt package
func itoa(n int) string {
	if n < 0 {
		return "-" + FormatUint(uint32(-n))
	}
	return FormatUint(uint32(n))
}

// isDigit reports whether key is one of the keypad digits 0-9.
func isDigit(key byte) bool {
	return key >= '0' && key <= '9'
}

// accumulate appends a decimal digit to v, wrapping at the uint32 width.
func accumulate(v uint32, digit byte) uint32 {
	return v*10 + uint32(digit-'0')
}
