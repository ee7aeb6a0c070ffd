package redact

// luhnValid reports whether a digit string passes the Luhn checksum.
// Used to confirm credit-card candidates and cut false positives from
// arbitrary digit runs (order IDs, timestamps).
func luhnValid(digits string) bool {
	if len(digits) == 0 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ssnStructurallyValid applies the SSA issuance rules to a 9-digit string:
// area 000, 666 and 900-999 are never issued, group 00 and serial 0000 are
// invalid. Reduces false positives on arbitrary 9-digit runs.
func ssnStructurallyValid(digits string) bool {
	if len(digits) != 9 {
		return false
	}
	area := digits[0:3]
	group := digits[3:5]
	serial := digits[5:9]

	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	if group == "00" {
		return false
	}
	if serial == "0000" {
		return false
	}
	return true
}
