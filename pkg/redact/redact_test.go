package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLuhnValid(t *testing.T) {
	tests := []struct {
		name   string
		digits string
		valid  bool
	}{
		{"classic visa test number", "4111111111111111", true},
		{"mastercard test number", "5500005555555559", true},
		{"amex test number", "378282246310005", true},
		{"off by one digit", "4111111111111112", false},
		{"arbitrary digit run", "1234567890123456", false},
		{"empty", "", false},
		{"non-digit", "4111a11111111111", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, luhnValid(tc.digits))
		})
	}
}

func TestSSNStructurallyValid(t *testing.T) {
	tests := []struct {
		name   string
		digits string
		valid  bool
	}{
		{"typical SSN", "123456789", true},
		{"area 000", "000456789", false},
		{"area 666", "666456789", false},
		{"area 900 range", "923456789", false},
		{"group 00", "123006789", false},
		{"serial 0000", "123450000", false},
		{"too short", "12345678", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, ssnStructurallyValid(tc.digits))
		})
	}
}

func TestRedactCreditCard(t *testing.T) {
	res := Redact("charge card 4111 1111 1111 1111 please")

	assert.Equal(t, "charge card **** **** **** 1111 please", res.Text)
	assert.Len(t, res.Findings, 1)
	assert.Equal(t, FindingCreditCard, res.Findings[0].Type)
}

func TestRedactCreditCardWithDashes(t *testing.T) {
	res := Redact("card: 4111-1111-1111-1111")

	assert.Equal(t, "card: ****-****-****-1111", res.Text)
	assert.Len(t, res.Findings, 1)
	assert.Equal(t, FindingCreditCard, res.Findings[0].Type)
}

func TestRedactLuhnRejectsPlainNumbers(t *testing.T) {
	// 16 digits that fail Luhn must not be treated as a card. The run is
	// also not a phone, so it stays untouched.
	res := Redact("order ref 1234567890123456 confirmed")

	assert.Equal(t, "order ref 1234567890123456 confirmed", res.Text)
	assert.Empty(t, res.Findings)
}

func TestRedactSSN(t *testing.T) {
	res := Redact("my social is 123-45-6789 ok")

	assert.Equal(t, "my social is ***-**-**** ok", res.Text)
	assert.Len(t, res.Findings, 1)
	assert.Equal(t, FindingSSN, res.Findings[0].Type)
}

func TestRedactSSNInvalidAreaKept(t *testing.T) {
	// Area 666 is never issued; the structural check must reject it.
	res := Redact("code 666-45-6789 here")

	assert.Empty(t, res.Findings)
	assert.Equal(t, "code 666-45-6789 here", res.Text)
}

func TestRedactPhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"dashed", "call me at 555-123-4567 today", "call me at ***-***-4567 today"},
		{"parenthesized", "dial (555) 123-4567", "dial (***) ***-4567"},
		{"country code", "reach +1 555 123 4567 anytime", "reach +* *** *** 4567 anytime"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Redact(tc.in)
			assert.Equal(t, tc.out, res.Text)
			assert.Len(t, res.Findings, 1)
			assert.Equal(t, FindingPhone, res.Findings[0].Type)
		})
	}
}

func TestRedactLeavesDatesAlone(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"iso date with trailing digits", "callback scheduled 2026-08-25 10 in the morning"},
		{"iso date alone", "the invoice is dated 2026-08-25"},
		{"date range", "between 2026-01-02 and 2026-01-09 please"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Redact(tc.in)
			assert.Equal(t, tc.in, res.Text)
			assert.Empty(t, res.Findings)
		})
	}
}

func TestRedactPhoneRequiresGrouping(t *testing.T) {
	// 10 digits with non-phone separators must not be masked; a bare 10
	// digit run still is.
	res := Redact("ref 20-2608-2510 noted")
	assert.Empty(t, res.Findings)

	res = Redact("call 5551234567 now")
	assert.Len(t, res.Findings, 1)
	assert.Equal(t, FindingPhone, res.Findings[0].Type)
	assert.Equal(t, "call ******4567 now", res.Text)
}

func TestRedactPhoneKeepsLastFour(t *testing.T) {
	res := Redact("call 555-123-4567")
	assert.Equal(t, "call ***-***-4567", res.Text)
}

func TestRedactEmail(t *testing.T) {
	res := Redact("send it to john.doe@example.com thanks")

	assert.Equal(t, "send it to j*******@example.com thanks", res.Text)
	assert.Len(t, res.Findings, 1)
	assert.Equal(t, FindingEmail, res.Findings[0].Type)
}

func TestRedactMultipleFindings(t *testing.T) {
	res := Redact("card 4111111111111111, ssn 123-45-6789, mail a@b.io")

	assert.Len(t, res.Findings, 3)
	types := map[FindingType]bool{}
	for _, f := range res.Findings {
		types[f.Type] = true
	}
	assert.True(t, types[FindingCreditCard])
	assert.True(t, types[FindingSSN])
	assert.True(t, types[FindingEmail])
}

func TestRedactCardPrecedenceOverPhone(t *testing.T) {
	// A Luhn-valid 16 digit run must be one card finding, never phone
	// fragments.
	res := Redact("4111111111111111")

	assert.Len(t, res.Findings, 1)
	assert.Equal(t, FindingCreditCard, res.Findings[0].Type)
}

func TestRedactCleanText(t *testing.T) {
	res := Redact("the customer asked about opening hours on Tuesday")

	assert.Equal(t, "the customer asked about opening hours on Tuesday", res.Text)
	assert.Empty(t, res.Findings)
}

func TestRedactAdjacentNumbers(t *testing.T) {
	// Two phones joined by a single space merge into one digit run; the
	// splitter must still find both.
	res := Redact("555-123-4567 555-987-6543")

	assert.Len(t, res.Findings, 2)
	for _, f := range res.Findings {
		assert.Equal(t, FindingPhone, f.Type)
	}
}

func TestContainsPII(t *testing.T) {
	assert.True(t, ContainsPII("ssn 123-45-6789"))
	assert.False(t, ContainsPII("no secrets here"))
}
