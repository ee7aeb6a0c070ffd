// Package redact scans free text (call transcripts, agent notes) for PII and
// masks it in place. Detection is a linear single pass: email addresses are
// matched first, then candidate digit runs are classified as credit card,
// SSN or phone number. Credit cards must pass the Luhn checksum and SSNs the
// SSA structural rules before they are treated as PII.
package redact

import (
	"regexp"
	"sort"
	"strings"
)

// FindingType classifies a redacted span.
type FindingType string

const (
	FindingCreditCard FindingType = "credit_card"
	FindingSSN        FindingType = "ssn"
	FindingPhone      FindingType = "phone"
	FindingEmail      FindingType = "email"
)

// Finding describes one redacted span in the original text.
type Finding struct {
	Type  FindingType `json:"type"`
	Start int         `json:"start"`
	End   int         `json:"end"`
}

// Result holds the redacted text and what was found.
type Result struct {
	Text     string    `json:"text"`
	Findings []Finding `json:"findings"`
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	// digitRunPattern matches a maximal candidate span of digits with the
	// separators that appear inside card, SSN and phone formats.
	digitRunPattern = regexp.MustCompile(`\+?[\d(][\d() .-]*\d`)

	ssnFormatPattern = regexp.MustCompile(`^\d{3}[- ]\d{2}[- ]\d{4}$`)

	// phoneFormatPattern accepts NANP grouping: optional country code, then
	// 3-3-4 with a consistent separator or a parenthesized area code.
	phoneFormatPattern = regexp.MustCompile(`^(\+?1[-. ])?(\(\d{3}\)[-. ]?|\d{3}[-. ])\d{3}[-. ]\d{4}$`)
)

// span is an internal match before masking.
type span struct {
	start, end int
	ftype      FindingType
	masked     string
}

// Redact scans text and returns it with all detected PII masked.
func Redact(text string) Result {
	spans := findEmails(text)
	spans = append(spans, findDigitSpans(text, spans)...)

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var sb strings.Builder
	findings := make([]Finding, 0, len(spans))
	last := 0
	for _, s := range spans {
		if s.start < last {
			continue // overlap, earlier span wins
		}
		sb.WriteString(text[last:s.start])
		sb.WriteString(s.masked)
		findings = append(findings, Finding{Type: s.ftype, Start: s.start, End: s.end})
		last = s.end
	}
	sb.WriteString(text[last:])

	return Result{Text: sb.String(), Findings: findings}
}

// ContainsPII reports whether the text holds any detectable PII.
func ContainsPII(text string) bool {
	return len(Redact(text).Findings) > 0
}

func findEmails(text string) []span {
	var spans []span
	for _, loc := range emailPattern.FindAllStringIndex(text, -1) {
		match := text[loc[0]:loc[1]]
		spans = append(spans, span{
			start:  loc[0],
			end:    loc[1],
			ftype:  FindingEmail,
			masked: maskEmail(match),
		})
	}
	return spans
}

func findDigitSpans(text string, taken []span) []span {
	var spans []span
	for _, loc := range digitRunPattern.FindAllStringIndex(text, -1) {
		if overlapsAny(loc[0], loc[1], taken) {
			continue // digits inside an already-matched email
		}

		match := text[loc[0]:loc[1]]
		if s, ok := classifyRun(match, loc[0]); ok {
			spans = append(spans, s)
			continue
		}

		// A run may merge two adjacent numbers ("... 4567 or 555 ...").
		// Retry on whitespace-separated pieces before giving up.
		offset := loc[0]
		for _, piece := range splitRun(match) {
			if s, ok := classifyRun(piece.text, offset+piece.offset); ok {
				spans = append(spans, s)
			}
		}
	}
	return spans
}

type runPiece struct {
	text   string
	offset int
}

func splitRun(run string) []runPiece {
	var pieces []runPiece
	start := -1
	for i := 0; i <= len(run); i++ {
		if i < len(run) && run[i] != ' ' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			pieces = append(pieces, runPiece{text: run[start:i], offset: start})
			start = -1
		}
	}
	return pieces
}

// classifyRun decides what a candidate digit run is. Precedence: credit card
// (Luhn-confirmed) over SSN over phone, so a 16-digit card is never split
// into phone fragments.
func classifyRun(run string, start int) (span, bool) {
	digits := extractDigits(run)

	switch {
	case len(digits) >= 13 && len(digits) <= 19 && luhnValid(digits):
		return span{
			start:  start,
			end:    start + len(run),
			ftype:  FindingCreditCard,
			masked: maskDigits(run, 4),
		}, true

	case len(digits) == 9 && looksLikeSSN(run) && ssnStructurallyValid(digits):
		return span{
			start:  start,
			end:    start + len(run),
			ftype:  FindingSSN,
			masked: maskDigits(run, 0),
		}, true

	case isPhoneLength(digits) && looksLikePhone(run):
		return span{
			start:  start,
			end:    start + len(run),
			ftype:  FindingPhone,
			masked: maskDigits(run, 4),
		}, true
	}

	return span{}, false
}

func extractDigits(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// looksLikeSSN requires SSN grouping (ddd-dd-dddd) or a plain 9-digit run.
// A 9-digit run with phone-style grouping is left alone.
func looksLikeSSN(run string) bool {
	if ssnFormatPattern.MatchString(run) {
		return true
	}
	return len(run) == 9 && extractDigits(run) == run
}

// isPhoneLength accepts NANP numbers: 10 digits, or 11 with country code 1.
func isPhoneLength(digits string) bool {
	if len(digits) == 10 {
		return true
	}
	return len(digits) == 11 && digits[0] == '1'
}

// looksLikePhone requires phone-shaped grouping before a run is classified as
// a phone number. A bare digit run counts; an arbitrary separator mix, such as
// an ISO date with trailing digits, does not.
func looksLikePhone(run string) bool {
	if phoneFormatPattern.MatchString(run) {
		return true
	}
	digits := extractDigits(run)
	if run == digits {
		return true
	}
	return len(run) > 0 && run[0] == '+' && run[1:] == digits
}

// maskDigits replaces digits with '*', preserving separators and keeping the
// trailing keepLast digits visible.
func maskDigits(run string, keepLast int) string {
	total := len(extractDigits(run))
	out := []byte(run)
	seen := 0
	for i := 0; i < len(out); i++ {
		if out[i] >= '0' && out[i] <= '9' {
			seen++
			if seen <= total-keepLast {
				out[i] = '*'
			}
		}
	}
	return string(out)
}

// maskEmail hides the local part except its first character.
func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 1 {
		return "***" + email[at:]
	}
	return email[:1] + strings.Repeat("*", at-1) + email[at:]
}

func overlapsAny(start, end int, spans []span) bool {
	for _, s := range spans {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}
