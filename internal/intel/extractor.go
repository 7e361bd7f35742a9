package intel

import (
	"regexp"
	"strings"
)

// Extractor pulls structured intelligence out of free conversation text.
type Extractor interface {
	Extract(text string) map[Category][]string
}

var (
	upiPattern = regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9._-]+@(?:upi|ybl|ibl|axl|apl|paytm|airtel|freecharge|mobikwik|ok[a-z]{2,12})\b`)
	urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)
	// Shortener links are often pasted without a scheme.
	bareShortenerPattern = regexp.MustCompile(`(?i)\b(?:bit\.ly|tinyurl\.com|t\.co|rb\.gy|is\.gd|cutt\.ly)/[a-zA-Z0-9_-]+`)
	phonePattern         = regexp.MustCompile(`\+91[\s-]?[6-9]\d{9}\b|\b[6-9]\d{9}\b`)
	accountPattern       = regexp.MustCompile(`\b\d{9,18}\b`)
)

// extractionKeywords mirror the detector's vocabulary; hits are reported as
// the suspiciousKeywords category.
var extractionKeywords = []string{
	"urgent", "verify", "account", "blocked", "suspended", "kyc",
	"refund", "debit", "credit", "bank", "upi",
	"otp", "upi pin", "one time password",
}

// RegexExtractor is the production extractor. It applies UPI and phone
// patterns before the bare account-number pattern so a phone number is never
// double-reported as a bank account.
type RegexExtractor struct{}

func NewRegexExtractor() *RegexExtractor { return &RegexExtractor{} }

func (e *RegexExtractor) Extract(text string) map[Category][]string {
	out := map[Category][]string{}
	if strings.TrimSpace(text) == "" {
		return out
	}

	if upis := dedup(upiPattern.FindAllString(text, -1)); len(upis) > 0 {
		out[CategoryUPIIDs] = upis
	}

	links := urlPattern.FindAllString(text, -1)
	for i, l := range links {
		links[i] = strings.TrimRight(l, ".,;:!?)")
	}
	links = append(links, bareShortenerPattern.FindAllString(text, -1)...)
	if links = dedup(links); len(links) > 0 {
		out[CategoryPhishingLinks] = links
	}

	phones := dedup(phonePattern.FindAllString(text, -1))
	if len(phones) > 0 {
		out[CategoryPhoneNumbers] = phones
	}
	phoneDigits := make(map[string]struct{}, len(phones))
	for _, p := range phones {
		d := digitsOnly(p)
		phoneDigits[d] = struct{}{}
		// A +91 number also appears as its bare 10-digit form to the
		// account pattern.
		if len(d) > 10 {
			phoneDigits[d[len(d)-10:]] = struct{}{}
		}
	}

	var accounts []string
	for _, a := range accountPattern.FindAllString(text, -1) {
		if _, isPhone := phoneDigits[digitsOnly(a)]; isPhone {
			continue
		}
		accounts = append(accounts, a)
	}
	if accounts = dedup(accounts); len(accounts) > 0 {
		out[CategoryBankAccounts] = accounts
	}

	lower := strings.ToLower(text)
	var keywords []string
	for _, kw := range extractionKeywords {
		if strings.Contains(lower, kw) {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) > 0 {
		out[CategorySuspiciousKeywords] = keywords
	}

	return out
}

// StubExtractor returns a fixed result; a test double.
type StubExtractor struct {
	Result map[Category][]string
}

func (s *StubExtractor) Extract(string) map[Category][]string {
	out := make(map[Category][]string, len(s.Result))
	for c, vals := range s.Result {
		out[c] = append([]string(nil), vals...)
	}
	return out
}

func dedup(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
