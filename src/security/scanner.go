package security

const (
	// DefaultMaxScanChars is the fixed-cost scan ceiling: only the first
	// 10,000 normalized characters are tested, so adversarially long
	// payloads cannot cause unbounded scan time.
	DefaultMaxScanChars = 10000

	// DefaultMaxFlags caps the flags collected per message, bounding
	// worst-case output on inputs stuffed with trigger phrases.
	DefaultMaxFlags = 5
)

// Flag is a single detected match of text against an injection signature.
// Flags are returned to the caller and optionally handed to the activity
// log; they are never persisted by the pipeline itself.
type Flag struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Matched  string `json:"matched_text"`
}

// Scanner tests text against an ordered rule catalog. It is stateless and
// safe for concurrent use; Scan performs no I/O and is deterministic.
type Scanner struct {
	rules    []Rule
	maxChars int
	maxFlags int
}

// NewScanner creates a Scanner over the given rules. Non-positive limits
// fall back to the defaults.
func NewScanner(rules []Rule, maxChars, maxFlags int) *Scanner {
	if maxChars <= 0 {
		maxChars = DefaultMaxScanChars
	}
	if maxFlags <= 0 {
		maxFlags = DefaultMaxFlags
	}
	return &Scanner{rules: rules, maxChars: maxChars, maxFlags: maxFlags}
}

// Scan normalizes text and returns at most maxFlags flags in catalog order,
// one per matching rule. The normalized copy exists only for matching; the
// caller's text is untouched.
func (s *Scanner) Scan(text string) []Flag {
	if text == "" || len(s.rules) == 0 {
		return nil
	}

	subject := truncateRunes(Normalize(text), s.maxChars)

	var flags []Flag
	for _, rule := range s.rules {
		match := rule.re.FindString(subject)
		if match == "" {
			continue
		}
		flags = append(flags, Flag{
			Category: rule.Category,
			Label:    rule.Label,
			Matched:  match,
		})
		if len(flags) >= s.maxFlags {
			break
		}
	}
	return flags
}
