package ignore

// sensitivePatterns are excluded from every export regardless of the
// project's own ignore files or user overrides (spec I-7 hard floor).
var sensitivePatterns = []string{
	"*.env",
	".env*",
	"*.key",
	"*.pem",
	"id_rsa*",
	"*.pfx",
	"secrets.*",
	"credentials.*",
}

// NewSensitiveMatcher returns a Matcher preloaded with sensitivePatterns.
// Callers OR this against the user's own ignore matcher — a file already
// accepted by the user's rules can still be dropped by this one, but never
// the reverse.
func NewSensitiveMatcher() *Matcher {
	m := New()
	for _, p := range sensitivePatterns {
		m.AddPattern(p)
	}
	return m
}
