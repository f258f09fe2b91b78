package transport

import "regexp"

// Mask replaces the value part of credential-shaped substrings.
const Mask = "[REDACTED]"

var secretPatterns = []*regexp.Regexp{
	// key=value / key: value pairs with credential-shaped names.
	regexp.MustCompile(`(?i)((?:api[_-]?key|access[_-]?key|auth[_-]?token|token|secret|password|passwd|credentials?)\s*[=:]\s*)["']?[^\s"']+["']?`),
	// Environment-variable-shaped assignments (DB_PASSWORD=..., MY_API_KEY=...).
	regexp.MustCompile(`\b([A-Z0-9_]*(?:KEY|TOKEN|SECRET|PASSWORD|PASSWD)[A-Z0-9_]*\s*=\s*)\S+`),
	// Bearer tokens in echoed headers.
	regexp.MustCompile(`(?i)\b(bearer\s+)[A-Za-z0-9._~+/-]+=*`),
}

// AWS-style access key identifiers have no surrounding syntax to anchor on,
// so the whole token is masked.
var awsKeyPattern = regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)

// Redact masks credential-shaped substrings in s. Applied to both output
// streams and every error message before anything leaves the client.
func Redact(s string) string {
	if s == "" {
		return s
	}
	for _, pattern := range secretPatterns {
		s = pattern.ReplaceAllString(s, "${1}"+Mask)
	}
	return awsKeyPattern.ReplaceAllString(s, Mask)
}

// Truncate cuts s to at most limit bytes and reports whether anything was
// dropped. The cut is byte-exact; flagging beats silently losing data.
func Truncate(s string, limit int) (string, bool) {
	if limit <= 0 || len(s) <= limit {
		return s, false
	}
	return s[:limit], true
}
