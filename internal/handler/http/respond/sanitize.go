package respond

import (
	"regexp"
)

var (
	// Anthropic keys also match the OpenAI pattern, so they are masked first.
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)

	// Bearer tokens as echoed by some provider error bodies (Runware, DeepSeek).
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._\-]+`)

	// apiKey fields in JSON task payloads.
	apiKeyFieldPattern = regexp.MustCompile(`("apiKey"\s*:\s*")[^"]*(")`)

	// credentials embedded in a file: or URI style DSN
	dsnPasswordPattern = regexp.MustCompile(`://([^:/]+):([^@]+)@`)
)

// SanitizeError returns err's message with provider keys and DSN passwords
// masked. It is applied before any error text reaches a log line.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = bearerPattern.ReplaceAllString(msg, "Bearer ****")
	msg = apiKeyFieldPattern.ReplaceAllString(msg, "${1}****${2}")
	msg = dsnPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
