// Package secret masks credentials in error texts before they are logged or
// persisted to audit rows.
package secret

import "regexp"

var (
	// 具体的なパターンから先に適用する
	openRouterKeyPattern = regexp.MustCompile(`sk-or-[a-zA-Z0-9-_]+`)
	// Already-masked keys contain '*' and are left alone.
	genericKeyPattern = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)

	dsnPasswordPattern = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)

	// Teams (webhook.office.com / logic apps) and Slack incoming webhooks carry their token in the path.
	webhookPattern = regexp.MustCompile(`(https://[a-zA-Z0-9.-]*(?:webhook\.office\.com|logic\.azure\.com|hooks\.slack\.com))/[^\s"']+`)

	apiKeyParamPattern = regexp.MustCompile(`(?i)((?:api[_-]?key|token|sig)=)[^&\s"']+`)
)

// Mask returns s with API keys, DSN passwords and webhook tokens replaced.
func Mask(s string) string {
	s = openRouterKeyPattern.ReplaceAllString(s, "sk-or-****")
	s = genericKeyPattern.ReplaceAllString(s, "sk-****")
	s = dsnPasswordPattern.ReplaceAllString(s, "://$1:****@")
	s = webhookPattern.ReplaceAllString(s, "$1/****")
	s = apiKeyParamPattern.ReplaceAllString(s, "$1****")
	return s
}

// MaskError returns the masked error text, or "" for a nil error.
func MaskError(err error) string {
	if err == nil {
		return ""
	}
	return Mask(err.Error())
}
