package entity

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Configuration keys read from the system config store.
const (
	ConfigOpenRouterAPIKey = "openrouter_api_key"
	ConfigTeamsWebhook     = "teams_webhook"
	ConfigAgentQLAPIKey    = "agentql_api_key"
	// ConfigEnrichmentEnabled switches the enrichment job off when false.
	// An absent key means enabled.
	ConfigEnrichmentEnabled = "openrouter_job_enabled"
)

// SystemConfig is one key/value row of the configuration store.
// TeamCode is empty for global keys.
type SystemConfig struct {
	Key       string
	TeamCode  string
	Value     string
	Active    bool
	UpdatedAt time.Time
}

// ValidateConfigValue checks the format of known configuration keys.
// Unknown keys are accepted as-is.
func ValidateConfigValue(key, value string) error {
	switch key {
	case ConfigOpenRouterAPIKey:
		if !strings.HasPrefix(value, "sk-or-") {
			return &ValidationError{Field: key, Message: "OpenRouter API key must start with 'sk-or-'"}
		}
	case ConfigTeamsWebhook:
		u, err := url.Parse(value)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return &ValidationError{Field: key, Message: "webhook must be an https URL"}
		}
	case ConfigAgentQLAPIKey:
		if strings.TrimSpace(value) == "" {
			return &ValidationError{Field: key, Message: "API key must not be empty"}
		}
	case ConfigEnrichmentEnabled:
		if _, err := strconv.ParseBool(value); err != nil {
			return &ValidationError{Field: key, Message: "must be true or false"}
		}
	}
	return nil
}
