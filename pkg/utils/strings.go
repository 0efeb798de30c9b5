package utils

import (
	"regexp"
	"strings"
)

func ContainsString(slice []string, searchTerm string) bool {
	for _, s := range slice {
		if searchTerm == s {
			return true
		}
	}
	return false
}

var envVarNameRegexp = regexp.MustCompile(`[^A-Z0-9]+`)

// GenerateEnvVarName generates a standardized environment variable name from a
// given string. It converts the input to uppercase and replaces any
// non-alphanumeric characters with underscores.
func GenerateEnvVarName(input string) string {
	normalized := strings.ToUpper(input)
	normalized = envVarNameRegexp.ReplaceAllString(normalized, "_")
	return strings.Trim(normalized, "_")
}

// GenerateGatewayKeyEnvVarName generates the environment variable name that
// can override the SMS gateway key of a shop instance.
// Format: SMS_GATEWAY_KEY_FOR_{NORMALIZED_INSTANCE_ID}
func GenerateGatewayKeyEnvVarName(instanceID string) string {
	return "SMS_GATEWAY_KEY_FOR_" + GenerateEnvVarName(instanceID)
}
