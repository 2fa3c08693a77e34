package errors

import (
	"fmt"
	"strings"
)

// ConfigurationError is raised when configuration is invalid or missing
type ConfigurationError struct {
	*AppError
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{
		AppError: &AppError{
			Message:  message,
			ExitCode: ExitConfigError,
		},
	}
}

// MissingEnvVarError is raised when a required setting is not provided
type MissingEnvVarError struct {
	*AppError
}

// NewMissingEnvVarError creates a new missing environment variable error
func NewMissingEnvVarError(varName, description string) *MissingEnvVarError {
	return &MissingEnvVarError{
		AppError: &AppError{
			Message: fmt.Sprintf("Required environment variable '%s' is not set", varName),
			Context: &ErrorContext{
				Operation: "Loading configuration",
				Component: "Environment",
				Details: map[string]interface{}{
					"variable":    varName,
					"description": description,
				},
				Suggestions: []string{
					fmt.Sprintf("Export the variable: export %s='your-value'", varName),
					fmt.Sprintf("Add it to .mockshop/config.yaml as %s", convertEnvToYAMLKey(varName)),
					"Put it in a .env file next to the binary",
				},
			},
			ExitCode: ExitConfigError,
		},
	}
}

// convertEnvToYAMLKey converts an environment variable name to its dotted YAML key
// Example: MOCKSHOP_LLM_API_KEY -> llm.api_key
func convertEnvToYAMLKey(envVar string) string {
	parts := strings.Split(strings.ToLower(envVar), "_")
	if len(parts) > 0 && parts[0] == "mockshop" {
		parts = parts[1:]
	}
	if len(parts) < 2 {
		return strings.Join(parts, "_")
	}
	return parts[0] + "." + strings.Join(parts[1:], "_")
}

// InvalidEnvVarError is raised when a setting has an invalid value
type InvalidEnvVarError struct {
	*AppError
}

// NewInvalidEnvVarError creates a new invalid environment variable error
func NewInvalidEnvVarError(varName, value, reason string) *InvalidEnvVarError {
	return &InvalidEnvVarError{
		AppError: &AppError{
			Message: fmt.Sprintf("Environment variable '%s' has an invalid value", varName),
			Context: &ErrorContext{
				Operation: "Validating configuration",
				Component: "Environment",
				Details: map[string]interface{}{
					"variable": varName,
					"value":    value,
					"reason":   reason,
				},
				Suggestions: []string{
					fmt.Sprintf("Check the value of %s in your environment or .env file", varName),
				},
			},
			ExitCode: ExitConfigError,
		},
	}
}

// ConfigFileError is raised when a configuration file cannot be read or parsed
type ConfigFileError struct {
	*AppError
}

// NewConfigFileError creates a new config file error
func NewConfigFileError(filePath string, cause error) *ConfigFileError {
	return &ConfigFileError{
		AppError: &AppError{
			Message: fmt.Sprintf("Failed to load configuration file: %s", filePath),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Loading configuration",
				Component: "Config File",
				Details: map[string]interface{}{
					"file_path": filePath,
				},
				Suggestions: []string{
					"Check that the file exists and is readable",
					"Validate YAML syntax",
				},
			},
			ExitCode: ExitConfigError,
		},
	}
}
