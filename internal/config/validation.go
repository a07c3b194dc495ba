package config

import "fmt"

// ValidateConfig performs comprehensive validation on the complete configuration.
func ValidateConfig(cfg *Config) error {
	if err := validateServerConfig(&cfg.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := validatePorts(cfg.Ports); err != nil {
		return fmt.Errorf("port config validation failed: %w", err)
	}

	if _, err := cfg.EngineParams(); err != nil {
		return fmt.Errorf("engine config validation failed: %w", err)
	}

	if cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	return nil
}

// validateServerConfig validates the server configuration.
func validateServerConfig(server *ServerConfig) error {
	if len(server.Ports) == 0 {
		return fmt.Errorf("at least one port must be specified in server.ports")
	}

	if server.Port != 0 && (server.Port < 1 || server.Port > 65535) {
		return fmt.Errorf("server default port must be between 1 and 65535, got %d", server.Port)
	}

	return nil
}

// validatePorts validates all port configurations.
func validatePorts(ports map[string]PortConfig) error {
	if len(ports) == 0 {
		return fmt.Errorf("no ports configured")
	}

	usedPorts := make(map[string]string)

	for portName, portConfig := range ports {
		if err := portConfig.Validate(); err != nil {
			return fmt.Errorf("port %s validation failed: %w", portName, err)
		}

		portKey := fmt.Sprintf("%s:%d", portConfig.IP, portConfig.Port)
		if existingPort, exists := usedPorts[portKey]; exists {
			return fmt.Errorf("port conflict: both %s and %s are trying to use %s", existingPort, portName, portKey)
		}
		usedPorts[portKey] = portName
	}

	return nil
}

// ValidateConfigPaths validates that configuration file paths are accessible.
func ValidateConfigPaths(paths ConfigPaths) error {
	if paths.Main == "" {
		return fmt.Errorf("main config path cannot be empty")
	}
	return nil
}
