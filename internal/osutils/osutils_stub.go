//go:build !windows

package osutils

import "go.uber.org/zap"

// IsAdmin reports false outside Windows
func IsAdmin() bool {
	return false
}

// EnsureFirewallRule does nothing outside Windows
func EnsureFirewallRule(port int, logger *zap.Logger) error {
	logger.Debug("firewall rule management is only supported on Windows", zap.Int("port", port))
	return nil
}
