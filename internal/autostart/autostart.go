// Package autostart registers the relay to start when the user logs in.
package autostart

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

const (
	appName  = "padlink"
	appLabel = "com.padlink.relay"
)

// Enable registers the current executable to start on login
func Enable() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return install(exe)
}

// Disable removes the login entry. Removing a missing entry is not an error.
func Disable() error {
	return uninstall()
}

// IsEnabled checks if a login entry exists
func IsEnabled() bool {
	return installed()
}

// Apply enables or disables the login entry to match want
func Apply(want bool) error {
	if want == IsEnabled() {
		return nil
	}
	if want {
		return Enable()
	}
	return Disable()
}

func writeTemplate(path, text, exe string) error {
	tmpl, err := template.New(filepath.Base(path)).Parse(text)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(f, struct{ ExecutablePath string }{exe}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
