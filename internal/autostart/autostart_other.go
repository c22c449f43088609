//go:build !darwin && !linux && !windows

package autostart

import (
	"fmt"
	"runtime"
)

func install(string) error {
	return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
}

func uninstall() error {
	return nil
}

func installed() bool {
	return false
}
