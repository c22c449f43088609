package autostart

import (
	"os"
	"path/filepath"
)

const desktopEntry = `[Desktop Entry]
Type=Application
Name=` + appName + `
Comment=LAN remote pointer relay
Exec="{{.ExecutablePath}}"
Terminal=false
X-GNOME-Autostart-enabled=true
`

// desktopPath follows the XDG autostart location, honouring XDG_CONFIG_HOME
func desktopPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "autostart", appName+".desktop"), nil
}

func install(exe string) error {
	path, err := desktopPath()
	if err != nil {
		return err
	}
	return writeTemplate(path, desktopEntry, exe)
}

func uninstall() error {
	path, err := desktopPath()
	if err != nil {
		return err
	}
	return removeFile(path)
}

func installed() bool {
	path, err := desktopPath()
	if err != nil {
		return false
	}
	return fileExists(path)
}
