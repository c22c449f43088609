package autostart

import (
	"os"
	"path/filepath"
)

const launchAgentPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>` + appLabel + `</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{html .ExecutablePath}}</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>`

func plistPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "LaunchAgents", appLabel+".plist"), nil
}

func install(exe string) error {
	path, err := plistPath()
	if err != nil {
		return err
	}
	return writeTemplate(path, launchAgentPlist, exe)
}

func uninstall() error {
	path, err := plistPath()
	if err != nil {
		return err
	}
	return removeFile(path)
}

func installed() bool {
	path, err := plistPath()
	if err != nil {
		return false
	}
	return fileExists(path)
}
