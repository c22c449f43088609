//go:build windows

package osutils

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

const firewallRuleName = "padlink pointer relay"

// IsAdmin checks if the current process has administrative privileges
func IsAdmin() bool {
	var token windows.Token
	h, _ := windows.GetCurrentProcess()
	if err := windows.OpenProcessToken(h, windows.TOKEN_QUERY, &token); err != nil {
		return false
	}
	defer token.Close()

	var sid *windows.SID
	err := windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	member, err := token.IsMember(sid)
	if err != nil {
		return false
	}
	return member
}

// EnsureFirewallRule makes sure an inbound TCP rule for port exists. When the
// process is not elevated the rule is created through a UAC prompt.
func EnsureFirewallRule(port int, logger *zap.Logger) error {
	logger = logger.With(zap.String("rule", firewallRuleName), zap.Int("port", port))

	out, err := exec.Command("netsh", "advfirewall", "firewall", "show", "rule", "name="+firewallRuleName).CombinedOutput()
	if err == nil && ruleMatches(string(out), port) {
		logger.Debug("firewall rule present")
		return nil
	}

	// No -Program restriction, so rebuilt binaries keep working
	script := fmt.Sprintf(
		"Remove-NetFirewallRule -DisplayName '%s' -ErrorAction SilentlyContinue; "+
			"New-NetFirewallRule -DisplayName '%s' -Direction Inbound -LocalPort %d -Protocol TCP -Action Allow -Profile Private,Domain",
		firewallRuleName, firewallRuleName, port,
	)

	if IsAdmin() {
		if out, err := exec.Command("powershell", "-NoProfile", "-Command", script).CombinedOutput(); err != nil {
			return fmt.Errorf("create firewall rule: %w (output: %s)", err, strings.TrimSpace(string(out)))
		}
		logger.Info("firewall rule created")
		return nil
	}

	verb, _ := syscall.UTF16PtrFromString("runas")
	exe, _ := syscall.UTF16PtrFromString("powershell.exe")
	args, _ := syscall.UTF16PtrFromString(fmt.Sprintf("-NoProfile -WindowStyle Hidden -Command \"%s\"", script))
	if err := windows.ShellExecute(0, verb, exe, args, nil, windows.SW_HIDE); err != nil {
		return fmt.Errorf("request elevation for firewall rule: %w", err)
	}
	logger.Info("firewall rule requested through UAC prompt")
	return nil
}

func ruleMatches(netshOutput string, port int) bool {
	return strings.Contains(netshOutput, firewallRuleName) &&
		strings.Contains(netshOutput, strconv.Itoa(port)) &&
		strings.Contains(netshOutput, "Allow")
}
