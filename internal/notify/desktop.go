package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Desktop shows a native notification through the platform's command line
// tool: notify-send, osascript or PowerShell.
type Desktop struct {
	Bell bool

	goos     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
	bell     io.Writer
}

func NewDesktop(bell bool) *Desktop {
	return &Desktop{
		Bell:     bell,
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
		bell: os.Stderr,
	}
}

func (d *Desktop) Notify(ctx context.Context, m Message) error {
	if d.Bell && d.bell != nil {
		fmt.Fprint(d.bell, "\a")
	}
	name, args := command(d.goos, m)
	if name == "" {
		return nil
	}
	if _, err := d.lookPath(name); err != nil {
		return nil
	}
	if err := d.run(ctx, name, args...); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func command(goos string, m Message) (string, []string) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		args := []string{"--app-name=recur"}
		if m.Icon != "" {
			args = append(args, "--icon="+m.Icon)
		}
		return "notify-send", append(args, m.Title, m.Body)
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", appleQuote(m.Body), appleQuote(m.Title))
		return "osascript", []string{"-e", script}
	case "windows":
		script := fmt.Sprintf(
			"[System.Reflection.Assembly]::LoadWithPartialName('System.Windows.Forms') | Out-Null; "+
				"$n = New-Object System.Windows.Forms.NotifyIcon; $n.Icon = [System.Drawing.SystemIcons]::Information; "+
				"$n.Visible = $true; $n.ShowBalloonTip(10000, %s, %s, 'Info')",
			psQuote(m.Title), psQuote(m.Body))
		return "powershell", []string{"-NoProfile", "-Command", script}
	}
	return "", nil
}

func appleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
