package daemon

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"text/template"

	"github.com/adrg/xdg"

	"github.com/carolin-violet/violet-reminder/internal/logging"
)

const (
	launchdLabel = "dev.violet.daemon"
	systemdUnit  = "violet.service"
)

// ServiceManager installs the daemon as a per-user system service.
type ServiceManager struct {
	executablePath string
	environ        func() []string
	goos           string
}

// NewServiceManager creates a new service manager.
func NewServiceManager() (*ServiceManager, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	return &ServiceManager{
		executablePath: execPath,
		environ:        os.Environ,
		goos:           runtime.GOOS,
	}, nil
}

// serviceData is rendered into the unit templates.
type serviceData struct {
	Label          string
	ExecutablePath string
	LogPath        string
	HomeDirectory  string
	DataHome       string
	StateHome      string
	// Env holds the VIOLET_* variables present at install time, so the
	// service sees the same broker and schedule settings.
	Env [][2]string
}

func (m *ServiceManager) data() serviceData {
	var env [][2]string
	for _, kv := range m.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, "VIOLET_") {
			continue
		}
		env = append(env, [2]string{name, value})
	}
	sort.Slice(env, func(i, j int) bool { return env[i][0] < env[j][0] })

	return serviceData{
		Label:          launchdLabel,
		ExecutablePath: m.executablePath,
		LogPath:        GetLogPath(),
		HomeDirectory:  os.Getenv("HOME"),
		DataHome:       xdg.DataHome,
		StateHome:      xdg.StateHome,
		Env:            env,
	}
}

// Install installs the daemon as a system service.
func (m *ServiceManager) Install() error {
	switch m.goos {
	case "darwin":
		return m.installLaunchd()
	case "linux":
		return m.installSystemd()
	default:
		return fmt.Errorf("unsupported operating system: %s", m.goos)
	}
}

// Uninstall removes the daemon from system services.
func (m *ServiceManager) Uninstall() error {
	switch m.goos {
	case "darwin":
		return m.uninstallLaunchd()
	case "linux":
		return m.uninstallSystemd()
	default:
		return fmt.Errorf("unsupported operating system: %s", m.goos)
	}
}

// IsInstalled checks if the service is installed.
func (m *ServiceManager) IsInstalled() bool {
	var path string
	switch m.goos {
	case "darwin":
		path = m.launchdPath()
	case "linux":
		path = m.systemdPath()
	default:
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

var launchdTemplate = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
        <string>daemon</string>
        <string>start</string>
        <string>--foreground</string>
        <string>--no-input</string>
    </array>
{{- if .Env}}
    <key>EnvironmentVariables</key>
    <dict>
{{- range .Env}}
        <key>{{index . 0}}</key>
        <string>{{index . 1}}</string>
{{- end}}
    </dict>
{{- end}}
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>{{.LogPath}}</string>
    <key>StandardErrorPath</key>
    <string>{{.LogPath}}</string>
</dict>
</plist>
`))

var systemdTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=violet punch reminder daemon
After=network-online.target

[Service]
Type=simple
ExecStart={{.ExecutablePath}} daemon start --foreground --no-input
Restart=on-failure
RestartSec=5
StandardOutput=append:{{.LogPath}}
StandardError=append:{{.LogPath}}
Environment="HOME={{.HomeDirectory}}"
Environment="XDG_DATA_HOME={{.DataHome}}"
Environment="XDG_STATE_HOME={{.StateHome}}"
{{- range .Env}}
Environment="{{index . 0}}={{index . 1}}"
{{- end}}

[Install]
WantedBy=default.target
`))

// render writes the unit for the current platform to w.
func (m *ServiceManager) render(w io.Writer, tmpl *template.Template) error {
	return tmpl.Execute(w, m.data())
}

func writeUnit(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()
	if err := fn(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func run(name string, args ...string) error {
	if out, err := exec.Command(name, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (m *ServiceManager) launchdPath() string {
	return filepath.Join(os.Getenv("HOME"), "Library", "LaunchAgents", launchdLabel+".plist")
}

func (m *ServiceManager) installLaunchd() error {
	path := m.launchdPath()
	if err := writeUnit(path, func(w io.Writer) error { return m.render(w, launchdTemplate) }); err != nil {
		return err
	}
	if err := run("launchctl", "load", path); err != nil {
		return err
	}
	logging.DebugLog("installed launchd service", "path", path)
	return nil
}

func (m *ServiceManager) uninstallLaunchd() error {
	path := m.launchdPath()
	// Not loaded is fine.
	_ = run("launchctl", "unload", path)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove plist file: %w", err)
	}
	logging.DebugLog("uninstalled launchd service", "path", path)
	return nil
}

func (m *ServiceManager) systemdPath() string {
	return filepath.Join(xdg.ConfigHome, "systemd", "user", systemdUnit)
}

func (m *ServiceManager) installSystemd() error {
	path := m.systemdPath()
	if err := writeUnit(path, func(w io.Writer) error { return m.render(w, systemdTemplate) }); err != nil {
		return err
	}
	for _, args := range [][]string{
		{"--user", "daemon-reload"},
		{"--user", "enable", systemdUnit},
		{"--user", "start", systemdUnit},
	} {
		if err := run("systemctl", args...); err != nil {
			return err
		}
	}
	logging.DebugLog("installed systemd user service", "path", path)
	return nil
}

func (m *ServiceManager) uninstallSystemd() error {
	path := m.systemdPath()
	_ = run("systemctl", "--user", "stop", systemdUnit)
	_ = run("systemctl", "--user", "disable", systemdUnit)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove unit file: %w", err)
	}
	_ = run("systemctl", "--user", "daemon-reload")
	logging.DebugLog("uninstalled systemd user service", "path", path)
	return nil
}
