package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/carolin-violet/violet-reminder/internal/config"
	"github.com/carolin-violet/violet-reminder/internal/geofence"
	"github.com/carolin-violet/violet-reminder/internal/logging"
	"github.com/carolin-violet/violet-reminder/internal/model"
	"github.com/carolin-violet/violet-reminder/internal/output"
	"github.com/carolin-violet/violet-reminder/internal/platform/local"
	"github.com/carolin-violet/violet-reminder/internal/platform/mqttfeed"
	"github.com/carolin-violet/violet-reminder/internal/runtime"
	"github.com/carolin-violet/violet-reminder/internal/scheduler"
	"github.com/carolin-violet/violet-reminder/internal/storage"
)

// stateSpec is how often the running daemon refreshes its state file.
const stateSpec = "@every 30s"

// Daemon manages the background daemon process.
type Daemon struct {
	rt        *runtime.Context
	pidFile   *PIDFile
	tasks     *geofence.TaskRegistry
	metrics   *Metrics
	health    *HealthChecker
	scheduler *scheduler.Scheduler
	feed      *mqttfeed.Feed
	connect   mqttfeed.Connector
	startedAt time.Time
	version   string
	debug     bool
}

// Status represents the daemon status.
type Status struct {
	Running   bool             `json:"running"`
	PID       int              `json:"pid,omitempty"`
	StartedAt time.Time        `json:"started_at,omitempty"`
	Uptime    string           `json:"uptime,omitempty"`
	Version   string           `json:"version,omitempty"`
	Broker    string           `json:"broker,omitempty"`
	NextJob   *time.Time       `json:"next_job,omitempty"`
	Health    *HealthStatus    `json:"health,omitempty"`
	Metrics   *MetricsSnapshot `json:"metrics,omitempty"`
}

// NewDaemon creates a daemon manager. rt may be nil when only the status,
// stop and background start operations are needed; those never open the
// database.
func NewDaemon(rt *runtime.Context) *Daemon {
	return &Daemon{
		rt:      rt,
		pidFile: NewPIDFile(),
		tasks:   geofence.DefaultRegistry,
		metrics: NewMetrics(),
		connect: mqttfeed.Connect,
	}
}

// SetDebug enables debug mode.
func (d *Daemon) SetDebug(debug bool) {
	d.debug = debug
}

// SetVersion sets the version reported in the state file.
func (d *Daemon) SetVersion(v string) {
	d.version = v
}

// GetStatus returns the current daemon status.
func (d *Daemon) GetStatus() *Status {
	status := &Status{}

	pid := d.pidFile.GetRunningPID()
	if pid == 0 {
		return status
	}
	status.Running = true
	status.PID = pid

	if state, err := readState(); err == nil {
		status.StartedAt = state.StartedAt
		status.Uptime = output.FormatDuration(time.Since(state.StartedAt))
		status.Version = state.Version
		status.Broker = state.Broker
		status.NextJob = state.NextJob
		status.Health = state.Health
		status.Metrics = state.Metrics
	}
	return status
}

// IsRunning returns true if the daemon is running.
func (d *Daemon) IsRunning() bool {
	return d.pidFile.IsRunning()
}

// Start runs the daemon in the foreground until a shutdown signal arrives
// or ctx is done.
func (d *Daemon) Start(ctx context.Context) error {
	if d.rt == nil {
		return errors.New("daemon start needs a runtime context")
	}
	if d.IsRunning() {
		return ErrAlreadyRunning
	}

	if err := d.pidFile.Write(); err != nil {
		return err
	}
	d.startedAt = time.Now()
	d.health = NewHealthChecker(d.version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := d.setup(ctx); err != nil {
		d.shutdown(ctx)
		return err
	}
	d.saveState()

	sigHandler := NewSignalHandler()
	sigHandler.Setup()
	defer sigHandler.Cleanup()

	logging.InfoContext(ctx, "daemon started", "pid", os.Getpid())

	if sig := sigHandler.Wait(ctx); sig != nil {
		logging.InfoContext(ctx, "received signal", "signal", sig.String())
	}

	d.shutdown(ctx)
	return nil
}

// setup binds the geofence task, connects the location feed and starts the
// scheduled jobs.
func (d *Daemon) setup(ctx context.Context) error {
	cfg := d.rt.Config

	d.rt.BindTasks(d.tasks)
	tracker := local.NewTracker(d.rt.Session, d.tasks)

	d.health.AddCheck("database", func() error {
		return d.rt.Session.Do(ctx, func(*storage.DB) error { return nil })
	})

	// Adopt whatever registration survived the last run.
	if err := d.reconcile(ctx); err != nil {
		logging.WarnContext(ctx, "initial reconcile failed", logging.KeyError, err)
	}

	if cfg.MQTT.Broker != "" {
		feed, err := mqttfeed.Dial(cfg.MQTT, d.handleFix(tracker), d.connect)
		if err != nil {
			return fmt.Errorf("failed to connect to broker: %w", err)
		}
		if err := feed.Start(ctx); err != nil {
			feed.Stop()
			return err
		}
		d.feed = feed
		d.health.AddCheck("mqtt", func() error {
			if !feed.IsConnected() {
				return errors.New("broker connection lost")
			}
			return nil
		})
	} else {
		logging.WarnContext(ctx, "no MQTT broker configured; location fixes will not be received")
	}

	d.scheduler = scheduler.NewScheduler(cfg.Scheduler)
	d.scheduler.SetDigestChecker(scheduler.NewDigestChecker(d.rt.Session, d.rt.Notifications()))
	d.scheduler.SetReconciler(scheduler.ReconcileFunc(d.reconcile))
	if err := d.scheduler.Start(ctx); err != nil {
		return err
	}
	if _, err := d.scheduler.AddJob(stateSpec, d.saveState); err != nil {
		return fmt.Errorf("failed to add state job: %w", err)
	}
	return nil
}

func (d *Daemon) shutdown(ctx context.Context) {
	if d.scheduler != nil {
		d.scheduler.Stop()
	}
	if d.feed != nil {
		d.feed.Stop()
	}
	if err := d.pidFile.Remove(); err != nil {
		logging.WarnContext(ctx, "failed to remove PID file", logging.KeyError, err)
	}
	removeState()
	logging.InfoContext(ctx, "daemon stopped")
}

// handleFix feeds one location fix to the tracker.
func (d *Daemon) handleFix(tracker *local.Tracker) mqttfeed.Handler {
	return func(ctx context.Context, fix model.LocationFix) error {
		transitions, err := tracker.Process(ctx, fix)
		if err != nil {
			d.metrics.RecordError("tracker", err)
			return err
		}
		d.metrics.RecordFix(len(transitions))
		return nil
	}
}

// reconcile re-reads the registration state of the geofence task.
func (d *Daemon) reconcile(ctx context.Context) error {
	d.metrics.RecordReconcile()
	st, err := d.rt.Geofence().Reconcile(ctx)
	if err != nil {
		d.metrics.RecordError("reconcile", err)
		return err
	}
	logging.DebugContext(ctx, "geofence reconciled", logging.KeyStatus, st.String())
	return nil
}

// StartBackground re-executes the binary as a detached foreground daemon
// with its output sent to the log file.
func (d *Daemon) StartBackground() (int, error) {
	if d.IsRunning() {
		return d.pidFile.GetRunningPID(), ErrAlreadyRunning
	}

	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	args := []string{"daemon", "start", "--foreground", "--no-input"}
	if d.debug {
		args = append(args, "--debug")
	}
	cmd := exec.Command(executable, args...)
	cmd.Stdin = nil

	logPath := GetLogPath()
	logFile, err := OpenLog(logPath, maxLogSize)
	if err != nil {
		return 0, err
	}
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}

	// Give the child time to write its PID.
	time.Sleep(config.Global.Daemon.StartupWait)

	if !d.pidFile.IsRunning() {
		if msg := LastLogError(logPath); msg != "" {
			return 0, fmt.Errorf("daemon failed to start: %s", msg)
		}
		return 0, fmt.Errorf("daemon failed to start (check logs: %s)", logPath)
	}
	return cmd.Process.Pid, nil
}

// Stop stops the running daemon, killing it after the configured timeout.
func (d *Daemon) Stop() error {
	pid := d.pidFile.GetRunningPID()
	if pid == 0 {
		return ErrNotRunning
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	if err := process.Signal(os.Interrupt); err != nil {
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to stop daemon: %w", err)
		}
	}

	deadline := time.Now().Add(config.Global.Daemon.KillTimeout)
	for IsProcessRunning(pid) {
		if time.Now().After(deadline) {
			process.Kill()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	d.pidFile.Remove()
	removeState()
	return nil
}

// DaemonState is what the running daemon publishes about itself.
type DaemonState struct {
	PID       int              `json:"pid"`
	StartedAt time.Time        `json:"started_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Version   string           `json:"version,omitempty"`
	Broker    string           `json:"broker,omitempty"`
	NextJob   *time.Time       `json:"next_job,omitempty"`
	Health    *HealthStatus    `json:"health,omitempty"`
	Metrics   *MetricsSnapshot `json:"metrics,omitempty"`
}

func getStatePath() string {
	return filepath.Join(stateDir, "daemon.json")
}

// saveState writes the current state file. Failures are logged.
func (d *Daemon) saveState() {
	snap := d.metrics.Snapshot()
	state := &DaemonState{
		PID:       os.Getpid(),
		StartedAt: d.startedAt,
		UpdatedAt: time.Now(),
		Version:   d.version,
		Metrics:   &snap,
	}
	if d.health != nil {
		state.Health = d.health.Check()
	}
	if d.scheduler != nil {
		if next := d.scheduler.NextRun(); !next.IsZero() {
			state.NextJob = &next
		}
	}
	if d.rt != nil && d.rt.Config.MQTT.Broker != "" {
		state.Broker = logging.MaskURL(d.rt.Config.MQTT.Broker)
	}
	if err := writeState(state); err != nil {
		logging.Warn("failed to write daemon state", logging.KeyError, err)
	}
}

func writeState(state *DaemonState) error {
	path := getStatePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readState() (*DaemonState, error) {
	data, err := os.ReadFile(getStatePath())
	if err != nil {
		return nil, err
	}
	var state DaemonState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func removeState() {
	if err := os.Remove(getStatePath()); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove daemon state file", logging.KeyError, err, "path", getStatePath())
	}
}
