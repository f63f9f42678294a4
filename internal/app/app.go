package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rbright/cakemic/internal/audio"
	"github.com/rbright/cakemic/internal/blow"
	"github.com/rbright/cakemic/internal/cli"
	"github.com/rbright/cakemic/internal/config"
	"github.com/rbright/cakemic/internal/doctor"
	"github.com/rbright/cakemic/internal/indicator"
	"github.com/rbright/cakemic/internal/ipc"
	"github.com/rbright/cakemic/internal/logging"
	"github.com/rbright/cakemic/internal/melody"
	"github.com/rbright/cakemic/internal/party"
	"github.com/rbright/cakemic/internal/tui"
	"github.com/rbright/cakemic/internal/version"
	"golang.org/x/term"
)

const (
	binaryName     = "cakemic"
	forwardTimeout = 220 * time.Millisecond
	probeTimeout   = 180 * time.Millisecond
)

// Runner executes one CLI invocation against the given output streams.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	// Headless forces the party command to skip the terminal UI.
	Headless bool
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandReplay:
		return r.commandReplay(ctx, cfgLoaded.Config, parsed.Arg)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandParty:
		dumpDir := filepath.Dir(logRuntime.Path)
		headless := parsed.Headless || r.Headless || !interactive(r.Stdout)
		return r.commandParty(ctx, cfgLoaded, headless, dumpDir, logger)
	case cli.CommandExtinguish:
		index := parsed.Index
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandExtinguish, Index: &index})
	case cli.CommandBlow, cli.CommandRelight, cli.CommandDismiss,
		cli.CommandMic, cli.CommandCandles, cli.CommandMessage, cli.CommandFlower:
		return r.forwardOrFail(ctx, ipc.Request{Command: string(parsed.Command), Value: parsed.Arg})
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

// commandReplay runs the configured detector over a WAV recording.
func (r Runner) commandReplay(ctx context.Context, cfg config.Config, path string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer f.Close()

	sampler := audio.NewReaderSampler(f, audio.ReaderOptions{Frames: audio.FramesFromConfig(cfg.Analyzer)})
	samples, err := sampler.Start(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: replay %s: %v\n", path, err)
		return 1
	}
	defer func() { _ = sampler.Stop() }()

	detector := blow.NewDetector(blow.Tuning{
		Threshold: cfg.Detector.Threshold,
		Cooldown:  cfg.Detector.Cooldown(),
	})

	var events int
	for sample := range samples {
		if !detector.Observe(sample) {
			continue
		}
		events++
		fmt.Fprintf(r.Stdout, "blow at %s (level %.0f)\n", sample.At.Round(time.Millisecond), sample.Level)
	}
	if err := sampler.Err(); err != nil {
		fmt.Fprintf(r.Stderr, "error: replay %s: %v\n", path, err)
		return 1
	}
	if events == 0 {
		fmt.Fprintln(r.Stdout, "no blows detected")
	}
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: ipc.CommandStatus})
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			fmt.Fprintln(r.Stdout, "idle")
			return 0
		}
		fmt.Fprintln(r.Stdout, summarize(resp))
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, req)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active cakemic party\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// commandParty owns the control socket and runs the party until ctx ends or
// the terminal UI quits.
func (r Runner) commandParty(ctx context.Context, loaded config.Loaded, headless bool, dumpDir string, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	cfg := loaded.Config
	indicatorCtl := indicator.New(cfg.Indicator, logger)

	owner, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{
		ProbeTimeout: probeTimeout,
		Retries:      8,
		Rescue:       indicatorCtl.Hide,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = owner.Close() }()

	var current atomic.Pointer[config.Config]
	current.Store(&cfg)

	var player melody.Player = melody.Nop{}
	if cfg.Melody.Enable {
		player = melody.NewPulsePlayer(logger, cfg.Melody.File)
	}

	ctrl, err := party.New(party.Options{
		Logger:    logger,
		Config:    cfg,
		Open:      pulseOpener(&current, dumpDir, logger),
		Melody:    player,
		Indicator: indicatorCtl,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	partyCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- ctrl.Run(partyCtx)
	}()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(partyCtx, owner, ctrl)
	}()

	if watcher, err := config.NewWatcher(loaded.Path, logger, func(next config.Loaded) {
		current.Store(&next.Config)
		ctrl.Retune(next)
	}); err != nil {
		logger.Warn("config watch unavailable", "error", err.Error())
	} else if err := watcher.Start(partyCtx); err != nil {
		logger.Warn("config watch unavailable", "error", err.Error())
	} else {
		defer watcher.Stop()
	}

	snap := ctrl.Snapshot()
	logger.Info("party started",
		"party_id", snap.PartyID,
		"candles", snap.Total,
		"variant", snap.Variant,
		"headless", headless,
	)

	var uiErr error
	if headless {
		fmt.Fprintf(r.Stdout, "party running with %d candles; control it with %s <command>\n", snap.Total, binaryName)
		<-partyCtx.Done()
	} else {
		uiErr = runUI(partyCtx, ctrl, r.Stdout)
	}

	cancel()
	runErr := <-runErrCh
	serverErr := <-serverErrCh

	switch {
	case uiErr != nil:
		fmt.Fprintf(r.Stderr, "error: %v\n", uiErr)
		return 1
	case serverErr != nil:
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	case runErr != nil && !errors.Is(runErr, context.Canceled):
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}

	final := ctrl.Snapshot()
	logger.Info("party ended",
		"party_id", final.PartyID,
		"extinguished", final.Extinguished,
		"total", final.Total,
		"complete", final.Complete,
	)
	return 0
}

func runUI(ctx context.Context, ctrl *party.Controller, out io.Writer) error {
	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	program := tea.NewProgram(
		tui.New(ctrl, updates),
		tea.WithContext(ctx),
		tea.WithOutput(out),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return nil
}

// pulseOpener builds a fresh microphone sampler per activation from the
// latest config.
func pulseOpener(current *atomic.Pointer[config.Config], dumpDir string, logger *slog.Logger) blow.OpenFunc {
	return func() blow.Sampler {
		cfg := current.Load()
		opts := audio.PulseOptions{
			Input:    cfg.Audio.Input,
			Fallback: cfg.Audio.Fallback,
			Frames:   audio.FramesFromConfig(cfg.Analyzer),
			Logger:   logger,
		}
		if cfg.Debug.EnableAudioDump {
			opts.DumpPath = filepath.Join(dumpDir, fmt.Sprintf("capture-%s.wav", time.Now().Format("20060102-150405")))
		}
		return audio.NewPulseSampler(opts)
	}
}

func summarize(resp ipc.Response) string {
	mic := "off"
	if resp.Listening {
		mic = "listening"
	}
	return fmt.Sprintf("%s: %d of %d candles out, mic %s", resp.State, resp.Extinguished, resp.Total, mic)
}

func tryForward(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, forwardTimeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if ipc.IsNoParty(err) {
		return ipc.Response{}, false, nil
	}
	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}

// interactive reports whether w is a terminal the party UI can take over.
func interactive(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
