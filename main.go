// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"bass/cmd"
	"bass/internal/audio"
	"bass/internal/config"
	applog "bass/internal/log"
	"bass/internal/param"
	"bass/internal/render"
	"bass/internal/transport"
	"bass/internal/transport/udp"
	"bass/internal/tui"
	"bass/pkg/build"

	tea "github.com/charmbracelet/bubbletea"
)

// main is the entry point for the clip/gate application.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Execute one-off commands (list, params, render) if requested
//   - Initialize PortAudio
//
// 2. Concurrent Phase (Hot Path):
//   - Start the audio engine
//   - Start the meter publisher and its transports
//   - Start recording if enabled
//   - Run the terminal monitor or wait for a signal
//
// 3. Shutdown Phase (Cold Path):
//   - Stop the publisher and close transports
//   - Stop recording and the stream
//   - Terminate PortAudio
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	buildErr := build.Initialize()

	inv, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	if inv == nil {
		return // --help or --version
	}
	cfg := inv.Config

	if err := applog.Configure(cfg.Debug, cfg.LogLevel); err != nil {
		applog.Fatalf("%v", err)
	}
	if buildErr != nil {
		applog.Debugf("Development build: %v", buildErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	params := param.NewSet(cfg.ParamDefaults())

	switch inv.Command {
	case cmd.CommandParams:
		if err := cmd.PrintParams(os.Stdout, params); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	case cmd.CommandRender:
		if err := renderFile(ctx, inv, params); err != nil {
			applog.Fatalf("Render failed: %v", err)
		}
		return
	}

	// Limit OS threads to optimize for real-time audio processing:
	// - One thread dedicated to the audio callback (time-critical)
	// - One thread for transports, UI and I/O
	runtime.GOMAXPROCS(2)

	if err := audio.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}
	defer audio.Terminate()

	if inv.Command == cmd.CommandList {
		if err := listDevices(inv.Interactive); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	if err := run(ctx, cfg, params); err != nil {
		applog.Errorf("%v", err)
		audio.Terminate()
		os.Exit(1)
	}
}

// run starts the engine and everything around it, blocks until ctx is done
// or the monitor quits, then shuts down.
func run(ctx context.Context, cfg *config.Config, params *param.Set) error {
	engine, err := audio.NewEngine(cfg, params)
	if err != nil {
		return err
	}

	// The first callback marks the start of the hot path.
	if err := engine.Start(); err != nil {
		return err
	}

	publisher, err := startPublisher(cfg, engine)
	if err != nil {
		engine.Close()
		return err
	}

	if cfg.Recording.Enabled {
		if _, err := engine.StartRecording(cfg.Recording.OutputFile); err != nil {
			applog.Errorf("Recording not started: %v", err)
		}
	}

	if cfg.TUIMode {
		if err := startTUILogging(cfg); err != nil {
			applog.Warnf("%v", err)
		}
		err = tui.RunMonitor(ctx, tui.MonitorConfig{
			Params: params,
			Meter:  engine.Meter(),
			Bypass: engine,
			Subtitle: fmt.Sprintf("%d ch @ %.0f Hz, gate %s",
				cfg.Audio.Channels, cfg.Audio.SampleRate, engine.GateScope()),
		})
		if err != nil {
			applog.Errorf("Monitor: %v", err)
		}
	} else {
		fmt.Printf("Running. Press Ctrl+C to stop ('%s --help' for usage information).\n", build.GetBuildFlags().Name)
		<-ctx.Done()
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	var errs []error
	if publisher != nil {
		errs = append(errs, publisher.Close())
	}
	errs = append(errs, engine.Close())
	return errors.Join(errs...)
}

// startPublisher wires the enabled transports to the engine's meters. It
// returns nil when no transport is enabled.
func startPublisher(cfg *config.Config, engine *audio.Engine) (*transport.Publisher, error) {
	var transports []transport.Transport
	closeAll := func() {
		for _, t := range transports {
			t.Close()
		}
	}

	if cfg.Transport.WSEnabled {
		ws := transport.NewWebSocketServer(cfg.Transport.WSAddress, engine.Params())
		if err := ws.Start(); err != nil {
			ws.Close()
			return nil, err
		}
		transports = append(transports, ws)
	}
	if cfg.Transport.UDPEnabled {
		u, err := udp.NewTransport(cfg.Transport.UDPTargetAddress)
		if err != nil {
			closeAll()
			return nil, err
		}
		transports = append(transports, u)
	}
	if len(transports) == 0 && cfg.Debug && !cfg.TUIMode {
		transports = append(transports, transport.NewLoggingTransport())
	}
	if len(transports) == 0 {
		return nil, nil
	}

	publisher, err := transport.NewPublisher(transport.PublisherConfig{
		Interval: cfg.Transport.UDPSendInterval,
		Meter:    engine.Meter(),
		Params:   engine.Params(),
		Spectrum: engine.Spectrum(),
	}, transports...)
	if err != nil {
		closeAll()
		return nil, err
	}
	publisher.Start()
	return publisher, nil
}

// startTUILogging keeps log lines off the monitor: to bass.log when
// debugging, nowhere otherwise.
func startTUILogging(cfg *config.Config) error {
	if !cfg.Debug {
		applog.SetOutput(io.Discard)
		return nil
	}
	f, err := tea.LogToFile("bass.log", "")
	if err != nil {
		applog.SetOutput(io.Discard)
		return fmt.Errorf("failed to open bass.log: %w", err)
	}
	applog.SetOutput(f)
	return nil
}

func listDevices(interactive bool) error {
	if !interactive {
		return audio.ListDevices(os.Stdout)
	}
	sel, ok, err := tui.StartDeviceListUI()
	if err != nil || !ok {
		return err
	}
	fmt.Printf("Selected '%s'. Run with:\n\n  %s run %s\n", sel.Device.Name, build.GetBuildFlags().Name, sel.Flags())
	return nil
}

func renderFile(ctx context.Context, inv *cmd.Invocation, params *param.Set) error {
	opts := render.NewOptions(inv.Config)
	opts.SampleRate = inv.Render.SampleRate
	if inv.Render.BitDepth != 0 {
		opts.BitDepth = inv.Render.BitDepth
	}
	converter, err := render.ParseConverter(inv.Render.Resampler)
	if err != nil {
		return err
	}
	opts.Converter = converter

	r, err := render.NewRenderer(opts, params)
	if err != nil {
		return err
	}
	res, err := r.RenderFile(ctx, inv.Args[0], inv.Args[1])
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%v, %d ch @ %d Hz, in %s / out %s)\n", res.Output, res.Duration(),
		res.Channels, res.SampleRate, formatRMS(res.InputRMS), formatRMS(res.OutputRMS))
	return nil
}

func formatRMS(rms float32) string {
	if rms <= 0 {
		return "-inf dBFS"
	}
	return fmt.Sprintf("%.1f dBFS", param.GainToDB(rms))
}
