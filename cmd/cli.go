// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"

	"bass/internal/config"
	"bass/internal/param"
	"bass/pkg/build"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Commands selected by ParseArgs.
const (
	CommandRun    = "run"
	CommandList   = "list"
	CommandRender = "render"
	CommandParams = "params"
)

// RenderFlags are the options of the render command.
type RenderFlags struct {
	SampleRate int    // 0 keeps the input rate
	BitDepth   int    // 0 uses recording.bit_depth
	Resampler  string // libsamplerate converter name
}

// Invocation is the parsed command line: the command to execute and the
// configuration it runs with.
type Invocation struct {
	Config      *config.Config
	Command     string
	Args        []string
	Interactive bool // list: pick a device in the TUI
	Render      RenderFlags
}

// cliFlags holds raw flag values; only flags the user set override the
// loaded configuration.
type cliFlags struct {
	configPath string
	verbose    bool

	inputDevice     int
	outputDevice    int
	channels        int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool
	record          bool
	outputFile      string
	tui             bool

	gain      float64
	skrunkle  float64
	threshold float64
	gateScope string
}

// ParseArgs parses args (without the program name), loads the configuration
// and applies the flags on top of it. It returns nil without error when
// only help or version output was requested.
func ParseArgs(args []string) (*Invocation, error) {
	buildInfo := build.GetBuildFlags()
	inv := &Invocation{}
	flags := &cliFlags{}

	selectCommand := func(name string) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, args []string) error {
			inv.Command = name
			inv.Args = args
			return nil
		}
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.String(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(flags.configPath)
			if err != nil {
				return err
			}
			flags.apply(cmd.Flags(), cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			inv.Config = cfg
			return nil
		},
		RunE: selectCommand(CommandRun),
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	// cobra falls back to os.Args for a nil slice.
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "",
		"Config file (default ./bass.yaml or ~/.config/bass/bass.yaml)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false,
		"Show verbose output")
	pf.IntVarP(&flags.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency and render block size)")
	pf.Float64Var(&flags.gain, "gain", config.DefaultOutputGainDB,
		"Output gain in dB (-30..30)")
	pf.Float64Var(&flags.skrunkle, "skrunkle", config.DefaultSkrunkle,
		"Distortion drive applied before clipping (0..10)")
	pf.Float64Var(&flags.threshold, "threshold", config.DefaultThreshold,
		"Gate threshold as block RMS (0..1)")
	pf.StringVar(&flags.gateScope, "gate-scope", config.DefaultGateScope,
		"Gate state across channels: shared or per_channel")

	addRunFlags(rootCmd.Flags(), flags)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Process live audio from the input device to the output device",
		Args:  cobra.NoArgs,
		RunE:  selectCommand(CommandRun),
	}
	addRunFlags(runCmd.Flags(), flags)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE:  selectCommand(CommandList),
	}
	listCmd.Flags().BoolVar(&inv.Interactive, "interactive", false,
		"Browse devices interactively and print the flags selecting one")

	renderCmd := &cobra.Command{
		Use:   "render <in.wav|in.mp3> <out.wav>",
		Short: "Process an audio file offline",
		Args:  cobra.ExactArgs(2),
		RunE:  selectCommand(CommandRender),
	}
	renderCmd.Flags().IntVar(&inv.Render.SampleRate, "sample-rate", 0,
		"Resample the input to this rate before processing (0 keeps the input rate)")
	renderCmd.Flags().IntVar(&inv.Render.BitDepth, "bit-depth", 0,
		"Output bit depth: 16, 24 or 32 (default recording.bit_depth)")
	renderCmd.Flags().StringVar(&inv.Render.Resampler, "resampler", "medium",
		"Resampler quality: best, medium, fastest, linear or zoh")

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "Show the effect parameters with their ranges and defaults",
		Args:  cobra.NoArgs,
		RunE:  selectCommand(CommandParams),
	}

	rootCmd.AddCommand(runCmd, listCmd, renderCmd, paramsCmd)

	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	if inv.Command == "" {
		// --help or --version
		return nil, nil
	}
	return inv, nil
}

// addRunFlags registers the flags of the live engine.
func addRunFlags(fs *pflag.FlagSet, f *cliFlags) {
	fs.IntVarP(&f.inputDevice, "input-device", "i", config.DefaultDeviceID,
		"Input device ID. Use 'list' command to see available devices.")
	fs.IntVarP(&f.outputDevice, "output-device", "O", config.DefaultDeviceID,
		"Output device ID. Use 'list' command to see available devices.")
	fs.IntVarP(&f.channels, "channels", "c", config.DefaultChannels,
		"Number of channels to process (1=mono, 2=stereo)")
	fs.Float64VarP(&f.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	fs.BoolVarP(&f.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")
	fs.BoolVarP(&f.record, "record", "r", config.DefaultRecordInputStream,
		"Record the processed output")
	fs.StringVarP(&f.outputFile, "output", "o", config.DefaultOutputFile,
		"Recording file name. Default is bass-YYYYMMDD-HHMMSS.wav")
	fs.BoolVar(&f.tui, "tui", false,
		"Show the terminal monitor")
}

// apply copies every flag the user set into cfg.
func (f *cliFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	changed := fs.Changed

	if f.verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if changed("input-device") {
		cfg.Audio.InputDevice = f.inputDevice
	}
	if changed("output-device") {
		cfg.Audio.OutputDevice = f.outputDevice
	}
	if changed("channels") {
		cfg.Audio.Channels = f.channels
	}
	// render has its own integer --sample-rate for resampling.
	if changed("sample-rate") && fs.Lookup("sample-rate").Value.Type() == "float64" {
		cfg.Audio.SampleRate = f.sampleRate
	}
	if changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = f.framesPerBuffer
	}
	if changed("low-latency") {
		cfg.Audio.LowLatency = f.lowLatency
	}
	if changed("record") {
		cfg.Recording.Enabled = f.record
	}
	if changed("output") {
		cfg.Recording.OutputFile = f.outputFile
	}
	if changed("tui") {
		cfg.TUIMode = f.tui
	}
	if changed("gain") {
		cfg.Effect.OutputGainDB = f.gain
	}
	if changed("skrunkle") {
		cfg.Effect.Skrunkle = f.skrunkle
	}
	if changed("threshold") {
		cfg.Effect.Threshold = f.threshold
	}
	if changed("gate-scope") {
		cfg.Effect.GateScope = f.gateScope
	}
}

// PrintParams writes a table of the parameters in set.
func PrintParams(w io.Writer, set *param.Set) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "MIN", "MAX", "DEFAULT", "CURRENT")
	for _, p := range set.All() {
		t.Row(string(p.ID), p.Name,
			p.Format(p.Range.Min), p.Format(p.Range.Max),
			p.Format(p.Default), p.String())
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}
