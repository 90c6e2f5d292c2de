// rtl_map - FFT-based spectrum visualizer for RTL-SDR devices.
// This program reads raw I/Q sample blocks from an RTL-SDR receiver,
// transforms them to an amplitude-vs-frequency trace and feeds the trace
// to a file and/or a gnuplot window.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/orhun/rtl-map/internal/config"
	"github.com/orhun/rtl-map/internal/output"
	"github.com/orhun/rtl-map/internal/rtlsdr"
	"github.com/orhun/rtl-map/internal/scheduler"
	"github.com/orhun/rtl-map/internal/version"
)

// Command line flag variables
var (
	cfgFile        string  // Configuration file path
	deviceIndex    int     // RTL-SDR device index
	sampleRate     uint32  // Sample rate in Hz
	frequency      uint32  // Center frequency in Hz (mandatory)
	gain           float64 // Tuner gain in dB, 0 selects AGC
	numReads       int     // Read limit, 0 = unbounded
	refreshMs      int     // Inter-read delay in ms for continuous mode
	continuous     bool    // Continuous read mode
	magnitude      bool    // Linear magnitude scaling instead of dB
	noPlot         bool    // Disable the gnuplot sink
	noOffsetTuning bool    // Disable offset tuning on the tuner
	noColor        bool    // Disable colored log output
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rtl_map [filename]",
	Short: "FFT-based spectrum visualizer for RTL-SDR devices",
	Long: `rtl_map reads raw I/Q samples from an RTL-SDR receiver (RTL2832/DVB-T),
computes their FFT and renders the amplitude spectrum with gnuplot.
The trace can also be written to a file, or to stdout with '-'.`,
	Args:    cobra.MaximumNArgs(1),
	Version: version.GetFullVersion(),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCapture(cmd, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// init initializes the CLI flags and configuration
func init() {
	// Initialize configuration when cobra starts
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "./config.yaml", "config file (default is ./config.yaml)")

	rootCmd.Flags().IntVarP(&deviceIndex, "device", "d", 0, "RTL-SDR device index")
	rootCmd.Flags().Uint32VarP(&sampleRate, "sample-rate", "s", config.DefaultBlockSize*4000, "sample rate (Hz)")
	rootCmd.Flags().Uint32VarP(&frequency, "frequency", "f", 0, "center frequency (Hz), mandatory")
	rootCmd.Flags().Float64VarP(&gain, "gain", "g", 1.4, "tuner gain in dB (0 for auto)")
	rootCmd.Flags().IntVarP(&numReads, "num-reads", "n", 0, "number of reads (0 for unbounded)")
	rootCmd.Flags().IntVarP(&refreshMs, "refresh-rate", "r", 500, "refresh rate in ms for continuous read")
	rootCmd.Flags().BoolVarP(&continuous, "continuous", "C", false, "continuously read samples")
	rootCmd.Flags().BoolVarP(&magnitude, "magnitude", "M", false, "show magnitude instead of dB")
	rootCmd.Flags().BoolVarP(&noPlot, "no-plot", "D", false, "don't show the gnuplot graph")
	rootCmd.Flags().BoolVarP(&noOffsetTuning, "no-offset-tuning", "O", false, "disable offset tuning for zero-IF tuners")
	rootCmd.Flags().BoolVarP(&noColor, "no-color", "T", false, "turn off colored log output")

	// Bind command line flags to viper configuration keys
	viper.BindPFlag("rtlsdr.device_index", rootCmd.Flags().Lookup("device"))
	viper.BindPFlag("rtlsdr.sample_rate", rootCmd.Flags().Lookup("sample-rate"))
	viper.BindPFlag("rtlsdr.frequency", rootCmd.Flags().Lookup("frequency"))
	viper.BindPFlag("rtlsdr.gain", rootCmd.Flags().Lookup("gain"))
	viper.BindPFlag("capture.max_reads", rootCmd.Flags().Lookup("num-reads"))
	viper.BindPFlag("capture.refresh_ms", rootCmd.Flags().Lookup("refresh-rate"))
	viper.BindPFlag("capture.continuous", rootCmd.Flags().Lookup("continuous"))
	viper.BindPFlag("output.magnitude", rootCmd.Flags().Lookup("magnitude"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config.yaml in current directory
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	// Read in environment variables that match
	viper.AutomaticEnv()

	// The config file is optional
	viper.ReadInConfig()
}

// newLogger builds the session logger shared by the device, the sinks
// and the scheduler
func newLogger(colors bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	if !colors {
		logger.SetColorProfile(termenv.Ascii)
	}
	return logger
}

// runCapture is the main application logic
func runCapture(cmd *cobra.Command, args []string) error {
	// Load default configuration, then override with values from the
	// config file and command line flags
	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The negative flags override their positive config fields
	if cmd.Flags().Changed("no-plot") {
		cfg.Output.Plot = !noPlot
	}
	if cmd.Flags().Changed("no-offset-tuning") {
		cfg.RTLSDR.OffsetTuning = !noOffsetTuning
	}
	if cmd.Flags().Changed("no-color") {
		cfg.Logging.Colors = !noColor
	}

	// The positional filename selects the file sink; '-' selects stdout
	if len(args) == 1 {
		cfg.Output.File = args[0]
	}

	// Missing mandatory center frequency is treated as a help request
	if cfg.RTLSDR.Frequency == 0 {
		cmd.Usage()
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Logging.Colors)
	logger.Info("Starting rtl_map ~")

	dev, err := rtlsdr.OpenConfigured(cfg.RTLSDR, logger)
	if err != nil {
		return err
	}
	defer dev.Close()

	// Sinks open once at session start; the fanout closes them in the
	// order they are added, file first
	fanout := output.NewFanout()
	if cfg.Output.File != "" {
		fileSink, err := output.NewFileSink(cfg.Output.File)
		if err != nil {
			return err
		}
		fanout.Add(fileSink)
	}
	if cfg.Output.Plot {
		plotSink, err := output.NewPlotSink(cfg.RTLSDR.Frequency, cfg.Capture.BlockSize)
		if err != nil {
			fanout.Close()
			return err
		}
		fanout.Add(plotSink)
	}

	sched, err := scheduler.New(cfg.Capture, cfg.Output, dev, fanout, logger)
	if err != nil {
		fanout.Close()
		return err
	}

	// Route signals through the scheduler's cancellation path so cleanup
	// always runs through the one draining sequence
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigChan
		logger.Info("Signal caught, exiting...")
		sched.Stop()
	}()

	return sched.Run()
}

// main is the entry point of the application
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
