package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bucknalla/go-waypoint-manager/waypoint"
	"go.bug.st/serial"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Version information - populated at build time via ldflags
var (
	Version   = "dev"     // Will be set to git tag if available, otherwise "dev"
	Commit    = "unknown" // Will be set to git commit hash
	BuildDate = "unknown" // Will be set to build timestamp
)

// parseFlags builds a configuration from the command line, starting from
// the library defaults
func parseFlags(args []string, output io.Writer) (waypoint.Config, bool, error) {
	config := waypoint.DefaultConfig()
	var showVersion bool

	fs := flag.NewFlagSet("waypoint-manager", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.BoolVar(&showVersion, "version", false, "Show version information and exit")
	fs.StringVar(&config.MissionFile, "mission", config.MissionFile, "Mission command file (.json or .gpx)")
	fs.Int64Var(&config.StartID, "start", config.StartID, "Waypoint id the segment starts at")
	fs.IntVar(&config.WindowLength, "window", config.WindowLength, "Number of waypoints in the segment")
	fs.StringVar(&config.RouteName, "route", config.RouteName, "Route identifier for RTE sentences and GPX output")
	fs.StringVar(&config.SerialPort, "serial", config.SerialPort, "Serial port for NMEA output (e.g., /dev/ttyUSB0, COM1)")
	fs.IntVar(&config.BaudRate, "baud", config.BaudRate, "Serial port baud rate")
	fs.BoolVar(&config.Quiet, "quiet", config.Quiet, "Suppress info messages (only output NMEA data)")
	fs.StringVar(&config.GPXFile, "gpx", config.GPXFile, "Write the segment as a GPX route to this file")
	fs.DurationVar(&config.Interval, "interval", config.Interval, "Re-send the segment at this period (e.g., 1s). Default is send once")
	fs.DurationVar(&config.Duration, "duration", config.Duration, "How long to keep re-sending (e.g., 30s, 5m). Default is until interrupted")
	fs.StringVar(&config.LogFile, "log-file", config.LogFile, "Write log messages to a rotating log file instead of stderr")

	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: %s [options]\n", fs.Name())
		fmt.Fprintf(output, "\nMission Command Segment Extractor\n")
		fmt.Fprintf(output, "Extracts a fixed-length, self-terminating waypoint segment from a mission command and outputs it as NMEA WPL/RTE sentences.\n\n")
		fmt.Fprintf(output, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return config, false, err
	}
	return config, showVersion, nil
}

// setupLogging routes the standard logger to a rotating log file
func setupLogging(config waypoint.Config) io.Closer {
	if config.LogFile == "" {
		return nil
	}
	w := &lumberjack.Logger{
		Filename:   config.LogFile,
		MaxSize:    16, // MB
		MaxBackups: 3,
		MaxAge:     14,
	}
	log.SetOutput(w)
	return w
}

// openOutput opens the NMEA destination, falling back to stdout
func openOutput(config waypoint.Config) (io.Writer, io.Closer, error) {
	if config.SerialPort == "" {
		return os.Stdout, nil, nil
	}

	mode := &serial.Mode{
		BaudRate: config.BaudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(config.SerialPort, mode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open serial port %s: %w", config.SerialPort, err)
	}
	return port, port, nil
}

// loadSegment loads and checks the mission command, then extracts the segment
func loadSegment(config waypoint.Config) (waypoint.MissionCommand, waypoint.Segment, error) {
	mission, err := waypoint.LoadMissionFile(config.MissionFile)
	if err != nil {
		return nil, waypoint.Segment{}, err
	}
	if err := mission.Validate(); err != nil {
		return nil, waypoint.Segment{}, fmt.Errorf("invalid mission command %s: %w", config.MissionFile, err)
	}

	seg, err := waypoint.ExtractSegment(mission, config.StartID, config.WindowLength)
	if err != nil {
		return nil, waypoint.Segment{}, fmt.Errorf("failed to extract segment: %w", err)
	}
	return mission, seg, nil
}

// writeGPX writes the segment to a GPX route file
func writeGPX(config waypoint.Config, seg waypoint.Segment) error {
	writer, err := waypoint.NewGPXWriter(config.GPXFile)
	if err != nil {
		return err
	}
	writer.AddSegment(config.RouteName, seg)
	return writer.Close()
}

// printSummary describes the extracted segment on info
func printSummary(info io.Writer, config waypoint.Config, mission waypoint.MissionCommand, seg waypoint.Segment) {
	fmt.Fprintf(info, "Mission command: %s (%d waypoints)\n", config.MissionFile, len(mission))
	fmt.Fprintf(info, "Segment: start %d, %d waypoints\n", config.StartID, seg.Len())
	if reachable := mission.Reachable(config.StartID); reachable < seg.Len() {
		fmt.Fprintf(info, "Cycle of %d waypoints unrolled into window\n", reachable)
	}
	fmt.Fprintf(info, "Waypoint ids: %v\n", seg.IDs())
	for _, leg := range seg.Legs() {
		fmt.Fprintf(info, "  %d -> %d: %.1f m, %.1f degrees\n", leg.From, leg.To, leg.Distance, leg.Bearing)
	}
	fmt.Fprintf(info, "Total distance: %.1f m\n", seg.Distance())
	last := seg.Last()
	fmt.Fprintf(info, "Terminal waypoint: %d (next %d)\n", last.ID, last.NextID)
}

// run extracts the segment and writes it once or, with an interval, until
// stop is closed or the duration elapses
func run(config waypoint.Config, out io.Writer, info io.Writer, stop <-chan struct{}) error {
	mission, seg, err := loadSegment(config)
	if err != nil {
		return err
	}
	log.Printf("Extracted segment from %s: start=%d window=%d ids=%v",
		config.MissionFile, config.StartID, config.WindowLength, seg.IDs())

	if !config.Quiet {
		printSummary(info, config, mission, seg)
	}

	if config.GPXFile != "" {
		if err := writeGPX(config, seg); err != nil {
			return err
		}
		if !config.Quiet {
			fmt.Fprintf(info, "GPX output: %s\n", config.GPXFile)
		}
	}

	if err := waypoint.WriteNMEA(out, seg, config.RouteName); err != nil {
		return err
	}
	if config.Interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(config.Interval)
	defer ticker.Stop()

	var durationChan <-chan time.Time
	if config.Duration > 0 {
		durationTimer := time.NewTimer(config.Duration)
		defer durationTimer.Stop()
		durationChan = durationTimer.C
	}

	for {
		select {
		case <-stop:
			return nil
		case <-durationChan:
			return nil
		case <-ticker.C:
			if err := waypoint.WriteNMEA(out, seg, config.RouteName); err != nil {
				return err
			}
		}
	}
}

func main() {
	config, showVersion, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	// Handle version flag
	if showVersion {
		if Version != "dev" {
			fmt.Printf("v%s\n", Version)
		} else {
			fmt.Printf("%s\n", Commit)
		}
		os.Exit(0)
	}

	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if closer := setupLogging(config); closer != nil {
		defer closer.Close()
	}

	out, closer, err := openOutput(config)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if closer != nil {
		defer closer.Close()
		if !config.Quiet {
			fmt.Fprintf(os.Stderr, "Opened serial port: %s at %d baud\n", config.SerialPort, config.BaudRate)
		}
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	stop := make(chan struct{})
	go func() {
		<-sigChan
		close(stop)
	}()

	if err := run(config, out, os.Stderr, stop); err != nil {
		log.Printf("Error: %v", err)
		if closer != nil {
			closer.Close()
		}
		os.Exit(1)
	}
}
