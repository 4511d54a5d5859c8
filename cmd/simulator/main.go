package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

var (
	serverURL      = flag.String("server", "ws://localhost:9000/ocpp/1.6", "CSMS WebSocket URL")
	chargePointID  = flag.String("id", "CP001", "Charge Point ID")
	vendor         = flag.String("vendor", "SIGEC", "Charge Point Vendor")
	model          = flag.String("model", "SimulatorV1", "Charge Point Model")
	serial         = flag.String("serial", "SIM001", "Serial Number")
	firmware       = flag.String("firmware", "1.0.0", "Firmware Version")
	basicAuthUser  = flag.String("auth-user", "", "HTTP Basic Auth username (security profile 2/3)")
	basicAuthPass  = flag.String("auth-pass", "", "HTTP Basic Auth password (security profile 2/3)")
	connectorCount = flag.Int("connectors", 2, "Number of connectors")
	interactive    = flag.Bool("interactive", false, "Enable interactive mode")
	verbose        = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	// Setup logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Create simulator config
	config := &SimulatorConfig{
		ServerURL:       *serverURL,
		ChargePointID:   *chargePointID,
		Vendor:          *vendor,
		Model:           *model,
		SerialNumber:    *serial,
		FirmwareVersion: *firmware,
		BasicAuthUser:   *basicAuthUser,
		BasicAuthPass:   *basicAuthPass,
		ConnectorCount:  *connectorCount,
	}

	// Create and start simulator
	simulator := NewSimulator(config, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down simulator...")
		simulator.Stop()
		os.Exit(0)
	}()

	// Connect to server
	if err := simulator.Connect(); err != nil {
		logger.Fatal("Failed to connect to CSMS", zap.Error(err))
	}

	// Start the simulator
	if *interactive {
		runInteractiveMode(simulator)
	} else {
		// Run in background mode
		fmt.Printf("OCPP 1.6J Charge Point Simulator started\n")
		fmt.Printf("  ID: %s\n", *chargePointID)
		fmt.Printf("  Server: %s\n", *serverURL)
		fmt.Println("\nPress Ctrl+C to stop")

		// Keep running
		select {}
	}
}

func runInteractiveMode(sim *Simulator) {
	fmt.Println("\nOCPP 1.6J Charge Point Simulator - Interactive Mode")
	fmt.Println("====================================================")
	fmt.Println("Commands:")
	fmt.Println("  start <connector> <idTag>  - StartTransaction on connector")
	fmt.Println("  stop                       - StopTransaction for the active transaction")
	fmt.Println("  status <connector> <state> - Send StatusNotification")
	fmt.Println("  meter <valueWh>            - Send MeterValues for the active transaction")
	fmt.Println("  authorize <idTag>          - Send Authorize")
	fmt.Println("  heartbeat                  - Send Heartbeat")
	fmt.Println("  fault <connector>          - Simulate a Faulted connector")
	fmt.Println("  firmware <status>          - Send FirmwareStatusNotification")
	fmt.Println("  diagnostics <status>       - Send DiagnosticsStatusNotification")
	fmt.Println("  quit                       - Exit simulator")
	fmt.Println("")

	sim.RunInteractive()
}
