// Command valve-controller drives laboratory valves over GPIO output
// channels, enforcing the valve interlock, with commands arriving over MQTT
// and status served over MQTT and HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/valve-controller/internal/config"
	"github.com/sweeney/valve-controller/internal/mqtt"
	"github.com/sweeney/valve-controller/internal/register"
	"github.com/sweeney/valve-controller/internal/status"
	"github.com/sweeney/valve-controller/internal/system"
	"github.com/sweeney/valve-controller/internal/valve"
	"github.com/sweeney/valve-controller/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (empty for built-in defaults)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	httpAddr := flag.String("http", "", `HTTP status address (overrides config, "off" disables)`)
	printStatus := flag.Bool("print-status", false, "Print current valve status and exit")

	flag.Parse()

	if err := run(*configPath, *broker, *httpAddr, *printStatus); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(configPath, brokerOverride, httpOverride string, printStatus bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if brokerOverride != "" {
		cfg.MQTT.Broker = brokerOverride
	}
	cfg.HTTP.Addr = resolveHTTPAddr(httpOverride, cfg.HTTP.Addr)

	// The register is required before any valve operation: no live
	// hardware is a fatal startup condition, not a per-call error.
	reg, err := register.NewRealRegister(cfg.Hardware.Chip, cfg.Hardware.Pins)
	if err != nil {
		return fmt.Errorf("init register: %w", err)
	}
	defer reg.Close()

	sched := system.NewScheduler(nil)
	ctrl, err := valve.NewController(reg, cfg.ValveTable(), func(d time.Duration) {
		sched.Schedule(d)
	})
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}

	// Fail-safe: every valve channel is driven closed before readiness
	// is signaled or any command is accepted.
	if err := ctrl.CloseAll(); err != nil {
		return fmt.Errorf("startup close all: %w", err)
	}

	// Print status mode
	if printStatus {
		reports, err := ctrl.Reports()
		if err != nil {
			return fmt.Errorf("read status: %w", err)
		}
		for _, r := range reports {
			fmt.Printf("valve %d (%s): %s\n", r.ID, r.Description, r.State)
		}
		return nil
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Broker:     cfg.MQTT.Broker,
		HTTPAddr:   cfg.HTTP.Addr,
		ConfigPath: configPath,
		ValveCount: len(cfg.Valves),
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Initialize MQTT
	client, err := mqtt.NewRealClient(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	if err != nil {
		return fmt.Errorf("connect mqtt: %w", err)
	}
	defer client.Close()
	tracker.SetMQTTConnected(client.IsConnected())

	if err := client.PublishSystem(mqtt.SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
		Retained:  true,
	}); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, ctrl, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	// Channels are closed; signal readiness on the spare channel.
	blinker := system.NewBlinker(reg, cfg.Hardware.ReadyChannel)
	go func() {
		if err := blinker.Run(); err != nil {
			log.Printf("ready indicator: %v", err)
		}
	}()

	if err := client.SubscribeCommands(func(cmd mqtt.Command) {
		handleCommand(ctrl, tracker, client, client, cmd, time.Now)
	}); err != nil {
		return fmt.Errorf("subscribe commands: %w", err)
	}

	log.Printf("started: broker=%s http=%s valves=%d", cfg.MQTT.Broker, cfg.HTTP.Addr, len(cfg.Valves))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh

	log.Printf("received %v, shutting down", s)
	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}
	if err := client.PublishSystem(mqtt.SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    signalName,
		Retained:  true,
	}); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
	return nil
}

// handleCommand routes one inbound command through the controller and
// reports the outcome. Rejected and malformed commands are logged, never
// propagated: the command source is untrusted and must not be able to crash
// the controller. The tracker's connectivity view is refreshed here so the
// status page follows broker drops and reconnects.
func handleCommand(ctrl *valve.Controller, tracker *status.Tracker, client mqtt.Client, mqttStatus mqtt.ConnectionStatus, cmd mqtt.Command, now func() time.Time) {
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}

	res := ctrl.Dispatch(cmd.Item, cmd.Command)
	tracker.RecordResult(res)

	switch res.Kind {
	case valve.KindOpened, valve.KindClosed, valve.KindClosedAll:
		log.Printf("%s", res.Detail)
	case valve.KindRestartScheduled:
		log.Printf("warning: %s", res.Detail)
		if err := client.PublishSystem(mqtt.SystemEvent{
			Timestamp: now(),
			Event:     "RESTART_PENDING",
		}); err != nil {
			log.Printf("failed to publish restart event: %v", err)
		}
	default:
		log.Printf("warning: %s", res.Detail)
	}

	if !res.StateChanged() {
		return
	}
	reports, err := ctrl.Reports()
	if err != nil {
		log.Printf("status read error: %v", err)
		return
	}
	if err := client.PublishStatus(reports, now()); err != nil {
		log.Printf("status publish error: %v", err)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// resolveHTTPAddr applies the --http flag on top of the configured address.
func resolveHTTPAddr(override, configured string) string {
	switch override {
	case "":
		return configured
	case "off":
		return ""
	}
	return override
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
