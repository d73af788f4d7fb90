// Surrogated is the example host binary: it wires a Controller with a
// sample device-state application handler, opens discoverability, and
// optionally starts the read-only status API and event bridges.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/padl/surrogate/bridge/kafka"
	"github.com/padl/surrogate/bridge/mqtt"
	"github.com/padl/surrogate/bridge/redis"
	"github.com/padl/surrogate/bridge/stream"
	"github.com/padl/surrogate/config"
	"github.com/padl/surrogate/engine"
	"github.com/padl/surrogate/logging"
	"github.com/padl/surrogate/simdevice"
	"github.com/padl/surrogate/statusapi"
	"github.com/padl/surrogate/wire"
)

var Version = "dev"

var (
	configPath  = flag.String("config", "", "Path to configuration file (YAML); empty uses built-in defaults")
	localIface  = flag.String("interface", "", "Local interface address to bind discovery/control to (empty: any)")
	logDebug    = flag.String("log-debug", "", "Comma-separated debug tags to enable, or 'all'")
	logFile     = flag.String("log", "", "Path to debug log file")
	statusAddr  = flag.String("status-addr", "", "host:port for the read-only status API; empty disables it")
	showVersion = flag.Bool("version", false, "Show version and exit")

	mqttBroker = flag.String("mqtt-broker", "", "MQTT broker host:port to mirror device notifications to; empty disables")
	mqttTopic  = flag.String("mqtt-topic", "surrogate", "MQTT root topic")

	redisAddr    = flag.String("redis-addr", "", "Redis host:port to PUBLISH device notifications to; empty disables")
	redisChannel = flag.String("redis-channel", "surrogate", "Redis channel")

	kafkaBrokers = flag.String("kafka-brokers", "", "Comma-separated Kafka broker list to mirror device notifications to; empty disables")
	kafkaTopic   = flag.String("kafka-topic", "surrogate", "Kafka topic")

	streamAddr = flag.String("stream-addr", "", "host:port for the newline-JSON notification stream; empty disables")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("surrogated %s\n", Version)
		os.Exit(0)
	}

	if *logFile != "" {
		dbg, err := logging.NewDebugLogger(*logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening debug log: %v\n", err)
			os.Exit(1)
		}
		if *logDebug != "" {
			dbg.SetFilter(*logDebug)
		}
		logging.SetGlobalDebugLogger(dbg)
		defer dbg.Close()
	}

	var opts *config.Options
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		opts = loaded
	} else {
		opts = config.Defaults()
	}

	app := simdevice.New()
	controller := engine.Create(opts, app)

	if status := controller.BeginDiscoverability(*localIface); status != wire.Success {
		fmt.Fprintf(os.Stderr, "Error starting discoverability: %s\n", status)
		os.Exit(1)
	}
	defer controller.EndDiscoverability()

	bridges := startBridges(controller)
	defer bridges.stopAll()

	var statusServer *statusapi.Server
	if *statusAddr != "" {
		host, port := splitHostPort(*statusAddr)
		statusServer = statusapi.NewServer(statusapi.Config{Host: host, Port: port}, controller)
		if err := statusServer.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: status API failed to start: %v\n", err)
		} else {
			fmt.Printf("Status API listening on %s\n", statusServer.Address())
		}
	}

	fmt.Printf("Surrogate device %d (%s) discoverable. Press Ctrl+C to stop.\n", opts.DeviceID, opts.DeviceName)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	fmt.Printf("\nReceived %v, shutting down...\n", sig)

	if statusServer != nil {
		_ = statusServer.Stop()
	}
}

// bridgeSet bundles the optional one-way event forwarders actually
// started for this run, so they can be stopped on shutdown.
type bridgeSet struct {
	mqtt   *mqtt.Manager
	redis  *redis.Manager
	kafka  *kafka.Manager
	stream *stream.Manager
}

func (b *bridgeSet) stopAll() {
	if b.mqtt != nil {
		b.mqtt.StopAll()
	}
	if b.redis != nil {
		b.redis.StopAll()
	}
	if b.kafka != nil {
		b.kafka.StopAll()
	}
	if b.stream != nil {
		b.stream.StopAll()
	}
}

// startBridges builds a manager per bridge kind named on the command line,
// starts it, and registers it with the controller so every Notify/
// NotifyDeferred call is mirrored to it. A bridge with no target flag set
// is left out entirely rather than started disabled.
func startBridges(controller *engine.Controller) *bridgeSet {
	set := &bridgeSet{}

	if *mqttBroker != "" {
		host, port := splitHostPort(*mqttBroker)
		m := mqtt.NewManager()
		m.Add(mqtt.NewPublisher(mqtt.Config{
			Name: "default", Broker: host, Port: port, RootTopic: *mqttTopic, Enabled: true,
		}))
		if n := m.StartAll(); n > 0 {
			controller.AddBridge(m)
			set.mqtt = m
		}
	}

	if *redisAddr != "" {
		m := redis.NewManager()
		m.Add(redis.NewPublisher(redis.Config{
			Name: "default", Addr: *redisAddr, Channel: *redisChannel, Enabled: true,
		}))
		if n := m.StartAll(); n > 0 {
			controller.AddBridge(m)
			set.redis = m
		}
	}

	if *kafkaBrokers != "" {
		m := kafka.NewManager()
		m.Add(kafka.NewPublisher(kafka.Config{
			Name: "default", Brokers: strings.Split(*kafkaBrokers, ","), Topic: *kafkaTopic, Enabled: true,
		}))
		if n := m.StartAll(); n > 0 {
			controller.AddBridge(m)
			set.kafka = m
		}
	}

	if *streamAddr != "" {
		m := stream.NewManager()
		m.Add(stream.NewPublisher(stream.Config{
			Name: "default", ListenAddr: *streamAddr, Enabled: true,
		}))
		if n := m.StartAll(); n > 0 {
			controller.AddBridge(m)
			set.stream = m
		}
	}

	return set
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}
