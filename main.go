package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	ddotel "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/opentelemetry"

	"github.com/kanikamera/agent/src/components"
	"github.com/kanikamera/agent/src/config"
	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
	"github.com/kanikamera/agent/src/routers"
)

const VERSION = "1.0"

func main() {

	if len(os.Args) < 2 {
		fmt.Println("Usage: agent [version|run <name> <port>]")
		os.Exit(1)
	}
	action := os.Args[1]

	switch action {
	case "version":
		fmt.Println("You are currently running kanikamera agent " + VERSION)

	case "run":
		{
			if len(os.Args) < 4 {
				fmt.Println("Usage: agent run <name> <port>")
				os.Exit(1)
			}
			name := os.Args[2]
			port := os.Args[3]

			configDirectory := os.Getenv("AGENT_CONFIG_DIRECTORY")
			if configDirectory == "" {
				configDirectory = "."
			}

			var configuration models.Configuration
			configuration.Name = name
			configuration.Port = port

			// Read the config on start, and pass it to the other features.
			// Please note that this might be changed when saving or updating
			// the configuration through the REST api or MQTT handler.
			if err := config.OpenConfig(configDirectory, &configuration); err != nil {
				fmt.Println("Invalid configuration: " + err.Error())
				os.Exit(1)
			}
			config.OverrideWithEnvironmentVariables(&configuration)
			if err := config.Validate(&configuration.Config); err != nil {
				fmt.Println("Invalid configuration: " + err.Error())
				os.Exit(1)
			}

			// The timezone drives the log timestamps and the upload paths.
			timezone, err := time.LoadLocation(configuration.Config.Timezone)
			if err != nil {
				timezone = time.UTC
			}
			log.Log.Init(configuration.Config.LogLevel, configDirectory, timezone)
			log.Log.Info("main.main(): starting kanikamera agent " + VERSION)

			// Ship the capture spans to Datadog when asked for.
			if os.Getenv("AGENT_TRACING_DATADOG") == "true" {
				provider := ddotel.NewTracerProvider()
				defer provider.Shutdown()
				otel.SetTracerProvider(provider)
			}

			communication := models.Communication{
				HandleBootstrap: make(chan string, 1),
				HandleStop:      make(chan string, 1),
			}

			// Bootstrapping the agent
			go components.Bootstrap(configDirectory, &configuration, &communication)

			// An interrupt stops the agent cleanly: the running tasks are
			// cancelled and teardown completes before the process exits.
			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-interrupt
				log.Log.Info("main.main(): received an interrupt, stopping the agent.")
				communication.HandleBootstrap <- "stop"
				<-communication.HandleStop
				os.Exit(0)
			}()

			// Start the REST API.
			routers.StartWebserver(configDirectory, &configuration, &communication)
		}
	default:
		fmt.Println("Sorry I don't understand :(")
	}
}
