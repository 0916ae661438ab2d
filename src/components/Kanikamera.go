package components

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/tevino/abool"

	"github.com/kanikamera/agent/src/capture"
	"github.com/kanikamera/agent/src/cloud"
	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
	"github.com/kanikamera/agent/src/motionsensor"
	routers "github.com/kanikamera/agent/src/routers/mqtt"
	"github.com/kanikamera/agent/src/video"
)

// Bootstrap wires up the shared channels and keeps the agent running
// until it is told to stop. Every "restart" signal tears the running
// tasks down and brings them back up with the latest configuration.
func Bootstrap(configDirectory string, configuration *models.Configuration, communication *models.Communication) {
	log.Log.Debug("components.Kanikamera.Bootstrap(): started")

	// Channels and flags shared by all tasks.
	communication.HandleMotion = make(chan models.MotionEvent, 10)
	communication.HandleUpload = make(chan models.CaptureJob, 10)
	communication.HandleSnapshot = make(chan string, 1)
	communication.HandleLiveView = make(chan models.LiveFrame, 1)
	communication.IsRunning = abool.New()
	communication.IsRecording = abool.New()
	communication.IsConfiguring = abool.New()

	var tickCounter atomic.Value
	tickCounter.Store(int64(0))
	communication.TickCounter = &tickCounter

	// The timestamps of the last successful captures, used by the
	// status endpoint and the heartbeat.
	var lastStill atomic.Value
	lastStill.Store(int64(0))
	communication.LastStillAt = &lastStill

	var lastVideo atomic.Value
	lastVideo.Store(int64(0))
	communication.LastVideoAt = &lastVideo

	// Before starting the agent, we have a control goroutine, that
	// checks if the capture loop is still making progress.
	go ControlAgent(configuration, communication)

	// Configure a MQTT client which helps for a bi-directional communication
	mqttClient := routers.ConfigureMQTT(configuration, communication)

	// Run the agent and fire up all the other goroutines which do
	// image capture, motion detection, uploading, etc.
	for {
		// This will block until receiving a signal to be restarted,
		// reconfigured or stopped.
		status := RunAgent(configDirectory, configuration, communication, mqttClient)

		if status == "stop" {
			break
		}

		// Reset the MQTT client, might have provided new information,
		// so we need to reconnect.
		if routers.HasMQTTClientModified(configuration) {
			routers.DisconnectMQTT(mqttClient, &configuration.Config)
			mqttClient = routers.ConfigureMQTT(configuration, communication)
		}
	}

	routers.DisconnectMQTT(mqttClient, &configuration.Config)

	// Whoever asked for the stop might be waiting for it to complete.
	if communication.HandleStop != nil {
		select {
		case communication.HandleStop <- "stopped":
		default:
		}
	}

	log.Log.Debug("components.Kanikamera.Bootstrap(): finished")
}

// RunAgent starts one generation of the capture tasks and blocks until
// a bootstrap signal arrives. It returns the received status so
// Bootstrap can decide between restarting and shutting down.
func RunAgent(configDirectory string, configuration *models.Configuration, communication *models.Communication, mqttClient mqtt.Client) string {
	log.Log.Debug("components.Kanikamera.RunAgent(): bootstrapping agent")
	config := configuration.Config

	status := "not started"

	// The timezone steers both the policy window and the upload paths.
	location, err := time.LoadLocation(config.Timezone)
	if err != nil {
		log.Log.Error("components.Kanikamera.RunAgent(): unknown timezone " + config.Timezone + ", falling back to UTC")
		location = time.UTC
	}

	device := capture.NewRaspberry(config.Capture)
	if err := capture.Verify(device); err != nil {
		log.Log.Error("components.Kanikamera.RunAgent(): " + err.Error())
		time.Sleep(time.Second * 3)
		return status
	}

	gate := capture.NewGate(configuration, location, device)
	transcoder := video.NewTranscoder(config.Capture.Encoder)

	// This context reaches every task, cancelling it stops them at
	// their next suspension point.
	ctx, cancel := context.WithCancel(context.Background())

	go cloud.HandleUpload(ctx, configDirectory, configuration, communication, mqttClient)
	go cloud.HandleHeartBeat(ctx, configuration, communication)
	go HandleStillCapture(ctx, gate, configuration, communication)

	if config.Motion.GPIOPin != "" {
		go motionsensor.ProcessMotion(ctx, configuration, communication, mqttClient)
		go HandleVideoCapture(ctx, configDirectory, gate, transcoder, configuration, communication)
	} else {
		log.Log.Info("components.Kanikamera.RunAgent(): no GPIO pin configured, video capture is disabled.")
	}

	communication.IsRunning.Set()
	log.Log.Info("components.Kanikamera.RunAgent(): agent is running.")

	// This will go into a blocking state, once this channel is triggered
	// the agent will cleanup and restart.
	status = <-communication.HandleBootstrap
	communication.IsRunning.UnSet()

	// Cancel the main context, this will stop all the other goroutines.
	cancel()

	// Waiting for some seconds to make sure everything is properly closed.
	log.Log.Info("components.Kanikamera.RunAgent(): waiting 3 seconds to make sure everything is properly closed.")
	time.Sleep(time.Second * 3)

	return status
}

// ControlAgent watches the still task's tick counter. When the counter
// freezes for three intervals in a row the capture loop is assumed to
// be wedged and the agent is restarted.
func ControlAgent(configuration *models.Configuration, communication *models.Communication) {
	log.Log.Debug("components.Kanikamera.ControlAgent(): started")
	tickCounter := communication.TickCounter
	go func() {
		var previousTick int64 = 0
		var occurence = 0
		for {
			interval := configuration.Config.Capture.Interval
			if interval <= 0 {
				interval = 300
			}
			time.Sleep(time.Duration(interval) * time.Second)

			if !communication.IsRunning.IsSet() {
				occurence = 0
				continue
			}

			ticks := tickCounter.Load().(int64)
			if ticks == previousTick {
				// If we are already reconfiguring,
				// we dont need to check if the loop is blocking.
				if !communication.IsConfiguring.IsSet() {
					occurence = occurence + 1
				}
			} else {
				occurence = 0
			}

			log.Log.Debug("components.Kanikamera.ControlAgent(): number of timer ticks " + strconv.FormatInt(ticks, 10))

			if occurence == 3 {
				log.Log.Info("components.Kanikamera.ControlAgent(): restarting agent.")
				communication.HandleBootstrap <- "restart"
				time.Sleep(2 * time.Second)
				occurence = 0
			}
			previousTick = ticks
		}
	}()
	log.Log.Debug("components.Kanikamera.ControlAgent(): finished")
}
