// Watching a PIR sensor on a GPIO pin and turning edges into motion events.
package motionsensor

import (
	"context"
	"errors"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIOPin is the part of periph.io's gpio.PinIO the watcher needs.
// Tests drive the loop through a scripted implementation.
type GPIOPin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
	Read() gpio.Level
}

// ProcessMotion resolves the configured pin and watches it until the
// context is cancelled. Without a configured pin this returns right
// away and the video pipeline never sees a motion event.
func ProcessMotion(ctx context.Context, configuration *models.Configuration, communication *models.Communication, mqttClient mqtt.Client) {
	log.Log.Debug("motionsensor.main.ProcessMotion(): started")
	config := configuration.Config

	pinName := config.Motion.GPIOPin
	if pinName == "" {
		log.Log.Info("motionsensor.main.ProcessMotion(): no GPIO pin configured, motion detection is disabled.")
		return
	}

	if _, err := host.Init(); err != nil {
		hwErr := &models.HardwareError{Op: "gpio-init", Err: err}
		log.Log.Error("motionsensor.main.ProcessMotion(): " + hwErr.Error())
		return
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		hwErr := &models.HardwareError{Op: "gpio-open", Err: errors.New("unable to find GPIO pin " + pinName)}
		log.Log.Error("motionsensor.main.ProcessMotion(): " + hwErr.Error())
		return
	}

	Watch(ctx, pin, configuration, communication, mqttClient)
	log.Log.Debug("motionsensor.main.ProcessMotion(): finished")
}

// Watch configures the pin for both edges and forwards every edge as a
// MotionEvent. A rising edge means the sensor sees movement, a falling
// edge means it settled again. Events are sent without blocking, when
// the channel is full the event is dropped so a stalled consumer can
// never wedge the sensor loop.
func Watch(ctx context.Context, pin GPIOPin, configuration *models.Configuration, communication *models.Communication, mqttClient mqtt.Client) {
	config := configuration.Config

	if err := pin.In(gpio.PullDown, gpio.BothEdges); err != nil {
		hwErr := &models.HardwareError{Op: "gpio-configure", Err: err}
		log.Log.Error("motionsensor.main.Watch(): " + hwErr.Error())
		return
	}
	log.Log.Info("motionsensor.main.Watch(): watching GPIO pin " + config.Motion.GPIOPin)

	for {
		select {
		case <-ctx.Done():
			log.Log.Info("motionsensor.main.Watch(): stopped watching GPIO pin " + config.Motion.GPIOPin)
			return
		default:
		}

		// The timeout keeps the loop responsive to cancellation when
		// the sensor stays quiet.
		if !pin.WaitForEdge(5 * time.Second) {
			continue
		}

		detected := pin.Read() == gpio.High
		event := models.MotionEvent{
			Detected:  detected,
			Timestamp: time.Now(),
		}

		if detected {
			log.Log.Info("motionsensor.main.Watch(): motion detected on " + config.Motion.GPIOPin)
			if mqttClient != nil {
				mqttClient.Publish("kanikamera/"+config.Key+"/motion", 2, false, "motion")
			}
		} else {
			log.Log.Debug("motionsensor.main.Watch(): sensor settled on " + config.Motion.GPIOPin)
		}

		select {
		case communication.HandleMotion <- event:
		default:
			log.Log.Info("motionsensor.main.Watch(): motion channel is full, dropping event.")
		}
	}
}
