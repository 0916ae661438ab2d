package mqtt

import (
	"math/rand"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
)

// Broker settings the running client was built from. Bootstrap compares
// them against the freshly loaded config after a restart to decide
// whether the client needs to be rebuilt.
var prevMQTTURI string
var prevMQTTUsername string
var prevMQTTPassword string

// ConfigureMQTT builds and connects the MQTT client. The broker is
// optional: without an uri the agent runs without remote triggers and a
// nil client is returned.
func ConfigureMQTT(configuration *models.Configuration, communication *models.Communication) mqtt.Client {

	config := configuration.Config

	prevMQTTURI = config.MQTTURI
	prevMQTTUsername = config.MQTTUsername
	prevMQTTPassword = config.MQTTPassword

	mqttURL := config.MQTTURI
	if mqttURL == "" {
		log.Log.Info("routers.mqtt.main.ConfigureMQTT(): no broker configured, remote triggers are disabled.")
		return nil
	}

	opts := mqtt.NewClientOptions()

	// We will set the MQTT endpoint to which we want to connect
	// and share and receive messages to/from.
	opts.AddBroker(mqttURL)
	log.Log.Info("routers.mqtt.main.ConfigureMQTT(): set broker uri " + mqttURL)

	// Our MQTT broker can have username/password credentials
	// to protect it from the outside.
	mqttUsername := config.MQTTUsername
	mqttPassword := config.MQTTPassword
	if mqttUsername != "" || mqttPassword != "" {
		opts.SetUsername(mqttUsername)
		opts.SetPassword(mqttPassword)
		log.Log.Info("routers.mqtt.main.ConfigureMQTT(): set username " + mqttUsername)
	}

	// Some extra options to make sure the connection behaves
	// properly. More information here: github.com/eclipse/paho.mqtt.golang.
	opts.SetCleanSession(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(30 * time.Second)

	mqttClientID := config.Key + strconv.Itoa(rand.Intn(100)) // this random int is to avoid conflicts.
	opts.SetClientID(mqttClientID)
	log.Log.Info("routers.mqtt.main.ConfigureMQTT(): set client id " + mqttClientID)

	opts.OnConnect = func(c mqtt.Client) {

		log.Log.Info("routers.mqtt.main.ConfigureMQTT(): " + mqttClientID + " connected to " + mqttURL)

		// Create a subscription for on-demand snapshots.
		MQTTListenerHandleSnapshot(c, configuration, communication)

		// Create a subscription for remote restarts.
		MQTTListenerHandleRestart(c, configuration, communication)
	}

	mqc := mqtt.NewClient(opts)
	if token := mqc.Connect(); token.WaitTimeout(3 * time.Second) {
		if token.Error() != nil {
			log.Log.Error("routers.mqtt.main.ConfigureMQTT(): unable to establish mqtt broker connection, error was: " + token.Error().Error())
		}
	}
	return mqc
}

// MQTTListenerHandleSnapshot triggers an on-demand still through the
// same channel the REST API uses.
func MQTTListenerHandleSnapshot(mqttClient mqtt.Client, configuration *models.Configuration, communication *models.Communication) {
	config := configuration.Config
	topicSnapshot := "kanikamera/" + config.Key + "/snapshot"
	mqttClient.Subscribe(topicSnapshot, 0, func(c mqtt.Client, msg mqtt.Message) {
		log.Log.Info("routers.mqtt.main.MQTTListenerHandleSnapshot(): received request for a snapshot.")
		select {
		case communication.HandleSnapshot <- "mqtt":
		default:
		}
		msg.Ack()
	})
}

// MQTTListenerHandleRestart reloads the agent remotely, picking up
// configuration changes pushed out of band.
func MQTTListenerHandleRestart(mqttClient mqtt.Client, configuration *models.Configuration, communication *models.Communication) {
	config := configuration.Config
	topicRestart := "kanikamera/" + config.Key + "/restart"
	mqttClient.Subscribe(topicRestart, 0, func(c mqtt.Client, msg mqtt.Message) {
		log.Log.Info("routers.mqtt.main.MQTTListenerHandleRestart(): received request to restart.")
		select {
		case communication.HandleBootstrap <- "restart":
		default:
		}
		msg.Ack()
	})
}

// HasMQTTClientModified reports whether the broker settings changed
// since the client was configured, e.g. through the config API.
func HasMQTTClientModified(configuration *models.Configuration) bool {
	config := configuration.Config
	return config.MQTTURI != prevMQTTURI ||
		config.MQTTUsername != prevMQTTUsername ||
		config.MQTTPassword != prevMQTTPassword
}

// DisconnectMQTT unsubscribes the agent topics and closes the connection.
func DisconnectMQTT(mqttClient mqtt.Client, config *models.Config) {
	if mqttClient == nil {
		return
	}
	mqttClient.Unsubscribe(
		"kanikamera/"+config.Key+"/snapshot",
		"kanikamera/"+config.Key+"/restart",
	)
	mqttClient.Disconnect(1000)
}
