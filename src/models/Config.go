package models

// Config is the highlevel struct which contains all the configuration of
// the agent: what to capture, when capturing is allowed, and where the
// resulting media goes.
type Config struct {
	Type           string       `json:"type" binding:"required"`
	Key            string       `json:"key"`
	Name           string       `json:"name"`
	Timezone       string       `json:"timezone,omitempty"`
	Offline        string       `json:"offline,omitempty"`
	Time           string       `json:"time,omitempty"`
	Capture        Capture      `json:"capture"`
	Motion         Motion       `json:"motion"`
	Timetable      []*Timetable `json:"timetable"`
	Cloud          string       `json:"cloud,omitempty"`
	Dropbox        Dropbox      `json:"dropbox"`
	S3             *S3          `json:"s3,omitempty"`
	MQTTURI        string       `json:"mqtturi,omitempty"`
	MQTTUsername   string       `json:"mqtt_username,omitempty"`
	MQTTPassword   string       `json:"mqtt_password,omitempty"`
	HeartbeatURI   string       `json:"heartbeaturi,omitempty"`
	ConditionURI   string       `json:"condition_uri,omitempty"`
	JWTSecret      string       `json:"jwt_secret,omitempty"`
	Encryption     *Encryption  `json:"encryption,omitempty"`
	MaxDiskUsageMB int64        `json:"max_disk_usage_mb,omitempty"`
	LogLevel       string       `json:"log_level,omitempty"`
}

// Capture holds the camera and recording parameters. Resolution is a
// "WIDTHxHEIGHT" string, interval and videoduration are seconds.
type Capture struct {
	Resolution    string `json:"resolution"`
	FrameRate     int    `json:"framerate"`
	Interval      int64  `json:"interval"`
	VideoDuration int64  `json:"videoduration"`
	Quality       int    `json:"quality,omitempty"`
	Rotation      int    `json:"rotation,omitempty"`
	Device        string `json:"device,omitempty"`
	Encoder       string `json:"encoder,omitempty"`
}

// Motion configures the PIR sensor. An empty gpiopin means no sensor is
// attached and disables video capture entirely. The motionless period is
// the number of seconds without motion required before a new detection
// triggers another recording.
type Motion struct {
	GPIOPin          string `json:"gpiopin,omitempty"`
	MotionlessPeriod int64  `json:"motionlessperiod"`
}

// Timetable limits capturing to a predefined time interval per weekday.
// Two tracks can be set, values are seconds since midnight. The slice in
// Config is indexed by time.Weekday (0 = Sunday).
type Timetable struct {
	Start1 int `json:"start1"`
	End1   int `json:"end1"`
	Start2 int `json:"start2"`
	End2   int `json:"end2"`
}

// Dropbox holds the access token and the target directory, which doubles
// as the category segment of the upload path.
type Dropbox struct {
	AccessToken string `json:"accesstoken,omitempty"`
	Directory   string `json:"directory,omitempty"`
}

// S3 holds the credentials for any S3-compatible object store.
type S3 struct {
	Endpoint  string `json:"endpoint,omitempty"`
	Publickey string `json:"publickey,omitempty"`
	Secretkey string `json:"secretkey,omitempty"`
	Region    string `json:"region,omitempty"`
	Bucket    string `json:"bucket,omitempty"`
	Directory string `json:"directory,omitempty"`
	ProxyURI  string `json:"proxyuri,omitempty"`
}

// Encryption encrypts media payloads before they leave the device.
type Encryption struct {
	Enabled      string `json:"enabled"`
	SymmetricKey string `json:"symmetric_key"`
}

// Configuration wraps the active config with the directory it was read
// from, so the agent can write updates back to the same place.
type Configuration struct {
	Name   string `json:"name"`
	Port   string `json:"port"`
	Config Config `json:"config"`
}
