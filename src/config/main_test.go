package config

import (
	"errors"
	"os"
	"testing"

	"github.com/kanikamera/agent/src/models"
	"github.com/tevino/abool"
)

func TestOpenConfigWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	configuration := &models.Configuration{Name: "agent"}

	if err := OpenConfig(dir, configuration); err != nil {
		t.Fatalf("OpenConfig on an empty directory should succeed, got: %s", err)
	}

	config := configuration.Config
	if config.Type != "agent" {
		t.Errorf("expected type agent, got %q", config.Type)
	}
	if config.Capture.Interval != 300 {
		t.Errorf("expected default interval 300, got %d", config.Capture.Interval)
	}
	if config.Dropbox.Directory != "Kanikuvat" {
		t.Errorf("expected default category Kanikuvat, got %q", config.Dropbox.Directory)
	}
	if config.Key == "" {
		t.Error("expected a generated agent key")
	}
	if _, err := os.Stat(dir + "/data/config/config.json"); err != nil {
		t.Errorf("expected defaults to be persisted: %s", err)
	}
}

func TestOpenConfigReadsExisting(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(dir+"/data/config", 0755); err != nil {
		t.Fatal(err)
	}
	body := `{"type": "agent", "key": "abc", "name": "hallway", "capture": {"interval": 60}}`
	if err := os.WriteFile(dir+"/data/config/config.json", []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	configuration := &models.Configuration{Name: "agent"}
	if err := OpenConfig(dir, configuration); err != nil {
		t.Fatalf("OpenConfig failed: %s", err)
	}

	if configuration.Config.Name != "hallway" {
		t.Errorf("expected name from file, got %q", configuration.Config.Name)
	}
	if configuration.Config.Capture.Interval != 60 {
		t.Errorf("expected interval from file, got %d", configuration.Config.Capture.Interval)
	}
	// Fields the file does not mention keep their defaults.
	if configuration.Config.Capture.VideoDuration != 60 {
		t.Errorf("expected default video duration, got %d", configuration.Config.Capture.VideoDuration)
	}
	if configuration.Config.Key != "abc" {
		t.Errorf("expected key from file, got %q", configuration.Config.Key)
	}
}

func TestOpenConfigInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(dir+"/data/config", 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir+"/data/config/config.json", []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}

	configuration := &models.Configuration{Name: "agent"}
	err := OpenConfig(dir, configuration)
	if err == nil {
		t.Fatal("expected an error for invalid json")
	}
	var configErr *models.ConfigError
	if !errors.As(err, &configErr) {
		t.Errorf("expected a ConfigError, got %T", err)
	}
}

func TestOverrideWithEnvironmentVariables(t *testing.T) {
	t.Setenv("AGENT_CAPTURE_INTERVAL", "120")
	t.Setenv("AGENT_MOTION_GPIO_PIN", "GPIO7")
	t.Setenv("AGENT_DROPBOX_ACCESS_TOKEN", "token-from-env")
	t.Setenv("AGENT_TIMETABLE_START", "8")
	t.Setenv("AGENT_TIMETABLE_END", "18")

	configuration := &models.Configuration{Config: Defaults()}
	OverrideWithEnvironmentVariables(configuration)

	config := configuration.Config
	if config.Capture.Interval != 120 {
		t.Errorf("expected interval 120 from env, got %d", config.Capture.Interval)
	}
	if config.Motion.GPIOPin != "GPIO7" {
		t.Errorf("expected gpio pin from env, got %q", config.Motion.GPIOPin)
	}
	if config.Dropbox.AccessToken != "token-from-env" {
		t.Errorf("expected token from env, got %q", config.Dropbox.AccessToken)
	}
	monday := config.Timetable[1]
	if monday.Start1 != 8*3600 || monday.End1 != 18*3600 {
		t.Errorf("expected timetable 8-18 from env, got %d-%d", monday.Start1, monday.End1)
	}
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.Dropbox.AccessToken = "token"

	tests := []struct {
		name    string
		mutate  func(c *models.Config)
		wantErr bool
	}{
		{"valid dropbox config", func(c *models.Config) {}, false},
		{"missing upload token", func(c *models.Config) { c.Dropbox.AccessToken = "" }, true},
		{"offline needs no token", func(c *models.Config) {
			c.Dropbox.AccessToken = ""
			c.Offline = "true"
		}, false},
		{"zero interval", func(c *models.Config) { c.Capture.Interval = 0 }, true},
		{"negative video duration", func(c *models.Config) { c.Capture.VideoDuration = -5 }, true},
		{"zero framerate", func(c *models.Config) { c.Capture.FrameRate = 0 }, true},
		{"bad resolution", func(c *models.Config) { c.Capture.Resolution = "tiny" }, true},
		{"unknown timezone", func(c *models.Config) { c.Timezone = "Mars/Olympus" }, true},
		{"s3 incomplete", func(c *models.Config) {
			c.Cloud = "s3"
			c.S3 = &models.S3{Publickey: "a"}
		}, true},
		{"s3 complete", func(c *models.Config) {
			c.Cloud = "s3"
			c.S3 = &models.S3{Publickey: "a", Secretkey: "b", Bucket: "c"}
		}, false},
		{"unknown provider", func(c *models.Config) { c.Cloud = "gopherstore" }, true},
		{"encryption without key", func(c *models.Config) {
			c.Encryption = &models.Encryption{Enabled: "true"}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.mutate(&config)
			err := Validate(&config)
			if tt.wantErr && err == nil {
				t.Error("expected a ConfigError, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got: %s", err)
			}
			if err != nil {
				var configErr *models.ConfigError
				if !errors.As(err, &configErr) {
					t.Errorf("expected a ConfigError, got %T", err)
				}
			}
		})
	}
}

func TestParseResolution(t *testing.T) {
	width, height, err := ParseResolution("1296x972")
	if err != nil || width != 1296 || height != 972 {
		t.Errorf("ParseResolution(1296x972) = %d, %d, %v", width, height, err)
	}
	if _, _, err := ParseResolution("no-res"); err == nil {
		t.Error("expected an error for a malformed resolution")
	}
	if _, _, err := ParseResolution("0x972"); err == nil {
		t.Error("expected an error for a zero dimension")
	}
}

func TestSaveConfigMergesAndSignals(t *testing.T) {
	dir := t.TempDir()
	current := Defaults()
	current.Key = "abc"
	current.Dropbox.AccessToken = "token"
	configuration := &models.Configuration{Name: "agent", Config: current}
	communication := &models.Communication{
		HandleBootstrap: make(chan string, 1),
		IsConfiguring:   abool.New(),
	}

	update := models.Config{
		Type:    "agent",
		Capture: models.Capture{Interval: 120},
	}
	if err := SaveConfig(dir, update, configuration, communication); err != nil {
		t.Fatalf("SaveConfig failed: %s", err)
	}

	if configuration.Config.Capture.Interval != 120 {
		t.Errorf("expected merged interval 120, got %d", configuration.Config.Capture.Interval)
	}
	if configuration.Config.Capture.FrameRate != 30 {
		t.Errorf("zero framerate in the update should keep the default, got %d", configuration.Config.Capture.FrameRate)
	}
	if configuration.Config.Dropbox.AccessToken != "token" {
		t.Error("an empty token in the update should keep the current one")
	}
	if configuration.Config.Timetable == nil {
		t.Error("an absent timetable in the update should keep the current one")
	}

	select {
	case status := <-communication.HandleBootstrap:
		if status != "restart" {
			t.Errorf("expected a restart request, got %q", status)
		}
	default:
		t.Error("expected SaveConfig to request a restart")
	}

	if _, err := os.Stat(dir + "/data/config/config.json"); err != nil {
		t.Errorf("expected the merged config to be persisted: %s", err)
	}
}

func TestSaveConfigRejectsInvalidUpdate(t *testing.T) {
	dir := t.TempDir()
	current := Defaults()
	current.Dropbox.AccessToken = "token"
	configuration := &models.Configuration{Name: "agent", Config: current}
	communication := &models.Communication{
		HandleBootstrap: make(chan string, 1),
		IsConfiguring:   abool.New(),
	}

	update := models.Config{Type: "agent", Capture: models.Capture{Resolution: "potato"}}
	if err := SaveConfig(dir, update, configuration, communication); err == nil {
		t.Fatal("expected SaveConfig to reject an invalid resolution")
	}
	if configuration.Config.Capture.Resolution != "1296x972" {
		t.Error("a rejected update must not change the running config")
	}
}
