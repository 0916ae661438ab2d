package cloud

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tevino/abool"

	"github.com/kanikamera/agent/src/encryption"
	"github.com/kanikamera/agent/src/models"
)

// chdir switches to dir for the duration of the test, standing in for
// t.Chdir which needs a newer Go release than this toolchain provides.
func chdir(t *testing.T, dir string) {
	t.Helper()
	previous, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(previous); err != nil {
			t.Fatal(err)
		}
	})
}

func stillJob(startedAt time.Time) models.CaptureJob {
	return models.CaptureJob{
		ID:        "job-1",
		Kind:      models.KindStill,
		StartedAt: startedAt,
		Payload:   []byte{0xff, 0xd8, 0xff},
	}
}

func TestUploadTarget(t *testing.T) {
	morning := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		config   models.Config
		job      models.CaptureJob
		location *time.Location
		want     string
	}{
		{
			name:     "still with default category",
			config:   models.Config{},
			job:      stillJob(morning),
			location: time.UTC,
			want:     "/Kanikuvat/20250310/100000.jpg",
		},
		{
			name:     "video gets mp4 extension",
			config:   models.Config{},
			job:      models.CaptureJob{Kind: models.KindVideo, StartedAt: morning},
			location: time.UTC,
			want:     "/Kanikuvat/20250310/100000.mp4",
		},
		{
			name:     "dropbox directory becomes the category",
			config:   models.Config{Dropbox: models.Dropbox{Directory: "bunny-photos"}},
			job:      stillJob(morning),
			location: time.UTC,
			want:     "/bunny-photos/20250310/100000.jpg",
		},
		{
			name: "s3 directory becomes the category",
			config: models.Config{
				Cloud: "s3",
				S3:    &models.S3{Directory: "/cam1/"},
			},
			job:      stillJob(morning),
			location: time.UTC,
			want:     "/cam1/20250310/100000.jpg",
		},
		{
			name:     "timestamps use the configured timezone",
			config:   models.Config{},
			job:      stillJob(morning),
			location: time.FixedZone("EET", 2*60*60),
			want:     "/Kanikuvat/20250310/120000.jpg",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			configuration := &models.Configuration{Config: tc.config}
			got := UploadTarget(configuration, tc.job, tc.location)
			if got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestStoreLocally(t *testing.T) {
	root := t.TempDir()
	job := stillJob(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))

	path, err := StoreLocally(root, job, time.UTC)
	if err != nil {
		t.Fatalf("expected the capture to be persisted, got %v", err)
	}
	if path != filepath.Join(root, "20250310", "100000.jpg") {
		t.Errorf("unexpected local path %s", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(content, job.Payload) {
		t.Error("persisted payload does not match the capture")
	}
}

func TestEncryptIfNeeded(t *testing.T) {
	payload := []byte("a jpeg, honest")
	target := "/Kanikuvat/20250310/100000.jpg"

	plain, plainTarget, err := EncryptIfNeeded(models.Config{}, payload, target)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plain, payload) || plainTarget != target {
		t.Error("expected payload and target untouched without encryption")
	}

	config := models.Config{
		Encryption: &models.Encryption{Enabled: "true", SymmetricKey: "correct horse battery staple"},
	}
	encrypted, encryptedTarget, err := EncryptIfNeeded(config, payload, target)
	if err != nil {
		t.Fatal(err)
	}
	if encryptedTarget != target+".aes" {
		t.Errorf("expected an .aes suffix, got %s", encryptedTarget)
	}
	if !bytes.HasPrefix(encrypted, []byte("Salted__")) {
		t.Error("expected an OpenSSL compatible header")
	}
	decrypted, err := encryption.AesDecrypt(encrypted, config.Encryption.SymmetricKey)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decrypted, payload) {
		t.Error("expected the payload to survive an encrypt/decrypt roundtrip")
	}
}

func TestUploadOffline(t *testing.T) {
	configuration := &models.Configuration{
		Config: models.Config{Offline: "true"},
	}
	if err := Upload(configuration, stillJob(time.Now())); err != nil {
		t.Errorf("expected offline mode to succeed without uploading, got %v", err)
	}
}

func TestUploadUnknownProvider(t *testing.T) {
	configuration := &models.Configuration{
		Config: models.Config{Cloud: "ftp"},
	}
	err := Upload(configuration, stillJob(time.Now()))
	if err == nil {
		t.Fatal("expected an unknown provider to error")
	}
	var uploadErr *models.UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("expected an upload error, got %T", err)
	}
	if uploadErr.Provider != "ftp" {
		t.Errorf("expected the provider in the error, got %s", uploadErr.Provider)
	}
}

func TestHandleUploadSurvivesFailures(t *testing.T) {
	chdir(t, t.TempDir())

	// An unknown provider makes every upload fail without touching the
	// network, the worker has to keep persisting and draining anyway.
	configuration := &models.Configuration{
		Config: models.Config{Cloud: "ftp"},
	}
	communication := &models.Communication{
		HandleUpload: make(chan models.CaptureJob, 10),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		HandleUpload(ctx, ".", configuration, communication, nil)
		close(done)
	}()

	communication.HandleUpload <- stillJob(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))
	communication.HandleUpload <- stillJob(time.Date(2025, 3, 10, 10, 0, 5, 0, time.UTC))

	deadline := time.Now().Add(2 * time.Second)
	first := filepath.Join("data", "media", "20250310", "100000.jpg")
	second := filepath.Join("data", "media", "20250310", "100005.jpg")
	for {
		_, err1 := os.Stat(first)
		_, err2 := os.Stat(second)
		if err1 == nil && err2 == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected both captures to be persisted despite failing uploads")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the worker to stop on cancellation")
	}
}

func TestBuildHeartbeat(t *testing.T) {
	configuration := &models.Configuration{
		Config: models.Config{Key: "abc", Name: "hutch"},
	}
	var lastStill atomic.Value
	lastStill.Store(int64(1741600800))
	communication := &models.Communication{
		HandleUpload: make(chan models.CaptureJob, 10),
		IsRecording:  abool.New(),
		LastStillAt:  &lastStill,
	}
	communication.HandleUpload <- stillJob(time.Now())
	communication.HandleUpload <- stillJob(time.Now())
	communication.IsRecording.Set()

	heartbeat := BuildHeartbeat(configuration, communication)
	if heartbeat.Key != "abc" || heartbeat.Name != "hutch" {
		t.Error("expected the device identity in the heartbeat")
	}
	if heartbeat.Version == "" {
		t.Error("expected a version in the heartbeat")
	}
	if heartbeat.QueueDepth != 2 {
		t.Errorf("expected a queue depth of 2, got %d", heartbeat.QueueDepth)
	}
	if !heartbeat.Recording {
		t.Error("expected the recording flag to be set")
	}
	if heartbeat.LastStill != 1741600800 {
		t.Errorf("expected the last still timestamp, got %d", heartbeat.LastStill)
	}
}
