package cloud

import (
	"bytes"
	"crypto/tls"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v6"

	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
)

func s3Client(s3 *models.S3) (*minio.Client, error) {
	endpoint := s3.Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	client, err := minio.NewWithRegion(endpoint, s3.Publickey, s3.Secretkey, true, s3.Region)
	if err != nil {
		return nil, err
	}

	// Check if we need to use the proxy.
	if s3.ProxyURI != "" {
		var transport http.RoundTripper = &http.Transport{
			Proxy: func(*http.Request) (*url.URL, error) {
				return url.Parse(s3.ProxyURI)
			},
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		client.SetCustomTransport(transport)
	}
	return client, nil
}

// UploadS3 pushes a payload to any S3-compatible object store. The
// object name is the upload target without its leading slash.
func UploadS3(configuration *models.Configuration, target string, payload []byte) error {
	config := configuration.Config

	if config.S3 == nil {
		return errors.New("s3 is not properly configured")
	}
	if config.S3.Publickey == "" || config.S3.Secretkey == "" {
		return errors.New("no s3 credentials found")
	}
	if config.S3.Bucket == "" {
		return errors.New("no s3 bucket configured")
	}

	client, err := s3Client(config.S3)
	if err != nil {
		return err
	}

	object := strings.TrimPrefix(target, "/")
	log.Log.Info("cloud.S3.UploadS3(): upload started for " + object)

	n, err := client.PutObject(config.S3.Bucket,
		object,
		bytes.NewReader(payload),
		int64(len(payload)),
		minio.PutObjectOptions{
			ContentType:  ContentTypeFor(target),
			StorageClass: "ONEZONE_IA",
			UserMetadata: map[string]string{
				"device-key":  config.Key,
				"device-name": config.Name,
			},
		})
	if err != nil {
		return err
	}

	log.Log.Info("cloud.S3.UploadS3(): upload finished, " + strconv.FormatInt(n, 10) + " bytes written to bucket " + config.S3.Bucket)
	return nil
}

// VerifyS3 checks the credentials by writing a test object to the bucket.
func VerifyS3(config models.Config, c *gin.Context) {
	if config.S3 == nil || config.S3.Publickey == "" || config.S3.Secretkey == "" {
		c.JSON(400, models.APIResponse{
			Data: "S3 credentials are not set.",
		})
		return
	}
	if config.S3.Bucket == "" {
		c.JSON(400, models.APIResponse{
			Data: "S3 bucket is not set.",
		})
		return
	}

	client, err := s3Client(config.S3)
	if err != nil {
		c.JSON(400, models.APIResponse{
			Data: "Something went wrong while creating the S3 client: " + err.Error(),
		})
		return
	}

	object := strings.Trim(config.S3.Directory, "/")
	if object != "" {
		object += "/"
	}
	object += "kanikamera-agent-test.txt"

	_, err = client.PutObject(config.S3.Bucket,
		object,
		bytes.NewReader(testFile),
		int64(len(testFile)),
		minio.PutObjectOptions{ContentType: "text/plain"})
	if err != nil {
		c.JSON(400, models.APIResponse{
			Data: "Something went wrong while uploading to S3: " + err.Error(),
		})
		return
	}

	c.JSON(200, models.APIResponse{
		Data: "S3 is working fine.",
	})
}
