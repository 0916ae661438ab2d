package cloud

import (
	"bytes"
	"errors"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"
	"github.com/gin-gonic/gin"

	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
)

// UploadDropbox pushes a payload to the Dropbox account behind the
// configured access token. The target already carries the directory as
// its category segment, so it maps straight onto the Dropbox path.
func UploadDropbox(configuration *models.Configuration, target string, payload []byte) error {
	config := configuration.Config

	token := config.Dropbox.AccessToken
	if token == "" {
		return errors.New("dropbox is not properly configured")
	}

	log.Log.Info("cloud.Dropbox.UploadDropbox(): upload started for " + target)

	dConfig := dropbox.Config{
		Token: token,
	}
	dbf := files.New(dConfig)
	res, err := dbf.Upload(&files.UploadArg{
		CommitInfo: files.CommitInfo{
			Path: target,
			Mode: &files.WriteMode{
				Tagged: dropbox.Tagged{
					Tag: "overwrite",
				},
			},
		},
	}, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	log.Log.Info("cloud.Dropbox.UploadDropbox(): file uploaded successfully, " + res.Name)
	return nil
}

// VerifyDropbox checks that the token is valid and a file can be written
// to the configured directory.
func VerifyDropbox(config models.Config, c *gin.Context) {
	token := config.Dropbox.AccessToken
	directory := config.Dropbox.Directory
	if directory != "" {
		// Check if trailing slash if not we'll add one.
		if directory[len(directory)-1:] != "/" {
			directory = directory + "/"
		}
	}

	if token == "" {
		c.JSON(400, models.APIResponse{
			Data: "Dropbox token is not set.",
		})
		return
	}

	dConfig := dropbox.Config{
		Token: token,
	}
	dbx := users.New(dConfig)
	if _, err := dbx.GetCurrentAccount(); err != nil {
		c.JSON(400, models.APIResponse{
			Data: "Something went wrong while reaching the Dropbox API: " + err.Error(),
		})
		return
	}

	dbf := files.New(dConfig)
	_, err := dbf.Upload(&files.UploadArg{
		CommitInfo: files.CommitInfo{
			Path: "/" + directory + "kanikamera-agent-test.txt",
			Mode: &files.WriteMode{
				Tagged: dropbox.Tagged{
					Tag: "overwrite",
				},
			},
		},
	}, bytes.NewReader(testFile))
	if err != nil {
		c.JSON(400, models.APIResponse{
			Data: "Something went wrong while uploading to Dropbox: " + err.Error(),
		})
		return
	}

	c.JSON(200, models.APIResponse{
		Data: "Dropbox is working fine.",
	})
}
