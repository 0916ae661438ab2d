package conditions

import (
	"errors"
	"time"

	"github.com/kanikamera/agent/src/models"
)

// Validate runs all capture conditions. The gate consults this before
// every capture; a false verdict means the cycle is skipped without
// touching the camera.
func Validate(loc *time.Location, configuration *models.Configuration) (valid bool, err error) {
	valid = true
	err = nil

	withinTimeInterval := IsWithinTimeInterval(loc, configuration)
	if !withinTimeInterval {
		valid = false
		err = errors.New("time interval not valid")
		return
	}

	validUriResponse := IsValidUriResponse(configuration)
	if !validUriResponse {
		valid = false
		err = errors.New("uri response not valid")
		return
	}

	return
}
