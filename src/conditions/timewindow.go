package conditions

import (
	"time"

	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
)

func IsWithinTimeInterval(loc *time.Location, configuration *models.Configuration) bool {
	return WithinTimetable(time.Now().In(loc), configuration.Config)
}

// WithinTimetable checks the policy window for a specific moment. The
// timetable is indexed by weekday, an absent or zeroed entry closes that
// day completely. Setting time to "false" disables the window altogether.
func WithinTimetable(now time.Time, config models.Config) (enabled bool) {
	enabled = true
	if config.Time == "false" {
		return
	}
	if config.Timetable == nil || len(config.Timetable) == 0 {
		return
	}
	weekday := now.Weekday()
	timeInterval := config.Timetable[int(weekday)%len(config.Timetable)]
	if timeInterval == nil {
		log.Log.Debug("conditions.timewindow.WithinTimetable(): no interval for weekday, disabling capture.")
		enabled = false
		return
	}
	start1 := timeInterval.Start1
	end1 := timeInterval.End1
	start2 := timeInterval.Start2
	end2 := timeInterval.End2
	currentTimeInSeconds := now.Hour()*60*60 + now.Minute()*60 + now.Second()
	if (currentTimeInSeconds >= start1 && currentTimeInSeconds <= end1) ||
		(currentTimeInSeconds >= start2 && currentTimeInSeconds <= end2) {
		log.Log.Debug("conditions.timewindow.WithinTimetable(): time interval valid, enabling capture.")
	} else {
		log.Log.Info("conditions.timewindow.WithinTimetable(): time interval not valid, disabling capture.")
		enabled = false
	}
	return
}
