package video

import (
	"errors"
	"os"
	"time"

	mp4ff "github.com/Eyevinn/mp4ff/mp4"
)

// Info describes a finalized MP4 container.
type Info struct {
	Duration time.Duration
	Tracks   int
	Size     int64
}

// Probe parses the container at fileName and reports its duration,
// track count and size. It fails on anything without a moov box, which
// is how a truncated or still-being-written file looks.
func Probe(fileName string) (*Info, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	parsed, err := mp4ff.DecodeFile(f)
	if err != nil {
		return nil, err
	}
	if parsed.Moov == nil {
		return nil, errors.New("no moov box, not a finalized MP4")
	}

	mvhd := parsed.Moov.Mvhd
	if mvhd == nil || mvhd.Timescale == 0 {
		return nil, errors.New("missing movie header")
	}
	duration := time.Duration(float64(mvhd.Duration) / float64(mvhd.Timescale) * float64(time.Second))

	return &Info{
		Duration: duration,
		Tracks:   len(parsed.Moov.Traks),
		Size:     stat.Size(),
	}, nil
}
