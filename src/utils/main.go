package utils

import (
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kanikamera/agent/src/log"
	"github.com/kanikamera/agent/src/models"
)

const letterBytes = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	letterIdxBits = 6                    // 6 bits to represent a letter index
	letterIdxMask = 1<<letterIdxBits - 1 // All 1-bits, as many as letterIdxBits
	letterIdxMax  = 63 / letterIdxBits   // # of letter indices fitting in 63 bits
)

func DirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return err
	})
	return size, err
}

// FindOldestFile walks the media tree (one directory level per day) and
// returns the path of the regular file with the oldest modification time.
func FindOldestFile(dir string) (oldestPath string, err error) {
	oldestTime := time.Now()
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() && info.ModTime().Before(oldestTime) {
			oldestPath = path
			oldestTime = info.ModTime()
		}
		return nil
	})
	if err == nil && oldestPath == "" {
		err = os.ErrNotExist
	}
	return
}

func RandStringBytesMaskImpr(n int) string {
	b := make([]byte, n)
	// A rand.Int63() generates 63 random bits, enough for letterIdxMax letters!
	for i, cache, remain := n-1, rand.Int63(), letterIdxMax; i >= 0; {
		if remain == 0 {
			cache, remain = rand.Int63(), letterIdxMax
		}
		if idx := int(cache & letterIdxMask); idx < len(letterBytes) {
			b[i] = letterBytes[idx]
			i--
		}
		cache >>= letterIdxBits
		remain--
	}

	return string(b)
}

func ReadDirectory(directory string) ([]os.FileInfo, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		log.Log.Error("utils.ReadDirectory(): " + err.Error())
		return []os.FileInfo{}, nil
	}
	files := make([]os.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err == nil {
			files = append(files, info)
		}
	}
	return files, nil
}

func GetSortedDirectory(files []os.FileInfo) []os.FileInfo {
	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime().After(files[j].ModTime())
	})
	return files
}

// GetDays lists the day directories (YYYYMMDD) of the media tree, most
// recent first.
func GetDays(mediaDirectory string) []string {
	files, _ := ReadDirectory(mediaDirectory)
	days := []string{}
	for _, file := range files {
		if file.IsDir() && len(file.Name()) == 8 {
			days = append(days, file.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days
}

// GetMediaFormatted turns the files of one day directory into the media
// listing served by the API. File names look like HHMMSS.jpg, HHMMSS.mp4
// or HHMMSS.mp4.aes.
func GetMediaFormatted(mediaDirectory string, day string) []models.MediaFile {
	media := []models.MediaFile{}
	files, _ := ReadDirectory(filepath.Join(mediaDirectory, day))
	files = GetSortedDirectory(files)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		name := file.Name()
		timePart := strings.SplitN(name, ".", 2)[0]
		if len(timePart) != 6 {
			continue
		}
		if _, err := strconv.Atoi(timePart); err != nil {
			continue
		}
		media = append(media, models.MediaFile{
			Key:       name,
			Day:       day,
			Time:      timePart[0:2] + ":" + timePart[2:4] + ":" + timePart[4:6],
			Size:      file.Size(),
			Timestamp: file.ModTime().Unix(),
		})
	}
	return media
}
