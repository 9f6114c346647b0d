package logging

import (
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Configure routes the standard logger to a rotating file. Batch runs are
// chatty (one line per episode and per backend attempt), so rotated
// archives are compressed and kept for two weeks.
func Configure(path string) {
	log.SetOutput(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    20, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
}
