package utils

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

func AddToLogMessage(logMessagesBuilder *strings.Builder, strToAdd string) {

	if logMessagesBuilder.Len() == logMessagesBuilder.Cap() {

		logMessagesBuilder.Grow(len(strToAdd))
	}

	logMessagesBuilder.WriteString(strToAdd)
	logMessagesBuilder.WriteString(";")
	logMessagesBuilder.WriteString("\n")
}

// FlushLogMessage writes the accumulated request log as a single entry
func FlushLogMessage(logMessagesBuilder *strings.Builder) {
	if logMessagesBuilder.Len() == 0 {
		return
	}
	log.Info(strings.TrimRight(logMessagesBuilder.String(), "\n"))
}
