package main

import (
	"unified-calendar/core/logger"
	"unified-calendar/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", "error", err)
	}
}
