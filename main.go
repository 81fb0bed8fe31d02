package main

import (
	"verseatlas/cmd"
	"verseatlas/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
