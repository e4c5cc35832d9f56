package main

import (
	"github.com/livp123/axtext/cmd/axtext/commands"
	"github.com/livp123/axtext/internal/utils/logger"
)

func main() {
	defer func() { _ = logger.Sync() }()
	commands.Execute()
}
