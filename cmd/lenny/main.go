package main

import (
	"github.com/archivelabs/lenny/internal/command"
	"github.com/archivelabs/lenny/internal/command/clients"
)

func main() {
	command.Main(
		"lenny", "the lenny operator tool",
		clients.Command(),
	)
}
