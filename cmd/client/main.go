package main

import (
	"github.com/archivelabs/lenny/internal/command"
	"github.com/archivelabs/lenny/internal/command/auth"
	"github.com/archivelabs/lenny/internal/command/upload"
	"github.com/archivelabs/lenny/internal/command/watch"
)

func main() {
	command.Main(
		"lenny-cli", "a lenny librarian tool",
		auth.LoginCommand(),
		auth.LogoutCommand(),
		upload.Command(),
		watch.Command(),
	)
}
