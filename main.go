package main

import (
	"fmt"
	"os"

	"vbaranov/ledgerbot/cmd/export"
	"vbaranov/ledgerbot/cmd/root"
	"vbaranov/ledgerbot/cmd/summary"
	"vbaranov/ledgerbot/internal/config"
)

func init() {
	// Load .env before anything reads the environment.
	config.LoadEnv()

	root.Init()
	root.Cmd.AddCommand(export.Cmd)
	root.Cmd.AddCommand(summary.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
