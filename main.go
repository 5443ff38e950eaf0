package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"propfin/ledger-sync/cmd/classify"
	"propfin/ledger-sync/cmd/flows"
	"propfin/ledger-sync/cmd/push"
	"propfin/ledger-sync/cmd/reconcile"
	"propfin/ledger-sync/cmd/root"
	"propfin/ledger-sync/cmd/sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func init() {
	// 1. Load environment variables silently first (no logging yet)
	loadEnvSilently()

	// 2. Configure the global log level before any logging happens
	configureLogLevel()

	// 3. Initialize the root command and its flags
	root.Init()

	// 4. Add all subcommands
	root.Cmd.AddCommand(sync.Cmd)
	root.Cmd.AddCommand(push.Cmd)
	root.Cmd.AddCommand(reconcile.Cmd)
	root.Cmd.AddCommand(classify.Cmd)
	root.Cmd.AddCommand(flows.Cmd)
}

// loadEnvSilently loads environment variables without logging anything
func loadEnvSilently() {
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		envFile = filepath.Join("..", ".env")
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			return
		}
	}
	_ = godotenv.Load(envFile)
}

// configureLogLevel sets the global log level for all logrus instances from
// the LOG_LEVEL environment variable.
func configureLogLevel() {
	logLevelStr := os.Getenv("LOG_LEVEL")
	if logLevelStr == "" {
		logLevelStr = "info"
	}

	logLevel, err := logrus.ParseLevel(strings.ToLower(logLevelStr))
	if err != nil {
		logLevel = logrus.InfoLevel
	}

	logrus.SetLevel(logLevel)
	root.Log.SetLevel(logLevel)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
