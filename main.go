package main

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/claimflow/cmd/aba"
	"fjacquet/claimflow/cmd/claim"
	"fjacquet/claimflow/cmd/confirm"
	"fjacquet/claimflow/cmd/extract"
	"fjacquet/claimflow/cmd/importfixtures"
	"fjacquet/claimflow/cmd/match"
	"fjacquet/claimflow/cmd/root"
	"fjacquet/claimflow/internal/config"

	"github.com/sirupsen/logrus"
)

func init() {
	// Environment first, so CLAIMFLOW_LOG_LEVEL applies before any logger exists.
	config.LoadEnv()
	configureLogLevelDirectly()

	root.Init()
	root.Cmd.AddCommand(extract.Cmd)
	root.Cmd.AddCommand(match.Cmd)
	root.Cmd.AddCommand(confirm.Cmd)
	root.Cmd.AddCommand(claim.Cmd)
	root.Cmd.AddCommand(aba.Cmd)
	root.Cmd.AddCommand(importfixtures.Cmd)
}

// configureLogLevelDirectly sets the global logrus level from the environment.
func configureLogLevelDirectly() {
	level, err := logrus.ParseLevel(strings.ToLower(os.Getenv(config.EnvPrefix + "_LOG_LEVEL")))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func main() {
	err := root.Cmd.Execute()
	if closeErr := root.Teardown(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
