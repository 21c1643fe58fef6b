/*
Copyright 2025 Crewmark Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/crewmark/crewmark"
	"github.com/crewmark/crewmark/config"
	"github.com/crewmark/crewmark/database"
	"github.com/crewmark/crewmark/internal/notification"
)

// Crewmark represents the CLI application, encapsulating the root Cobra command.
type Crewmark struct {
	cmd *cobra.Command
}

// crewmarkInstance holds the service instance and its configuration, shared by
// every subcommand after preRun.
type crewmarkInstance struct {
	crewmark *crewmark.Crewmark
	cnf      *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun sets up the configuration and initializes the service instance before
// running any command.
func preRun(app *crewmarkInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("crewmark.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newCrewmark, err := setupCrewmark(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.crewmark = newCrewmark
		app.cnf = cnf

		return nil
	}
}

// setupCrewmark creates and initializes a new service instance from the
// provided configuration.
func setupCrewmark(cfg *config.Configuration) (*crewmark.Crewmark, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newCrewmark, err := crewmark.NewCrewmark(db)
	if err != nil {
		return nil, fmt.Errorf("error creating crewmark: %v", err)
	}
	return newCrewmark, nil
}

// NewCLI creates the command-line interface for the Crewmark application.
func NewCLI() *Crewmark {
	var configFile string
	b := &crewmarkInstance{}

	var rootCmd = &cobra.Command{
		Use:   "crewmark",
		Short: "Creator campaign marketplace core",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./crewmark.json", "Configuration file for crewmark")

	rootCmd.PersistentPreRunE = preRun(b)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(workerCommands(b))
	rootCmd.AddCommand(migrateCommands(b))

	return &Crewmark{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during
// execution.
func (w Crewmark) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
