// addonloader — инструмент командной строки для установки аддонов WoW.
//
// Использование:
//
//	addonloader [--api-url URL] [--json] <command> [flags]
//
// Команды:
//
//	install   Скачать и распаковать аддон локально
//	resolve   Показать URL архива выбранного релиза
//	installs  Очередь установок и журнал (через API)
//	schedule  Управление расписаниями (через API)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/addonloader/internal/cli"
	"github.com/shaiso/addonloader/internal/config"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "addonloader",
		Short:         "World of Warcraft addon installer",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }
	cfgFn := func() config.Config {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Warning:", err)
		}
		return cfg
	}

	rootCmd.AddCommand(
		cli.NewInstallCmd(cfgFn, outputFn),
		cli.NewResolveCmd(cfgFn, outputFn),
		cli.NewInstallsCmd(clientFn, outputFn),
		cli.NewScheduleCmd(clientFn, outputFn),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
