package main

import (
	"fmt"
	"os"

	"github.com/gavinvoiceai/meetflow-saas/meetctl/internal/app"
	"github.com/gavinvoiceai/meetflow-saas/meetctl/internal/cli"
	"github.com/gavinvoiceai/meetflow-saas/meetctl/internal/config"
	"github.com/gavinvoiceai/meetflow-saas/meetctl/internal/output"
)

func main() {
	if err := run(); err != nil {
		output.NewFormatter(os.Stderr).Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	deps := &cli.Dependencies{App: app.New(cfg)}
	return cli.NewRootCmd(deps).Execute()
}
