package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noelzubin/quick_nav/logging"
	"github.com/noelzubin/quick_nav/utils"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", utils.DefaultConfigPath(), "path to the config file")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	config, err := utils.NewConfig(configPath)
	if err != nil {
		return err
	}

	if err := logging.Init(config.Log); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logging.Shutdown()

	m, err := New(config)
	if err != nil {
		return err
	}
	if err := m.app.Init(context.Background()); err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, runErr := p.Run()

	if err := m.app.Teardown(); err != nil {
		uiLog.Error("teardown_failed", "error", err)
	}
	return runErr
}
