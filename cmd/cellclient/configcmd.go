package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/cellclient/internal/config"
	"github.com/vango-dev/cellclient/internal/errors"
)

func configCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cellclient.json",
	}
	cmd.AddCommand(configInitCmd(flags), configShowCmd(flags), configCheckCmd(flags))
	return cmd
}

func configInitCmd(flags *globalFlags) *cobra.Command {
	var (
		force  bool
		server string
		name   string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Long: `Write a config file with every setting at its default value.

Examples:
  cellclient config init
  cellclient config init --server wss://eu.example.net:443 --name bob
  cellclient -c ~/.cellclient.json config init --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.configPath
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New("E182").WithDetail(path)
			}

			cfg := config.New()
			if server != "" {
				cfg.Servers = []string{server}
			}
			if name != "" {
				cfg.Identity.Name = name
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return errors.New("E104").Wrap(err)
				}
			}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			success("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	cmd.Flags().StringVar(&server, "server", "", "Default server URL")
	cmd.Flags().StringVar(&name, "name", "", "Player name")

	return cmd
}

func configShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(flags.configPath)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func configCheckCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(flags.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			success("%s is valid", flags.configPath)
			return nil
		},
	}
}
