// Copyright 2024 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pingcap/mysql-diag-config/pkg/diagconfig"
)

func newCheckCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "check",
		Short:   "Check a rendered mysql-diag configuration",
		Example: "  mysql-diag-config check --config mysql-diag-config.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(v.GetString("config"), cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("config", "", "Path to a rendered mysql-diag configuration")

	return cmd
}

func runCheck(path string, stdout io.Writer) error {
	if path == "" {
		return fmt.Errorf("--config is required")
	}

	c, err := diagconfig.LoadFromFile(path)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	for _, node := range c.Mysql.Nodes {
		dsn := c.Mysql.DSN(node)
		fmt.Fprintf(stdout, "%s\t%s\t%s\n", node.Name, node.UUID, dsn.Addr)
	}
	if c.Canary != nil {
		fmt.Fprintf(stdout, "canary\tapi_port=%d\ttls=%t\n", c.Canary.APIPort, c.Canary.TLS.Enabled)
	}

	log.Info().Int("nodes", len(c.Mysql.Nodes)).Bool("canary", c.Canary != nil).Msg("configuration is valid")
	return nil
}
