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

	"github.com/pingcap/mysql-diag-config/pkg/manifest"
	"github.com/pingcap/mysql-diag-config/pkg/render"
	"github.com/pingcap/mysql-diag-config/pkg/resolver"
)

type renderOptions struct {
	contextPath string
	format      string
	output      string
}

func newRenderCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the mysql-diag configuration from a render context",
		Example: `  mysql-diag-config render --context context.yml
  mysql-diag-config render --context context.json --format json --output /var/vcap/jobs/mysql-diag/config/mysql-diag-config.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := renderOptions{
				contextPath: v.GetString("context"),
				format:      v.GetString("format"),
				output:      v.GetString("output"),
			}
			return runRender(opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("context", "", "Path to the render context (YAML or JSON)")
	cmd.Flags().String("format", string(render.YAMLFormat), "Output format (yaml, json, toml)")
	cmd.Flags().String("output", "", "Output file path (default: stdout)")

	return cmd
}

func runRender(opts renderOptions, stdout io.Writer) error {
	if opts.contextPath == "" {
		return fmt.Errorf("--context is required")
	}

	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	in, err := manifest.LoadFromFile(opts.contextPath)
	if err != nil {
		return err
	}

	r := resolver.New()
	creds, err := r.ResolveCredentials(*in)
	if err != nil {
		return err
	}
	doc, err := r.Resolve(*in)
	if err != nil {
		return err
	}
	log.Debug().
		Str("credentials", string(creds.Origin)).
		Int("nodes", len(doc.Mysql.Nodes)).
		Int("port", doc.Mysql.Port).
		Bool("canary", doc.Canary != nil).
		Msg("configuration resolved")

	rdr := render.NewRenderer(format)
	if opts.output != "" {
		if err := rdr.WriteFile(doc, opts.output); err != nil {
			return err
		}
		log.Info().Str("path", opts.output).Str("format", string(format)).Msg("configuration written")
		return nil
	}

	data, err := rdr.Render(doc)
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}
