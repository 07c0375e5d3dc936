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

// Package diagconfig loads a rendered mysql-diag configuration document and
// exposes the connection helpers the diagnostics tool needs.
package diagconfig

import (
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"

	"github.com/pingcap/mysql-diag-config/pkg/resolver"
	"github.com/pingcap/mysql-diag-config/pkg/types"
)

const connectTimeout = 10 * time.Second

// Config is a rendered mysql-diag configuration
type Config struct {
	Mysql  MysqlConfig           `yaml:"mysql"`
	Canary *types.CanaryEndpoint `yaml:"canary,omitempty"`
}

// MysqlConfig is the mysql section with connection helpers attached
type MysqlConfig struct {
	types.MysqlSection `yaml:",inline"`
}

// LoadFromFile reads a rendered document. JSON documents are accepted too.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &c, nil
}

// Validate rejects documents that could not have been produced by the resolver
func (c *Config) Validate() error {
	if c.Mysql.Username == "" || c.Mysql.Password == "" {
		return resolver.ErrMissingCredentials
	}
	return nil
}

// HostsWithLogs returns the host of every node in document order
func (c *Config) HostsWithLogs() []string {
	var result []string
	for _, node := range c.Mysql.Nodes {
		result = append(result, node.Host)
	}
	return result
}

// DSN returns the driver configuration for one node
func (m *MysqlConfig) DSN(node types.ClusterNode) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = m.Username
	cfg.Passwd = m.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(node.Host, strconv.Itoa(m.Port))
	cfg.Timeout = connectTimeout
	cfg.ReadTimeout = connectTimeout
	cfg.TLSConfig = "preferred"
	return cfg
}

// ConnectionString builds the DSN used to reach one node
func (m *MysqlConfig) ConnectionString(node types.ClusterNode) string {
	return m.DSN(node).FormatDSN()
}

// Connection opens a lazy connection pool to one node
func (m *MysqlConfig) Connection(node types.ClusterNode) (*sql.DB, error) {
	connector, err := mysql.NewConnector(m.DSN(node))
	if err != nil {
		return nil, fmt.Errorf("database configuration problem: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// HTTPClient returns a client for an endpoint described by cfg.
// With TLS enabled only the configured CA is trusted.
func HTTPClient(cfg types.TLSConfig) (*http.Client, error) {
	httpClient := &http.Client{}

	if cfg.Enabled {
		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM([]byte(cfg.CA)) {
			return nil, fmt.Errorf("no certificates found in ca for %q", cfg.ServerName)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				RootCAs:    certPool,
				ServerName: cfg.ServerName,
				MinVersion: tls.VersionTLS12,
			},
		}
	}

	return httpClient, nil
}
