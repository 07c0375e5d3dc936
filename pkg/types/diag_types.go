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

// Package types provides the data model shared by the manifest parser, the
// resolver, the renderer and the rendered-config consumer.
package types

// CredentialOrigin identifies where a database credential pair came from
type CredentialOrigin string

const (
	// OriginExplicit marks credentials taken from the db_username/db_password properties
	OriginExplicit CredentialOrigin = "explicit"
	// OriginCanary marks credentials borrowed from the replication-canary link
	OriginCanary CredentialOrigin = "canary"
)

const (
	// DefaultDiskUsedWarningPercent is the fixed disk usage warning threshold
	DefaultDiskUsedWarningPercent = 80
	// DefaultDiskInodesUsedWarningPercent is the fixed inode usage warning threshold
	DefaultDiskInodesUsedWarningPercent = 80
)

// CredentialSource is one candidate username/password pair
type CredentialSource struct {
	Username string           `json:"username" yaml:"username"`
	Password string           `json:"password" yaml:"password"`
	Origin   CredentialOrigin `json:"origin" yaml:"origin"`
}

// Complete reports whether both halves of the pair are set
func (c CredentialSource) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// ExplicitCredentials are the db_username/db_password job properties.
// Either field may be empty.
type ExplicitCredentials struct {
	DBUsername string `json:"db_username,omitempty" yaml:"db_username,omitempty"`
	DBPassword string `json:"db_password,omitempty" yaml:"db_password,omitempty"`
}

// LinkInstance is one instance exported by a link
type LinkInstance struct {
	Address string `json:"address" yaml:"address"`
	Name    string `json:"name" yaml:"name"`
	ID      string `json:"id" yaml:"id"`
}

// MySQLTopology is the data exported by the mysql link
type MySQLTopology struct {
	Instances []LinkInstance `json:"instances" yaml:"instances"`
	Port      int            `json:"port" yaml:"port"`
}

// CanaryLink is the data exported by the replication-canary link
type CanaryLink struct {
	CanaryUsername string    `json:"canary_username" yaml:"canary_username"`
	CanaryPassword string    `json:"canary_password" yaml:"canary_password"`
	APIPort        int       `json:"api_port" yaml:"api_port"`
	TLS            TLSConfig `json:"tls" yaml:"tls"`
}

// TLSConfig holds TLS parameters for an endpoint
type TLSConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	CA         string `json:"ca" yaml:"ca" toml:"ca"`
	ServerName string `json:"server_name" yaml:"server_name" toml:"server_name"`
}

// AgentEndpoint holds connection info for mysql-diag-agent
type AgentEndpoint struct {
	Username string    `json:"username" yaml:"username" toml:"username"`
	Password string    `json:"password" yaml:"password" toml:"password"`
	Port     int       `json:"port" yaml:"port" toml:"port"`
	TLS      TLSConfig `json:"tls" yaml:"tls" toml:"tls"`
}

// CanaryEndpoint is the top-level canary block of the rendered document
type CanaryEndpoint struct {
	Username string    `json:"username" yaml:"username" toml:"username"`
	Password string    `json:"password" yaml:"password" toml:"password"`
	APIPort  int       `json:"api_port" yaml:"api_port" toml:"api_port"`
	TLS      TLSConfig `json:"tls" yaml:"tls" toml:"tls"`
}

// ClusterNode is one addressable MySQL cluster member
type ClusterNode struct {
	Host string `json:"host" yaml:"host" toml:"host"`
	Name string `json:"name" yaml:"name" toml:"name"`
	UUID string `json:"uuid" yaml:"uuid" toml:"uuid"`
}

// Threshold holds the disk warning thresholds
type Threshold struct {
	DiskUsedWarningPercent       int `json:"disk_used_warning_percent" yaml:"disk_used_warning_percent" toml:"disk_used_warning_percent"`
	DiskInodesUsedWarningPercent int `json:"disk_inodes_used_warning_percent" yaml:"disk_inodes_used_warning_percent" toml:"disk_inodes_used_warning_percent"`
}

// DefaultThreshold returns the hardcoded thresholds
func DefaultThreshold() Threshold {
	return Threshold{
		DiskUsedWarningPercent:       DefaultDiskUsedWarningPercent,
		DiskInodesUsedWarningPercent: DefaultDiskInodesUsedWarningPercent,
	}
}

// MysqlSection is the mysql key of the rendered document
type MysqlSection struct {
	Username  string        `json:"username" yaml:"username" toml:"username"`
	Password  string        `json:"password" yaml:"password" toml:"password"`
	Port      int           `json:"port" yaml:"port" toml:"port"`
	Agent     AgentEndpoint `json:"agent" yaml:"agent" toml:"agent"`
	Threshold Threshold     `json:"threshold" yaml:"threshold" toml:"threshold"`
	Nodes     []ClusterNode `json:"nodes" yaml:"nodes" toml:"nodes"`
}

// ConfigDocument is the rendered mysql-diag configuration.
// Canary is nil when no replication-canary link was supplied.
type ConfigDocument struct {
	Mysql  MysqlSection    `json:"mysql" yaml:"mysql" toml:"mysql"`
	Canary *CanaryEndpoint `json:"canary,omitempty" yaml:"canary,omitempty" toml:"canary,omitempty"`
}
