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

// Package manifest reads a template render context and extracts the input
// groups consumed by the resolver.
//
// The context mirrors what the release's template tests feed the renderer:
//
//	properties:
//	  db_username: ...
//	  db_password: ...
//	links:
//	  mysql:
//	    instances: [{address: ..., name: ..., id: ...}]
//	    properties: {port: 6033}
//	  mysql-diag-agent:
//	    properties: {mysql-monitoring: {mysql-diag-agent: {...}}}
//	  replication-canary:            # optional
//	    properties: {mysql-monitoring: {replication-canary: {...}}}
//
// JSON contexts are accepted as well since they are valid YAML.
package manifest

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/pingcap/mysql-diag-config/pkg/resolver"
	"github.com/pingcap/mysql-diag-config/pkg/types"
)

const (
	// MySQLLink is the link exporting the cluster topology
	MySQLLink = "mysql"
	// AgentLink is the link exporting mysql-diag-agent connection info
	AgentLink = "mysql-diag-agent"
	// CanaryLink is the optional link exporting replication-canary connection info
	CanaryLink = "replication-canary"

	monitoringKey = "mysql-monitoring"
)

// RenderContext is the raw render request
type RenderContext struct {
	Properties yaml.Node       `yaml:"properties"`
	Links      map[string]Link `yaml:"links"`
}

// Link is one consumed link
type Link struct {
	Instances  []types.LinkInstance `yaml:"instances"`
	Properties yaml.Node            `yaml:"properties"`
}

type mysqlLinkProperties struct {
	Port int `yaml:"port"`
}

type agentLinkProperties struct {
	Monitoring struct {
		Agent types.AgentEndpoint `yaml:"mysql-diag-agent"`
	} `yaml:"mysql-monitoring"`
}

type canaryLinkProperties struct {
	Monitoring struct {
		Canary types.CanaryLink `yaml:"replication-canary"`
	} `yaml:"mysql-monitoring"`
}

// LoadFromFile reads and parses a render context file
func LoadFromFile(path string) (*resolver.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read render context: %w", err)
	}
	return Parse(data)
}

// Parse decodes a render context and extracts the resolver input.
// Every structural problem is reported, not only the first one.
func Parse(data []byte) (*resolver.Input, error) {
	var rc RenderContext
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse render context: %w", err)
	}
	return rc.Input()
}

// Input converts the context into resolver input
func (rc *RenderContext) Input() (*resolver.Input, error) {
	var result *multierror.Error
	in := &resolver.Input{}

	if err := decodeOptional(&rc.Properties, &in.Explicit); err != nil {
		result = multierror.Append(result, fmt.Errorf("properties: %w", err))
	}

	if mysql, ok := rc.Links[MySQLLink]; ok {
		var props mysqlLinkProperties
		if err := decodeOptional(&mysql.Properties, &props); err != nil {
			result = multierror.Append(result, fmt.Errorf("link %q: %w", MySQLLink, err))
		}
		in.Topology = types.MySQLTopology{
			Instances: mysql.Instances,
			Port:      props.Port,
		}
	} else {
		result = multierror.Append(result, fmt.Errorf("required link %q is not consumed", MySQLLink))
	}

	if agent, ok := rc.Links[AgentLink]; ok {
		var props agentLinkProperties
		if err := decodeOptional(&agent.Properties, &props); err != nil {
			result = multierror.Append(result, fmt.Errorf("link %q: %w", AgentLink, err))
		}
		in.Agent = props.Monitoring.Agent
	} else {
		result = multierror.Append(result, fmt.Errorf("required link %q is not consumed", AgentLink))
	}

	if canary, ok := rc.Links[CanaryLink]; ok {
		var props canaryLinkProperties
		if err := decodeOptional(&canary.Properties, &props); err != nil {
			result = multierror.Append(result, fmt.Errorf("link %q: %w", CanaryLink, err))
		}
		link := props.Monitoring.Canary
		in.Canary = &link
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return in, nil
}

// decodeOptional decodes node into out, leaving out untouched when the node is absent or null
func decodeOptional(node *yaml.Node, out interface{}) error {
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return nil
	}
	return node.Decode(out)
}
