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

// Package resolver turns the job properties and consumed links into the
// mysql-diag configuration document.
//
// Database credentials are picked by walking an ordered chain of strategies.
// The first strategy that yields a pair wins; when none does, resolution fails
// with ErrMissingCredentials.
package resolver

import (
	"errors"
	"strings"

	"github.com/pingcap/mysql-diag-config/pkg/types"
)

// ValidationError is returned when the inputs cannot produce a usable document
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ErrMissingCredentials is returned when neither explicit nor canary credentials are available
var ErrMissingCredentials = &ValidationError{
	Message: "No database credentials were configured. db_username and db_password properties must be specified for the mysql-diag job.",
}

// Input groups everything a single resolution needs.
// Canary is nil when no replication-canary link is consumed.
type Input struct {
	Explicit types.ExplicitCredentials
	Topology types.MySQLTopology
	Agent    types.AgentEndpoint
	Canary   *types.CanaryLink
}

// CredentialStrategy is one step of the credential precedence chain
type CredentialStrategy interface {
	// Name returns a short identifier used in logs and tests
	Name() string
	// Resolve returns the credential pair and true on a match
	Resolve(in Input) (types.CredentialSource, bool)
}

// StrategyFunc adapts a function to CredentialStrategy
type StrategyFunc struct {
	name string
	fn   func(Input) (types.CredentialSource, bool)
}

// NewStrategyFunc creates a function-backed strategy
func NewStrategyFunc(name string, fn func(Input) (types.CredentialSource, bool)) CredentialStrategy {
	sanitized := strings.TrimSpace(name)
	if sanitized == "" {
		panic("strategy name cannot be empty")
	}
	if fn == nil {
		panic("strategy func cannot be nil")
	}
	return &StrategyFunc{name: sanitized, fn: fn}
}

// Name returns the strategy name
func (s *StrategyFunc) Name() string { return s.name }

// Resolve runs the wrapped function
func (s *StrategyFunc) Resolve(in Input) (types.CredentialSource, bool) {
	return s.fn(in)
}

// ExplicitStrategy matches only when both db_username and db_password are set.
// A half-filled pair is treated as absent.
func ExplicitStrategy() CredentialStrategy {
	return NewStrategyFunc("explicit", func(in Input) (types.CredentialSource, bool) {
		src := types.CredentialSource{
			Username: in.Explicit.DBUsername,
			Password: in.Explicit.DBPassword,
			Origin:   types.OriginExplicit,
		}
		return src, src.Complete()
	})
}

// CanaryStrategy matches whenever a replication-canary link is present
func CanaryStrategy() CredentialStrategy {
	return NewStrategyFunc("canary", func(in Input) (types.CredentialSource, bool) {
		if in.Canary == nil {
			return types.CredentialSource{}, false
		}
		return types.CredentialSource{
			Username: in.Canary.CanaryUsername,
			Password: in.Canary.CanaryPassword,
			Origin:   types.OriginCanary,
		}, true
	})
}

// DefaultStrategies returns the standard precedence: explicit, then canary
func DefaultStrategies() []CredentialStrategy {
	return []CredentialStrategy{ExplicitStrategy(), CanaryStrategy()}
}

// Resolver holds the credential precedence chain. The zero value is not
// usable; construct one with New.
type Resolver struct {
	strategies []CredentialStrategy
}

// Option configures a Resolver
type Option func(*Resolver)

// WithStrategies replaces the precedence chain
func WithStrategies(strategies ...CredentialStrategy) Option {
	return func(r *Resolver) {
		r.strategies = append([]CredentialStrategy(nil), strategies...)
	}
}

// New builds a Resolver with the default chain unless overridden
func New(opts ...Option) *Resolver {
	r := &Resolver{strategies: DefaultStrategies()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Strategies returns a copy of the precedence chain
func (r *Resolver) Strategies() []CredentialStrategy {
	return append([]CredentialStrategy(nil), r.strategies...)
}

// ResolveCredentials walks the chain and returns the first match.
// Strategies returning an incomplete pair are skipped.
func (r *Resolver) ResolveCredentials(in Input) (types.CredentialSource, error) {
	for _, strategy := range r.strategies {
		src, ok := strategy.Resolve(in)
		if ok && src.Complete() {
			return src, nil
		}
	}
	return types.CredentialSource{}, ErrMissingCredentials
}

// Resolve builds the configuration document for one render request
func (r *Resolver) Resolve(in Input) (*types.ConfigDocument, error) {
	creds, err := r.ResolveCredentials(in)
	if err != nil {
		return nil, err
	}

	doc := &types.ConfigDocument{
		Mysql: types.MysqlSection{
			Username:  creds.Username,
			Password:  creds.Password,
			Port:      in.Topology.Port,
			Agent:     in.Agent,
			Threshold: types.DefaultThreshold(),
			Nodes:     buildNodes(in.Topology.Instances),
		},
	}

	if in.Canary != nil {
		doc.Canary = &types.CanaryEndpoint{
			Username: in.Canary.CanaryUsername,
			Password: in.Canary.CanaryPassword,
			APIPort:  in.Canary.APIPort,
			TLS:      in.Canary.TLS,
		}
	}

	return doc, nil
}

// Resolve runs the default resolver
func Resolve(explicit types.ExplicitCredentials, topology types.MySQLTopology, agent types.AgentEndpoint, canary *types.CanaryLink) (*types.ConfigDocument, error) {
	return New().Resolve(Input{
		Explicit: explicit,
		Topology: topology,
		Agent:    agent,
		Canary:   canary,
	})
}

// IsMissingCredentials reports whether err is the missing-credentials failure
func IsMissingCredentials(err error) bool {
	return errors.Is(err, ErrMissingCredentials)
}

func buildNodes(instances []types.LinkInstance) []types.ClusterNode {
	nodes := make([]types.ClusterNode, 0, len(instances))
	for _, inst := range instances {
		nodes = append(nodes, types.ClusterNode{
			Host: inst.Address,
			Name: inst.Name,
			UUID: inst.ID,
		})
	}
	return nodes
}
