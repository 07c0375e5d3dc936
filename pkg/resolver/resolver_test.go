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

package resolver

import (
	"sync"
	"testing"

	"github.com/pingcap/mysql-diag-config/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const missingCredentialsMessage = "No database credentials were configured. db_username and db_password properties must be specified for the mysql-diag job."

func testTopology() types.MySQLTopology {
	return types.MySQLTopology{
		Instances: []types.LinkInstance{
			{Address: "mysql0.address", Name: "mysql", ID: "mysql0.uuid"},
		},
		Port: 6033,
	}
}

func testAgent() types.AgentEndpoint {
	return types.AgentEndpoint{
		Username: "diag-agent-user",
		Password: "diag-agent-password",
		Port:     8765,
		TLS: types.TLSConfig{
			Enabled:    true,
			CA:         "mysql-diag-agent-ca",
			ServerName: "mysql-diag-agent-identity",
		},
	}
}

func testCanary() *types.CanaryLink {
	return &types.CanaryLink{
		CanaryUsername: "replication-canary-basic-auth-username",
		CanaryPassword: "replication-canary-basic-auth-password",
		APIPort:        8123,
		TLS: types.TLSConfig{
			Enabled:    true,
			CA:         "replication-canary-ca",
			ServerName: "replication-canary-identity",
		},
	}
}

func TestResolve_ExplicitCredentials(t *testing.T) {
	doc, err := Resolve(
		types.ExplicitCredentials{DBUsername: "mysql-diag-user", DBPassword: "mysql-diag-password"},
		testTopology(), testAgent(), nil,
	)
	require.NoError(t, err)

	assert.Equal(t, "mysql-diag-user", doc.Mysql.Username)
	assert.Equal(t, "mysql-diag-password", doc.Mysql.Password)
	assert.Equal(t, 6033, doc.Mysql.Port)
	assert.Equal(t, testAgent(), doc.Mysql.Agent)
	assert.Equal(t, []types.ClusterNode{
		{Host: "mysql0.address", Name: "mysql", UUID: "mysql0.uuid"},
	}, doc.Mysql.Nodes)
	assert.Equal(t, 80, doc.Mysql.Threshold.DiskUsedWarningPercent)
	assert.Equal(t, 80, doc.Mysql.Threshold.DiskInodesUsedWarningPercent)
	assert.Nil(t, doc.Canary)
}

func TestResolve_CanaryFallback(t *testing.T) {
	doc, err := Resolve(types.ExplicitCredentials{}, testTopology(), testAgent(), testCanary())
	require.NoError(t, err)

	assert.Equal(t, "replication-canary-basic-auth-username", doc.Mysql.Username)
	assert.Equal(t, "replication-canary-basic-auth-password", doc.Mysql.Password)
	require.NotNil(t, doc.Canary)
	assert.Equal(t, types.CanaryEndpoint{
		Username: "replication-canary-basic-auth-username",
		Password: "replication-canary-basic-auth-password",
		APIPort:  8123,
		TLS:      testCanary().TLS,
	}, *doc.Canary)
}

func TestResolve_ExplicitWinsOverCanary(t *testing.T) {
	doc, err := Resolve(
		types.ExplicitCredentials{DBUsername: "mysql-diag-user", DBPassword: "mysql-diag-password"},
		testTopology(), testAgent(), testCanary(),
	)
	require.NoError(t, err)

	assert.Equal(t, "mysql-diag-user", doc.Mysql.Username)
	assert.Equal(t, "mysql-diag-password", doc.Mysql.Password)
	// the canary block follows the link, not the credential source
	require.NotNil(t, doc.Canary)
	assert.Equal(t, "replication-canary-basic-auth-username", doc.Canary.Username)
}

func TestResolve_MissingCredentials(t *testing.T) {
	tests := []struct {
		name     string
		explicit types.ExplicitCredentials
		canary   *types.CanaryLink
		wantErr  bool
		wantUser string
	}{
		{
			name:    "nothing configured",
			wantErr: true,
		},
		{
			name:     "only username",
			explicit: types.ExplicitCredentials{DBUsername: "mysql-diag-user"},
			wantErr:  true,
		},
		{
			name:     "only password",
			explicit: types.ExplicitCredentials{DBPassword: "mysql-diag-password"},
			wantErr:  true,
		},
		{
			name:     "only username with canary",
			explicit: types.ExplicitCredentials{DBUsername: "mysql-diag-user"},
			canary:   testCanary(),
			wantUser: "replication-canary-basic-auth-username",
		},
		{
			name:     "only password with canary",
			explicit: types.ExplicitCredentials{DBPassword: "mysql-diag-password"},
			canary:   testCanary(),
			wantUser: "replication-canary-basic-auth-username",
		},
		{
			name:    "canary without credentials",
			canary:  &types.CanaryLink{APIPort: 8123},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Resolve(tt.explicit, testTopology(), testAgent(), tt.canary)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, doc)
				assert.True(t, IsMissingCredentials(err))
				assert.EqualError(t, err, missingCredentialsMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, doc.Mysql.Username)
		})
	}
}

func TestResolve_PreservesNodeOrder(t *testing.T) {
	topology := types.MySQLTopology{
		Instances: []types.LinkInstance{
			{Address: "mysql2.address", Name: "mysql", ID: "mysql2.uuid"},
			{Address: "mysql0.address", Name: "mysql", ID: "mysql0.uuid"},
			{Address: "mysql1.address", Name: "mysql", ID: "mysql1.uuid"},
			{Address: "mysql0.address", Name: "mysql", ID: "mysql0.uuid"},
		},
		Port: 3306,
	}

	doc, err := Resolve(types.ExplicitCredentials{DBUsername: "u", DBPassword: "p"}, topology, testAgent(), nil)
	require.NoError(t, err)

	require.Len(t, doc.Mysql.Nodes, 4)
	for i, inst := range topology.Instances {
		assert.Equal(t, inst.Address, doc.Mysql.Nodes[i].Host)
		assert.Equal(t, inst.ID, doc.Mysql.Nodes[i].UUID)
	}
}

func TestResolve_EmptyTopology(t *testing.T) {
	doc, err := Resolve(types.ExplicitCredentials{DBUsername: "u", DBPassword: "p"}, types.MySQLTopology{}, testAgent(), nil)
	require.NoError(t, err)
	assert.NotNil(t, doc.Mysql.Nodes)
	assert.Empty(t, doc.Mysql.Nodes)
}

func TestResolver_ResolveCredentials(t *testing.T) {
	r := New()
	require.Len(t, r.Strategies(), 2)
	assert.Equal(t, "explicit", r.Strategies()[0].Name())
	assert.Equal(t, "canary", r.Strategies()[1].Name())

	src, err := r.ResolveCredentials(Input{
		Explicit: types.ExplicitCredentials{DBUsername: "u", DBPassword: "p"},
		Canary:   testCanary(),
	})
	require.NoError(t, err)
	assert.Equal(t, types.OriginExplicit, src.Origin)

	src, err = r.ResolveCredentials(Input{Canary: testCanary()})
	require.NoError(t, err)
	assert.Equal(t, types.OriginCanary, src.Origin)

	_, err = r.ResolveCredentials(Input{})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestResolver_WithStrategies(t *testing.T) {
	fixed := NewStrategyFunc("fixed", func(Input) (types.CredentialSource, bool) {
		return types.CredentialSource{Username: "fixed-user", Password: "fixed-pass"}, true
	})
	r := New(WithStrategies(CanaryStrategy(), fixed))

	doc, err := r.Resolve(Input{
		Explicit: types.ExplicitCredentials{DBUsername: "u", DBPassword: "p"},
		Topology: testTopology(),
		Agent:    testAgent(),
	})
	require.NoError(t, err)
	assert.Equal(t, "fixed-user", doc.Mysql.Username)

	empty := New(WithStrategies())
	_, err = empty.Resolve(Input{Explicit: types.ExplicitCredentials{DBUsername: "u", DBPassword: "p"}})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestNewStrategyFunc_Panics(t *testing.T) {
	assert.Panics(t, func() {
		NewStrategyFunc(" ", func(Input) (types.CredentialSource, bool) { return types.CredentialSource{}, false })
	})
	assert.Panics(t, func() { NewStrategyFunc("nil", nil) })
}

func TestResolve_Concurrent(t *testing.T) {
	r := New()
	in := Input{Topology: testTopology(), Agent: testAgent(), Canary: testCanary()}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := r.Resolve(in)
			assert.NoError(t, err)
			assert.Equal(t, "replication-canary-basic-auth-username", doc.Mysql.Username)
		}()
	}
	wg.Wait()
}
