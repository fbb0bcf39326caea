package tailscale

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const policyFixture = `{
  "acls": [
    {"action": "accept", "src": ["group:dev"], "dst": ["tag:dev:*"]},
    {"action": "accept", "src": ["*"], "dst": ["autogroup:internet:*"]}
  ],
  "groups": {
    "group:dev": ["amelie@example.com", "pangolin@example.com"]
  },
  "hosts": {
    "bastion": "100.71.74.78"
  },
  "tagOwners": {
    "tag:dev": ["group:dev"]
  },
  "tests": [
    {"src": "amelie@example.com", "accept": ["tag:dev:22"]}
  ]
}`

func TestPolicy(t *testing.T) {
	client, _ := newTestClient(t, Config{Tailnet: "frenck", APIKey: "abc"},
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/v2/tailnet/frenck/acl", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, policyFixture)
		}))

	policy, err := client.Policy(context.Background())
	require.NoError(t, err)
	require.Len(t, policy.ACLs, 2)
	assert.Equal(t, "accept", policy.ACLs[0].Action)
	assert.Equal(t, []string{"group:dev"}, policy.ACLs[0].Src)
	assert.Equal(t, []string{"group:dev"}, policy.TagOwners["tag:dev"])
	assert.Equal(t, "100.71.74.78", policy.Hosts["bastion"])
	require.Len(t, policy.Tests, 1)
	assert.Equal(t, "amelie@example.com", policy.Tests[0].Src)
}

func TestSetPolicy(t *testing.T) {
	client, _ := newTestClient(t, Config{Tailnet: "frenck", APIKey: "abc"},
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v2/tailnet/frenck/acl", r.URL.Path)

			// The server stores the submitted policy and echoes it back.
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			var posted Policy
			require.NoError(t, json.Unmarshal(body, &posted))
			assert.Equal(t, []string{"group:dev"}, posted.TagOwners["tag:environment-dev"])

			w.Header().Set("Content-Type", "application/json")
			w.Write(body)
		}))

	updated, err := client.SetPolicy(context.Background(), &Policy{
		ACLs: []ACLRule{{Action: "accept", Src: []string{"*"}, Dst: []string{"*:*"}}},
		TagOwners: map[string][]string{
			"tag:environment-dev": {"group:dev"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"group:dev"}, updated.TagOwners["tag:environment-dev"])
	require.Len(t, updated.ACLs, 1)
}
