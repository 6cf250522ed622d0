package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenDoc = `{
	"version": "2",
	"type": "image",
	"name": "Phantz #1",
	"description": "one of the herd",
	"image": "pasar:image:QmImageHash",
	"creator": {"did": "did:elastos:abc", "name": "les"},
	"properties": {"size": "3000x3000"},
	"attributes": [{"trait_type": "Fur", "value": "Golden"}]
}`

func testServer(t *testing.T) (*httptest.Server, *[]string) {
	var requests []string
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Path)
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(tokenDoc))
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestResolveJsonScheme(t *testing.T) {
	server, requests := testServer(t)
	r := NewResolver(server.URL+"/ipfs/", "test-agent", 3, server.Client())

	info, err := r.TokenInfo("pasar:json:QmTokenHash", 0)
	require.NoError(t, err)
	assert.Equal(t, "Phantz #1", info.Name)
	assert.Equal(t, "Golden", info.Attributes[0].Value)
	require.Len(t, *requests, 1)
	assert.Equal(t, "/ipfs/QmTokenHash", (*requests)[0])
}

func TestResolveIpfsScheme(t *testing.T) {
	server, requests := testServer(t)
	r := NewResolver(server.URL+"/ipfs/", "test-agent", 3, server.Client())

	_, err := r.TokenInfo("ipfs://QmTokenHash", 0)
	require.NoError(t, err)
	assert.Equal(t, "/ipfs/QmTokenHash", (*requests)[0])
}

func TestResolveHttpsDirect(t *testing.T) {
	server, requests := testServer(t)
	r := NewResolver("http://gateway.invalid/ipfs/", "test-agent", 3, server.Client())

	_, err := r.TokenInfo(server.URL+"/meta/7.json", 0)
	require.NoError(t, err)
	assert.Equal(t, "/meta/7.json", (*requests)[0])
}

// A plain link that embeds an IPFS path switches to the gateway once
// the direct fetches have failed often enough.
func TestResolveGatewayFallback(t *testing.T) {
	server, requests := testServer(t)
	r := NewResolver(server.URL+"/ipfs/", "test-agent", 3, server.Client())

	_, err := r.TokenInfo("https://dead.example/ipfs/QmTokenHash", 3)
	require.NoError(t, err)
	assert.Equal(t, "/ipfs/QmTokenHash", (*requests)[0])
}

func TestResolveUnsupportedScheme(t *testing.T) {
	r := NewResolver("http://gateway.invalid/ipfs/", "test-agent", 3, nil)

	_, err := r.Resolve("ftp://example.com/meta.json", 0)
	assert.ErrorIs(t, err, ErrNoMetadata)
}

func TestResolveGatewayError(t *testing.T) {
	server, _ := testServer(t)
	r := NewResolver(server.URL+"/", "test-agent", 3, server.Client())

	_, err := r.Resolve("ipfs://missing", 0)
	assert.ErrorIs(t, err, ErrNoMetadata)
}

func TestResolveBadDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	t.Cleanup(server.Close)
	r := NewResolver(server.URL+"/ipfs/", "test-agent", 3, server.Client())

	_, err := r.TokenInfo("ipfs://QmTokenHash", 0)
	assert.ErrorIs(t, err, ErrNoMetadata)
}
