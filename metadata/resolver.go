package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoMetadata is returned when a URI cannot be resolved to content:
// unsupported scheme, gateway failure or unparsable payload. Callers
// record the miss on the entity and retry later through their own
// retry counter, never through the consistency queue.
var ErrNoMetadata = errors.New("no metadata")

// structured content URI prefixes resolved through the gateway
var jsonSchemes = []string{"pasar:json:", "feeds:json:", "hivehub:json:"}

// UserInfo is the creator profile embedded in token metadata.
type UserInfo struct {
	Did         string `json:"did"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Attribute is one trait of a token.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// TokenInfo is the resolved metadata document of a token.
type TokenInfo struct {
	Version     json.Number            `json:"version"`
	Type        string                 `json:"type"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Image       string                 `json:"image"`
	Creator     *UserInfo              `json:"creator"`
	Properties  map[string]interface{} `json:"properties"`
	Attributes  []Attribute            `json:"attributes"`
}

// CollectionInfo is the resolved metadata document of a collection.
type CollectionInfo struct {
	Version json.Number `json:"version"`
	Creator UserInfo    `json:"creator"`
	Data    struct {
		Avatar      string `json:"avatar"`
		Background  string `json:"background"`
		Description string `json:"description"`
		Category    string `json:"category"`
	} `json:"data"`
}

// Resolver turns content URIs into structured metadata through an
// IPFS gateway.
type Resolver struct {
	gateway string
	agent   string
	client  *http.Client
	maxTry  int
}

// NewResolver builds a resolver against the given gateway. The client
// carries the fixed fetch timeout; pass nil to use the default.
func NewResolver(gateway, agent string, maxTry int, client *http.Client) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Resolver{gateway: gateway, agent: agent, client: client, maxTry: maxTry}
}

// Resolve fetches the raw metadata document behind a URI. The scheme
// decides the route; retryTimes past the cap adds a gateway fallback
// for plain links that embed an IPFS path.
func (r *Resolver) Resolve(uri string, retryTimes int) ([]byte, error) {
	for _, scheme := range jsonSchemes {
		if strings.HasPrefix(uri, scheme) {
			parts := strings.SplitN(uri, ":", 3)
			return r.fetch(r.gateway + parts[2])
		}
	}
	if strings.HasPrefix(uri, "ipfs://") {
		return r.fetch(r.gateway + strings.TrimPrefix(uri, "ipfs://"))
	}
	if retryTimes >= r.maxTry && strings.Contains(uri, "/ipfs/") {
		hash := uri[strings.Index(uri, "/ipfs/")+len("/ipfs/"):]
		return r.fetch(r.gateway + hash)
	}
	if strings.HasPrefix(uri, "https://") {
		return r.fetch(uri)
	}
	return nil, ErrNoMetadata
}

// TokenInfo resolves and decodes token metadata.
func (r *Resolver) TokenInfo(uri string, retryTimes int) (*TokenInfo, error) {
	body, err := r.Resolve(uri, retryTimes)
	if err != nil {
		return nil, err
	}
	info := TokenInfo{}
	if err = json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMetadata, err)
	}
	return &info, nil
}

// CollectionInfo resolves and decodes collection metadata.
func (r *Resolver) CollectionInfo(uri string) (*CollectionInfo, error) {
	body, err := r.Resolve(uri, 0)
	if err != nil {
		return nil, err
	}
	info := CollectionInfo{}
	if err = json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMetadata, err)
	}
	return &info, nil
}

func (r *Resolver) fetch(link string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMetadata, err)
	}
	req.Header.Set("User-Agent", r.agent)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMetadata, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %v from %v", ErrNoMetadata, resp.StatusCode, link)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMetadata, err)
	}
	return body, nil
}
