// Package apiproxy forwards back-office calls to the commerce REST API and
// serves repeated reads from the response cache.
package apiproxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/kazz187/shopguild/internal/eventbus"
	"github.com/kazz187/shopguild/internal/respcache"
	"github.com/kazz187/shopguild/pkg/cerr"
)

const (
	maxResponseSize = 16 << 20
	// indexSlack lets the key index run ahead of the cache before stale
	// keys are swept out of it.
	indexSlack = 64
)

// Response is an upstream reply as the UIs receive it.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Request addresses the upstream API relative to its base URL. Path starts
// with the resource, e.g. "products/42".
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// Resource is the first segment of the request path.
func (r *Request) Resource() string {
	p := strings.TrimPrefix(r.Path, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}

// Validate rejects paths that would leave their resource once resolved
// against the upstream base URL.
func (r *Request) Validate() error {
	for _, seg := range strings.Split(strings.Trim(r.Path, "/"), "/") {
		if seg == "." || seg == ".." {
			return cerr.NewError(cerr.InvalidArgument, "invalid path", nil).
				AddDetailMessageWithCode("path must not contain dot segments", "path.clean")
		}
	}
	resource := r.Resource()
	cleaned := strings.TrimPrefix(path.Clean("/"+r.Path), "/")
	if resource == "" || (cleaned != resource && !strings.HasPrefix(cleaned, resource+"/")) {
		return cerr.NewError(cerr.InvalidArgument, "invalid path", nil).
			AddDetailMessageWithCode("path must start with a resource", "path.resource")
	}
	return nil
}

// CacheKey identifies a read: method, path and the query in key order.
func (r *Request) CacheKey() string {
	key := r.Method + " /" + strings.TrimPrefix(r.Path, "/")
	if len(r.Query) > 0 {
		// Encode sorts by key.
		key += "?" + r.Query.Encode()
	}
	return key
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	cache   *respcache.Cache[*Response]
	bus     *eventbus.Bus

	mu      sync.Mutex
	index   map[string]map[string]struct{} // resource -> cache keys
	indexed int
	gens    map[string]uint64 // resource -> invalidation count
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithCache enables read caching.
func WithCache(cache *respcache.Cache[*Response]) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithBus publishes a resource-changed event after every successful write.
func WithBus(bus *eventbus.Bus) Option {
	return func(c *Client) {
		c.bus = bus
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid upstream URL %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	c := &Client{
		baseURL: u,
		http:    http.DefaultClient,
		index:   make(map[string]map[string]struct{}),
		gens:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Credentials configures the OAuth2 client-credentials grant. A zero value
// means the upstream is called without a token.
type Credentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

func (c Credentials) enabled() bool {
	return c.ClientID != "" && c.TokenURL != ""
}

// NewHTTPClient returns the client used for upstream calls. Tokens are
// fetched and refreshed by the oauth2 transport.
func NewHTTPClient(ctx context.Context, timeout time.Duration, creds Credentials) *http.Client {
	if !creds.enabled() {
		return &http.Client{Timeout: timeout}
	}
	conf := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     creds.TokenURL,
		Scopes:       creds.Scopes,
	}
	hc := conf.Client(ctx)
	hc.Timeout = timeout
	return hc
}

// Do sends req upstream. GET responses with a 2xx status are cached; a
// successful write drops every cached read of the same resource. A read that
// was in flight while its resource was invalidated is returned but not cached.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cacheable := req.Method == http.MethodGet && c.cache != nil
	key := req.CacheKey()
	var gen uint64
	if cacheable {
		if resp, ok := c.cache.Get(key); ok {
			return resp, nil
		}
		gen = c.generation(req.Resource())
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return resp, nil
	}

	switch {
	case cacheable:
		c.store(req.Resource(), key, resp, gen)
	case isWrite(req.Method):
		c.Invalidate(req.Resource())
		if c.bus != nil {
			c.bus.PublishNew(eventbus.EventResourceChanged, req.Resource(), req.Path)
		}
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	ref := &url.URL{Path: strings.TrimPrefix(req.Path, "/")}
	if len(req.Query) > 0 {
		ref.RawQuery = req.Query.Encode()
	}
	target := c.baseURL.ResolveReference(ref)

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, "invalid upstream request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, cerr.NewError(cerr.DeadlineExceeded, "upstream timed out", err)
		}
		if errors.Is(err, context.Canceled) {
			return nil, cerr.NewError(cerr.Canceled, "request canceled", err)
		}
		return nil, cerr.NewError(cerr.Unavailable, "upstream unavailable", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, cerr.NewError(cerr.Unavailable, "failed to read upstream response", err)
	}
	return &Response{
		Status:      httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

func (c *Client) generation(resource string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[resource]
}

// store caches resp unless resource was invalidated since gen was read. The
// cache is written under c.mu so a concurrent Invalidate cannot interleave.
func (c *Client) store(resource, key string, resp *Response, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[resource] != gen {
		return
	}
	keys, ok := c.index[resource]
	if !ok {
		keys = make(map[string]struct{})
		c.index[resource] = keys
	}
	if _, ok := keys[key]; !ok {
		keys[key] = struct{}{}
		c.indexed++
	}
	c.cache.Set(key, resp)
	if c.indexed > 2*c.cache.Len()+indexSlack {
		c.sweepLocked()
	}
}

// sweepLocked forgets keys the cache has evicted or expired.
func (c *Client) sweepLocked() {
	for resource, keys := range c.index {
		for key := range keys {
			if _, ok := c.cache.Get(key); !ok {
				delete(keys, key)
				c.indexed--
			}
		}
		if len(keys) == 0 {
			delete(c.index, resource)
		}
	}
}

// Invalidate drops every cached read of resource.
func (c *Client) Invalidate(resource string) {
	if c.cache == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[resource]++
	keys := make([]string, 0, len(c.index[resource]))
	for key := range c.index[resource] {
		keys = append(keys, key)
	}
	c.indexed -= len(keys)
	delete(c.index, resource)
	if len(keys) > 0 {
		c.cache.Clear(keys...)
	}
}

// CachedKeys lists the keys recorded for resource in sorted order. Keys the
// cache dropped on its own may linger until the next sweep.
func (c *Client) CachedKeys(resource string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.index[resource]))
	for key := range c.index[resource] {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
