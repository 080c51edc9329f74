package fetch

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nanaharris/ph-actors-tcc/core/cache"
	"github.com/nanaharris/ph-actors-tcc/core/promise"
)

// Config configures a fetch core.
type Config struct {
	// Client performs the requests. Defaults to a client with a 30s timeout.
	Client *http.Client
	// Proxy is an optional proxy URL, e.g. "http://proxy:3128". An invalid
	// or relative URL fails Spawn.
	Proxy string
	// CacheSize bounds the GET body cache. Defaults to 128 entries.
	CacheSize int
	// UserAgent is sent with every request when set.
	UserAgent string
}

// core owns the HTTP client and the GET cache; it performs one request at a
// time in mailbox order.
type core struct {
	client *http.Client
	ua     string
	cache  *cache.LRU[string]
}

func newCore(cfg Config) (*core, error) {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	if cfg.Proxy != "" {
		u, err := url.ParseRequestURI(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("fetch: invalid proxy url %q: %w", cfg.Proxy, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("fetch: invalid proxy url %q: scheme and host required", cfg.Proxy)
		}
		proxied := *client
		proxied.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
		client = &proxied
	}

	return &core{
		client: client,
		ua:     cfg.UserAgent,
		cache:  cache.NewLRU[string](cfg.CacheSize),
	}, nil
}

func (c *core) Receive(msg message) {
	switch m := msg.(type) {
	case getMsg:
		if body, ok := c.cache.Get(m.url); ok {
			m.reply.Complete(body)
			return
		}
		body, err := c.do(http.MethodGet, m.url, m.headers, "")
		if err != nil {
			m.reply.Reject(err)
			return
		}
		c.cache.Put(m.url, body)
		m.reply.Complete(body)
	case postMsg:
		body, err := c.do(http.MethodPost, m.url, m.headers, m.body)
		resolve(m.reply, body, err)
	case putMsg:
		body, err := c.do(http.MethodPut, m.url, m.headers, m.body)
		resolve(m.reply, body, err)
	}
}

func resolve[T any](p *promise.Promise[T], v T, err error) {
	if err != nil {
		p.Reject(err)
		return
	}
	p.Complete(v)
}

func (c *core) do(method, rawURL string, headers map[string]string, body string) (string, error) {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, rawURL, rdr)
	if err != nil {
		return "", fmt.Errorf("fetch: build %s %s: %w", method, rawURL, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch: read %s %s: %w", method, rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch: %s %s: unexpected status %s", method, rawURL, resp.Status)
	}

	return string(data), nil
}
