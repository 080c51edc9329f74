// Package fetch provides an HTTP client actor. The real form performs
// requests sequentially through its core, caching GET bodies in an LRU; the
// mock form answers from a seeded method+URL response table.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nanaharris/ph-actors-tcc/core/facade"
	"github.com/nanaharris/ph-actors-tcc/core/promise"
)

// ErrNoResponse is the domain error a mock client returns for a request it
// was not seeded with.
var ErrNoResponse = errors.New("no mock response")

// Key identifies one mocked request.
type Key struct {
	Method string
	URL    string
}

func (k Key) String() string { return k.Method + " " + k.URL }

// GetKey builds the mock key of a GET request.
func GetKey(url string) Key { return Key{Method: http.MethodGet, URL: url} }

// PostKey builds the mock key of a POST request.
func PostKey(url string) Key { return Key{Method: http.MethodPost, URL: url} }

// PutKey builds the mock key of a PUT request.
func PutKey(url string) Key { return Key{Method: http.MethodPut, URL: url} }

type message interface{ fetchMsg() }

type getMsg struct {
	url     string
	headers map[string]string
	reply   *promise.Promise[string]
}

type postMsg struct {
	url     string
	headers map[string]string
	body    string
	reply   *promise.Promise[string]
}

type putMsg struct {
	url     string
	headers map[string]string
	body    string
	reply   *promise.Promise[string]
}

func (getMsg) fetchMsg()  {}
func (postMsg) fetchMsg() {}
func (putMsg) fetchMsg()  {}

func (m getMsg) Abandon(err error)  { m.reply.Abandon(err) }
func (m postMsg) Abandon(err error) { m.reply.Abandon(err) }
func (m putMsg) Abandon(err error)  { m.reply.Abandon(err) }

// responses is the mock state: seeded bodies keyed by method and URL.
type responses map[Key]string

func (r responses) lookup(k Key) (string, error) {
	body, ok := r[k]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoResponse, k)
	}
	return body, nil
}

// Client is the caller-facing handle of a fetch actor.
type Client struct {
	facade.Facade[message, responses]
}

// Spawn validates cfg, builds the core and starts its worker. A bad
// configuration fails here; no mailbox is created in that case.
func Spawn(cfg Config, opts facade.Options) (Client, *facade.Handle, error) {
	c, err := newCore(cfg)
	if err != nil {
		return Client{}, nil, err
	}

	f, h := facade.Spawn[message, responses](c, opts)

	// the GET cache runs its own goroutine; tear it down with the worker
	go func() {
		<-h.Done()
		c.cache.Close()
	}()

	return Client{f}, h, nil
}

// Mock returns a client answering from seed, for use without any worker or
// network access.
func Mock(seed map[Key]string) Client {
	r := make(responses, len(seed))
	for k, v := range seed {
		r[k] = v
	}
	return Client{facade.Mock[message, responses](r)}
}

// MockEmpty returns a mock client with no seeded responses; every request
// fails with ErrNoResponse.
func MockEmpty() Client { return Mock(nil) }

// Clone retains a new handle on the same client.
func (c Client) Clone() Client { return Client{c.Facade.Clone()} }

// Get performs an HTTP GET and returns the response body.
func (c Client) Get(ctx context.Context, url string, headers map[string]string) (string, error) {
	return facade.Call(ctx, c.Facade,
		func(reply *promise.Promise[string]) message {
			return getMsg{url: url, headers: headers, reply: reply}
		},
		func(s *responses) (string, error) { return s.lookup(GetKey(url)) },
	)
}

// Post performs an HTTP POST with the given body and returns the response
// body.
func (c Client) Post(ctx context.Context, url string, headers map[string]string, body string) (string, error) {
	return facade.Call(ctx, c.Facade,
		func(reply *promise.Promise[string]) message {
			return postMsg{url: url, headers: headers, body: body, reply: reply}
		},
		func(s *responses) (string, error) { return s.lookup(PostKey(url)) },
	)
}

// Put performs an HTTP PUT with the given body and returns the response body.
func (c Client) Put(ctx context.Context, url string, headers map[string]string, body string) (string, error) {
	return facade.Call(ctx, c.Facade,
		func(reply *promise.Promise[string]) message {
			return putMsg{url: url, headers: headers, body: body, reply: reply}
		},
		func(s *responses) (string, error) { return s.lookup(PutKey(url)) },
	)
}
