package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanaharris/ph-actors-tcc/core/facade"
)

func TestFetch_real_roundtrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte("got " + r.URL.Path))
		case http.MethodPost, http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			w.Write([]byte(r.Method + " " + string(body)))
		}
	}))
	defer srv.Close()

	c, _, err := Spawn(Config{Client: srv.Client()}, facade.Options{Context: context.Background()})
	require.NoError(t, err)
	defer c.Close()

	body, err := c.Get(context.Background(), srv.URL+"/feed", nil)
	require.NoError(t, err)
	require.Equal(t, "got /feed", body)

	body, err = c.Post(context.Background(), srv.URL+"/submit", nil, "hello")
	require.NoError(t, err)
	require.Equal(t, "POST hello", body)

	body, err = c.Put(context.Background(), srv.URL+"/submit", nil, "hi")
	require.NoError(t, err)
	require.Equal(t, "PUT hi", body)
}

func TestFetch_get_cached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c, _, err := Spawn(Config{Client: srv.Client()}, facade.Options{Context: context.Background()})
	require.NoError(t, err)
	defer c.Close()

	for n := 0; n < 3; n++ {
		body, err := c.Get(context.Background(), srv.URL, nil)
		require.NoError(t, err)
		require.Equal(t, "payload", body)
	}
	require.Equal(t, int32(1), hits.Load())
}

func TestFetch_error_status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c, _, err := Spawn(Config{Client: srv.Client()}, facade.Options{Context: context.Background()})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(context.Background(), srv.URL, nil)
	require.ErrorContains(t, err, "unexpected status 404")

	// a failed request is a domain error; the actor keeps serving
	_, err = c.Post(context.Background(), srv.URL, nil, "x")
	require.ErrorContains(t, err, "unexpected status 404")
}

func TestFetch_headers_and_user_agent(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, _, err := Spawn(
		Config{Client: srv.Client(), UserAgent: "ph-actors/1"},
		facade.Options{Context: context.Background()},
	)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(context.Background(), srv.URL, map[string]string{"Accept": "application/xml"})
	require.NoError(t, err)
	require.Equal(t, "ph-actors/1", gotUA)
	require.Equal(t, "application/xml", gotAccept)
}

func TestFetch_invalid_proxy_fails_spawn(t *testing.T) {
	_, _, err := Spawn(Config{Proxy: "://not-a-url"}, facade.Options{Context: context.Background()})
	require.ErrorContains(t, err, "invalid proxy url")

	_, _, err = Spawn(Config{Proxy: "/relative"}, facade.Options{Context: context.Background()})
	require.ErrorContains(t, err, "invalid proxy url")
}

func TestFetch_mock_responses(t *testing.T) {
	c := Mock(map[Key]string{
		GetKey("https://example.org/feed"): "<feed/>",
		PostKey("https://example.org/api"): "created",
	})
	require.True(t, c.IsMock())

	body, err := c.Get(context.Background(), "https://example.org/feed", nil)
	require.NoError(t, err)
	require.Equal(t, "<feed/>", body)

	body, err = c.Post(context.Background(), "https://example.org/api", nil, "data")
	require.NoError(t, err)
	require.Equal(t, "created", body)

	// same URL, different method: separate key
	_, err = c.Put(context.Background(), "https://example.org/api", nil, "data")
	require.ErrorIs(t, err, ErrNoResponse)
}

func TestFetch_mock_empty(t *testing.T) {
	c := MockEmpty()

	_, err := c.Get(context.Background(), "https://example.org", nil)
	require.ErrorIs(t, err, ErrNoResponse)
	require.ErrorContains(t, err, "GET https://example.org")
}

func TestFetch_death(t *testing.T) {
	c, h, err := Spawn(Config{}, facade.Options{Context: context.Background()})
	require.NoError(t, err)

	c.Close()
	require.NoError(t, h.Wait(context.Background()))

	_, err = c.Get(context.Background(), "https://example.org", nil)
	require.ErrorIs(t, err, facade.ErrTerminated)
}
