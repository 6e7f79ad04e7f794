package contextio

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient returns a client that talks plain HTTP to server.
func newTestClient(t *testing.T, server *httptest.Server, modify func(*Config)) *Client {
	t.Helper()

	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	secure := false
	cfg := &Config{
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		Secure:         &secure,
		Endpoint:       u.Host,
		Timeout:        5 * time.Second,
		RetryDelay:     time.Millisecond,
		Logger:         hclog.NewNullLogger(),
	}
	if modify != nil {
		modify(cfg)
	}

	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func jsonHandler(t *testing.T, check func(r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"data":[]}`)
	}
}

func TestNew(t *testing.T) {
	c, err := New("key", "secret")
	require.NoError(t, err)

	assert.True(t, c.Secure())
	assert.Equal(t, "1.1", c.APIVersion())
	assert.False(t, c.AuthHeaders())
	assert.False(t, c.SaveHeaders())
	assert.Equal(t, "https://api.context.io/1.1/", c.BuildBaseURL())
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New("", "secret")
	assert.Error(t, err)

	_, err = New("key", "")
	assert.Error(t, err)

	_, err = NewClient(nil)
	assert.Error(t, err)
}

func TestNewClient_DoesNotModifyConfig(t *testing.T) {
	cfg := &Config{ConsumerKey: "key", ConsumerSecret: "secret"}
	_, err := NewClient(cfg)
	require.NoError(t, err)

	assert.Empty(t, cfg.APIVersion)
	assert.Nil(t, cfg.Secure)
}

func TestBuildURL(t *testing.T) {
	c, err := New("key", "secret")
	require.NoError(t, err)

	assert.Equal(t, "https://api.context.io/1.1/search.json", c.BuildURL("search.json"))

	c.SetSecure(false)
	c.SetAPIVersion("2.0")
	assert.Equal(t, "http://api.context.io/2.0/search.json", c.BuildURL("search.json"))
	assert.False(t, c.Secure())
	assert.Equal(t, "2.0", c.APIVersion())

	for _, a := range Actions() {
		assert.Equal(t, "http://api.context.io/2.0/"+a.Path(), c.BuildURL(a.Path()))
	}
}

func TestBuildQuery(t *testing.T) {
	base := "https://api.context.io/1.1/search.json"

	assert.Equal(t, base, BuildQuery(base, nil))
	assert.Equal(t, base+"?limit=5&subject=hello+world",
		BuildQuery(base, Params{"subject": "hello world", "limit": "5"}))
	assert.Equal(t, base+"?a=1&account=me%40example.com",
		BuildQuery(base+"?a=1", Params{"account": "me@example.com"}))
}

func TestCall_Get(t *testing.T) {
	var gotQuery url.Values
	var gotPath string
	server := httptest.NewServer(jsonHandler(t, func(r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Authorization"))
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
	}))
	defer server.Close()

	c := newTestClient(t, server, nil)

	params := Params{"since": "0"}
	resp, err := c.Get(context.Background(), "me@example.com", "allmessages.json", params)
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.False(t, resp.HasError)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, `{"data":[]}`, resp.Raw())
	assert.Nil(t, resp.RequestHeaders, "headers are not saved by default")
	assert.Equal(t, "application/json", resp.ResponseHeaders.Get("Content-Type"))

	assert.Equal(t, "/1.1/allmessages.json", gotPath)
	assert.Equal(t, "0", gotQuery.Get("since"))
	assert.Equal(t, "me@example.com", gotQuery.Get("account"))
	assert.Equal(t, "key", gotQuery.Get("oauth_consumer_key"))
	assert.Equal(t, "HMAC-SHA1", gotQuery.Get("oauth_signature_method"))
	assert.Equal(t, "1.0", gotQuery.Get("oauth_version"))
	assert.NotEmpty(t, gotQuery.Get("oauth_nonce"))
	assert.NotEmpty(t, gotQuery.Get("oauth_timestamp"))
	assert.NotEmpty(t, gotQuery.Get("oauth_signature"))
	assert.False(t, gotQuery.Has("oauth_token"))

	assert.Equal(t, Params{"since": "0"}, params, "caller params are not modified")
}

func TestCall_AccountInjection(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(jsonHandler(t, func(r *http.Request) {
		gotQuery = r.URL.Query()
	}))
	defer server.Close()

	c := newTestClient(t, server, nil)

	t.Run("non-empty account is added", func(t *testing.T) {
		_, err := c.Get(context.Background(), "acct", "search.json", Params{"subject": "x", "limit": "2"})
		require.NoError(t, err)
		assert.Equal(t, "acct", gotQuery.Get("account"))
		assert.Equal(t, "x", gotQuery.Get("subject"))
		assert.Equal(t, "2", gotQuery.Get("limit"))
	})

	t.Run("empty account is omitted", func(t *testing.T) {
		_, err := c.Get(context.Background(), "", "search.json", Params{"subject": "x"})
		require.NoError(t, err)
		assert.False(t, gotQuery.Has("account"))
		assert.Equal(t, "x", gotQuery.Get("subject"))
	})
}

func TestCall_AuthHeaders(t *testing.T) {
	var gotAuth string
	var gotQuery url.Values
	server := httptest.NewServer(jsonHandler(t, func(r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
	}))
	defer server.Close()

	c := newTestClient(t, server, func(cfg *Config) { cfg.AuthHeaders = true })
	assert.True(t, c.AuthHeaders())

	_, err := c.Get(context.Background(), "", "search.json", Params{"subject": "x"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotAuth, "OAuth "), "got %q", gotAuth)
	assert.Contains(t, gotAuth, `oauth_consumer_key="key"`)
	assert.Contains(t, gotAuth, `oauth_signature="`)
	assert.False(t, gotQuery.Has("oauth_signature"))
	assert.Equal(t, "x", gotQuery.Get("subject"))

	c.SetAuthHeaders(false)
	_, err = c.Get(context.Background(), "", "search.json", nil)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.True(t, gotQuery.Has("oauth_signature"))
}

func TestCall_Post(t *testing.T) {
	var gotForm url.Values
	var gotQuery url.Values
	var gotContentType string
	server := httptest.NewServer(jsonHandler(t, func(r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotContentType = r.Header.Get("Content-Type")
		gotQuery = r.URL.Query()
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
	}))
	defer server.Close()

	c := newTestClient(t, server, nil)

	resp, err := c.Post(context.Background(), "acct", "imap/modifyaccount.json", Params{"mailboxes": "INBOX"})
	require.NoError(t, err)
	assert.False(t, resp.HasError)

	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "INBOX", gotForm.Get("mailboxes"))
	assert.Equal(t, "acct", gotForm.Get("account"))
	assert.False(t, gotQuery.Has("mailboxes"), "POST params travel in the body")
	assert.True(t, gotQuery.Has("oauth_signature"))
}

func TestCall_UnsupportedMethod(t *testing.T) {
	c, err := New("key", "secret")
	require.NoError(t, err)

	_, err = c.Call(context.Background(), http.MethodDelete, "", "search.json", nil)
	assert.Error(t, err)
}

func TestCall_ErrorResponsesAreReturned(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "<html>not found</html>")
	}))
	defer server.Close()

	c := newTestClient(t, server, func(cfg *Config) { cfg.MaxRetries = 3 })

	resp, err := c.Get(context.Background(), "", "search.json", nil)
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.True(t, resp.HasError)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "text/html", resp.ContentType)
	assert.Equal(t, "<html>not found</html>", resp.Raw())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "non-200 responses are not retried")
}

func TestCall_SaveHeaders(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, nil))
	defer server.Close()

	c := newTestClient(t, server, func(cfg *Config) {
		cfg.SaveHeaders = true
		cfg.AuthHeaders = true
	})
	assert.True(t, c.SaveHeaders())

	resp, err := c.Get(context.Background(), "", "search.json", nil)
	require.NoError(t, err)
	require.NotNil(t, resp.RequestHeaders)
	assert.Equal(t, UserAgent, resp.RequestHeaders.Get("User-Agent"))
	assert.True(t, strings.HasPrefix(resp.RequestHeaders.Get("Authorization"), "OAuth "))

	c.SetSaveHeaders(false)
	resp, err = c.Get(context.Background(), "", "search.json", nil)
	require.NoError(t, err)
	assert.Nil(t, resp.RequestHeaders)
}

// hijackFirst closes the connection of the first n requests without
// answering, then serves JSON.
func hijackFirst(t *testing.T, n int32, hits *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(hits, 1) <= n {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{}`)
	}
}

func TestCall_TransportErrors(t *testing.T) {
	t.Run("propagated without retries", func(t *testing.T) {
		var hits int32
		server := httptest.NewServer(hijackFirst(t, 1, &hits))
		defer server.Close()

		c := newTestClient(t, server, nil)

		resp, err := c.Get(context.Background(), "", "search.json", nil)
		assert.Error(t, err)
		assert.Nil(t, resp)
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("retried when configured", func(t *testing.T) {
		var hits int32
		server := httptest.NewServer(hijackFirst(t, 2, &hits))
		defer server.Close()

		c := newTestClient(t, server, func(cfg *Config) { cfg.MaxRetries = 2 })

		resp, err := c.Get(context.Background(), "", "search.json", nil)
		require.NoError(t, err)
		assert.False(t, resp.HasError)
		assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	})

	t.Run("canceled context", func(t *testing.T) {
		server := httptest.NewServer(jsonHandler(t, nil))
		defer server.Close()

		c := newTestClient(t, server, func(cfg *Config) { cfg.MaxRetries = 5 })

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.Get(ctx, "", "search.json", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestGetMany(t *testing.T) {
	var accounts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := r.URL.Query().Get("account")
		accounts = append(accounts, account)
		if account == "broken" {
			hj, _ := w.(http.Hijacker)
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"account":"`+account+`"}`)
	}))
	defer server.Close()

	c := newTestClient(t, server, nil)

	responses, err := c.GetMany(context.Background(), []string{"a", "broken", "b"}, "addresses.json", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account broken")

	require.Len(t, responses, 3)
	require.NotNil(t, responses[0])
	assert.Nil(t, responses[1])
	require.NotNil(t, responses[2])
	assert.Equal(t, `{"account":"a"}`, responses[0].Raw())
	assert.Equal(t, `{"account":"b"}`, responses[2].Raw())
	assert.Equal(t, []string{"a", "broken", "b"}, accounts)
}

func TestConcurrentSetters(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, nil))
	defer server.Close()

	c := newTestClient(t, server, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			c.SetSaveHeaders(i%2 == 0)
			c.SetAuthHeaders(i%2 == 1)
		}
	}()

	for i := 0; i < 10; i++ {
		resp, err := c.Get(context.Background(), "", "search.json", nil)
		require.NoError(t, err)
		assert.False(t, resp.HasError)
	}
	<-done
}
