package offline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func staticFetch(ctx context.Context, path string) (Entry, error) {
	return Entry{Status: http.StatusOK, ContentType: "text/plain", Body: []byte("asset " + path)}, nil
}

func TestInstallActivateDeletesOld(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	require.NoError(t, c.Install(ctx, "recur-v1", Manifest, staticFetch))
	_, err := c.Activate("recur-v1")
	require.NoError(t, err)

	require.NoError(t, c.Install(ctx, "recur-v2", Manifest, staticFetch))
	assert.Equal(t, []string{"recur-v1", "recur-v2"}, c.Generations())

	deleted, err := c.Activate("recur-v2")
	require.NoError(t, err)
	assert.Equal(t, []string{"recur-v1"}, deleted)
	assert.Equal(t, []string{"recur-v2"}, c.Generations())
	assert.Equal(t, "recur-v2", c.Active())

	e, ok := c.Lookup("/index.html")
	require.True(t, ok)
	assert.Equal(t, "asset /index.html", string(e.Body))
}

func TestInstallFailureLeavesNothing(t *testing.T) {
	c := New(nil)
	fetch := func(ctx context.Context, path string) (Entry, error) {
		if path == "/icon.svg" {
			return Entry{}, errors.New("gone")
		}
		return staticFetch(ctx, path)
	}
	assert.Error(t, c.Install(context.Background(), "recur-v1", Manifest, fetch))
	assert.Empty(t, c.Generations())

	_, err := c.Activate("recur-v1")
	assert.ErrorIs(t, err, ErrUnknownGeneration)
}

func TestPutWithoutActiveIsNoop(t *testing.T) {
	c := New(nil)
	c.Put("/api/tasks", Entry{Status: 200})
	_, ok := c.Lookup("/api/tasks")
	assert.False(t, ok)
}

func newRouter(c *Cache, failing *bool) *gin.Engine {
	r := gin.New()
	r.Use(Middleware(c))
	r.GET("/index.html", func(ctx *gin.Context) {
		ctx.Data(http.StatusOK, "text/html", []byte("network index"))
	})
	r.GET("/api/tasks", func(ctx *gin.Context) {
		if *failing {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "down"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"tasks": 1})
	})
	r.POST("/api/tasks", func(ctx *gin.Context) {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "down"})
	})
	return r
}

func get(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestManifestCacheFirst(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Install(context.Background(), "recur-v1", Manifest, staticFetch))
	_, err := c.Activate("recur-v1")
	require.NoError(t, err)
	failing := false
	r := newRouter(c, &failing)

	w := get(r, http.MethodGet, "/index.html")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "asset /index.html", w.Body.String())
	assert.Equal(t, "hit", w.Header().Get(Header))
}

func TestManifestMissStores(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Install(context.Background(), "recur-v1", nil, staticFetch))
	_, err := c.Activate("recur-v1")
	require.NoError(t, err)
	failing := false
	r := newRouter(c, &failing)

	w := get(r, http.MethodGet, "/index.html")
	assert.Equal(t, "network index", w.Body.String())
	assert.Equal(t, "miss", w.Header().Get(Header))

	w = get(r, http.MethodGet, "/index.html")
	assert.Equal(t, "network index", w.Body.String())
	assert.Equal(t, "hit", w.Header().Get(Header))
}

func TestAPINetworkFirstWithFallback(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Install(context.Background(), "recur-v1", nil, staticFetch))
	_, err := c.Activate("recur-v1")
	require.NoError(t, err)
	failing := false
	r := newRouter(c, &failing)

	w := get(r, http.MethodGet, "/api/tasks")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tasks":1}`, w.Body.String())
	assert.Empty(t, w.Header().Get(Header))

	failing = true
	w = get(r, http.MethodGet, "/api/tasks")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tasks":1}`, w.Body.String())
	assert.Equal(t, "fallback", w.Header().Get(Header))
}

func TestAPIFailureWithoutCopyPassesThrough(t *testing.T) {
	c := New(nil)
	failing := true
	r := newRouter(c, &failing)

	w := get(r, http.MethodGet, "/api/tasks")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"down"}`, w.Body.String())
}

func TestNonGetPassesThrough(t *testing.T) {
	c := New(nil)
	failing := false
	r := newRouter(c, &failing)

	w := get(r, http.MethodPost, "/api/tasks")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func newPanickingRouter(c *Cache, panicking *bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.RecoveryWithWriter(io.Discard), Middleware(c))
	r.GET("/api/tasks", func(ctx *gin.Context) {
		if *panicking {
			panic("boom")
		}
		ctx.JSON(http.StatusOK, gin.H{"tasks": 2})
	})
	return r
}

func TestAPIPanicWithoutCopyIs500(t *testing.T) {
	c := New(nil)
	panicking := true
	r := newPanickingRouter(c, &panicking)

	w := get(r, http.MethodGet, "/api/tasks")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get(Header))
}

func TestAPIPanicServesCachedCopy(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Install(context.Background(), "recur-v1", nil, staticFetch))
	_, err := c.Activate("recur-v1")
	require.NoError(t, err)
	panicking := false
	r := newPanickingRouter(c, &panicking)

	w := get(r, http.MethodGet, "/api/tasks")
	require.Equal(t, http.StatusOK, w.Code)

	panicking = true
	w = get(r, http.MethodGet, "/api/tasks")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tasks":2}`, w.Body.String())
	assert.Equal(t, "fallback", w.Header().Get(Header))
}
