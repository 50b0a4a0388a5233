package offline

import (
	"bytes"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// Header reports how a response was served: "hit", "miss" or "fallback".
const Header = "X-Recur-Cache"

// Middleware serves manifest paths cache-first and /api/ GETs network-first,
// falling back to the last good copy when the handler answers 5xx or panics.
// Other requests pass through untouched. A panic with no cached copy to
// serve is re-raised once the real writer is back in place, so an outer
// gin.Recovery answers it.
func Middleware(c *Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}
		path := ctx.Request.URL.Path
		switch {
		case slices.Contains(Manifest, path):
			if e, ok := c.Lookup(path); ok {
				ctx.Header(Header, "hit")
				ctx.Data(e.Status, e.ContentType, e.Body)
				ctx.Abort()
				return
			}
			w := capture(ctx)
			if rec := next(ctx, w); rec != nil {
				ctx.Writer = w.ResponseWriter
				panic(rec)
			}
			if w.status == http.StatusOK {
				c.Put(path, w.entry())
			}
			w.header.Set(Header, "miss")
			w.release(ctx)
		case strings.HasPrefix(path, "/api/"):
			key := ctx.Request.URL.RequestURI()
			w := capture(ctx)
			rec := next(ctx, w)
			if w.status >= http.StatusInternalServerError {
				if e, ok := c.Lookup(key); ok {
					if rec != nil {
						c.log.Warn("handler panicked, serving cached copy", "path", key, "panic", rec)
						ctx.Abort()
					}
					w.replace(e)
					w.header.Set(Header, "fallback")
					w.release(ctx)
					return
				}
			} else if w.status == http.StatusOK {
				c.Put(key, w.entry())
			}
			if rec != nil {
				ctx.Writer = w.ResponseWriter
				panic(rec)
			}
			w.release(ctx)
		default:
			ctx.Next()
		}
	}
}

// next runs the rest of the chain into w. A handler panic leaves a 500 in
// the buffer and is returned for the caller to serve around or re-raise.
func next(ctx *gin.Context, w *captureWriter) (rec any) {
	defer func() {
		if rec = recover(); rec != nil {
			w.status = http.StatusInternalServerError
			w.header = http.Header{}
			w.body.Reset()
		}
	}()
	ctx.Next()
	return nil
}

// captureWriter buffers the downstream response so it can be stored or
// swapped for a cached copy before anything reaches the client.
type captureWriter struct {
	gin.ResponseWriter
	header http.Header
	status int
	body   bytes.Buffer
}

func capture(ctx *gin.Context) *captureWriter {
	w := &captureWriter{ResponseWriter: ctx.Writer, header: http.Header{}, status: http.StatusOK}
	ctx.Writer = w
	return w
}

func (w *captureWriter) Header() http.Header { return w.header }

func (w *captureWriter) WriteHeader(code int) {
	if code > 0 {
		w.status = code
	}
}

func (w *captureWriter) WriteHeaderNow() {}

func (w *captureWriter) Write(b []byte) (int, error) { return w.body.Write(b) }

func (w *captureWriter) WriteString(s string) (int, error) { return w.body.WriteString(s) }

func (w *captureWriter) Status() int { return w.status }

func (w *captureWriter) Size() int { return w.body.Len() }

func (w *captureWriter) Written() bool { return w.body.Len() > 0 }

func (w *captureWriter) entry() Entry {
	return Entry{Status: w.status, ContentType: w.header.Get("Content-Type"), Body: w.body.Bytes()}
}

func (w *captureWriter) replace(e Entry) {
	w.status = e.Status
	w.header = http.Header{}
	if e.ContentType != "" {
		w.header.Set("Content-Type", e.ContentType)
	}
	w.body.Reset()
	w.body.Write(e.Body)
}

// release restores the real writer on ctx and sends the buffered response.
func (w *captureWriter) release(ctx *gin.Context) {
	dst := w.ResponseWriter
	ctx.Writer = dst
	for k, v := range w.header {
		dst.Header()[k] = v
	}
	dst.WriteHeader(w.status)
	_, _ = dst.Write(w.body.Bytes())
}
