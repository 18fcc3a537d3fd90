package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("product:\n  key: bike\n"))
	}))
	defer srv.Close()

	c := NewClient(noop.NewTracerProvider().Tracer("test"))

	body, err := c.Get(context.Background(), srv.URL+"/catalog.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(body), "key: bike")

	_, err = c.Get(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "404")
}
