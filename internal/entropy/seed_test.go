package entropy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNilClientFallsBack(t *testing.T) {
	var c *Client
	if c.Enabled() {
		t.Fatal("nil client reports enabled")
	}
	seed, source := c.Seed(context.Background())
	if source != SourceCrypto || seed <= 0 {
		t.Fatalf("expected positive crypto seed, got %d from %s", seed, source)
	}
	if NewClient("") != nil {
		t.Fatal("expected nil client without a key")
	}
}

func TestSeedFromRandomOrg(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			Params struct {
				APIKey string `json:"apiKey"`
				N      int    `json:"n"`
			} `json:"params"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "generateIntegers" || req.Params.APIKey != "k" || req.Params.N != 2 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"random":{"data":[3,5]}},"id":1}`))
	}))
	defer srv.Close()

	c := NewClient("k")
	c.Endpoint = srv.URL
	seed, source := c.Seed(context.Background())
	if source != SourceRandomOrg {
		t.Fatalf("expected random.org, got %s", source)
	}
	if seed != 3<<31|5 {
		t.Fatalf("unexpected seed %d", seed)
	}
}

func TestSeedFallsBackOnAPIError(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"rpc error": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"jsonrpc":"2.0","error":{"message":"quota exceeded"},"id":1}`))
		},
		"short data": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"jsonrpc":"2.0","result":{"random":{"data":[7]}},"id":1}`))
		},
		"http status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			c := NewClient("k")
			c.Endpoint = srv.URL
			seed, source := c.Seed(context.Background())
			if source != SourceCrypto || seed <= 0 {
				t.Fatalf("expected crypto fallback, got %d from %s", seed, source)
			}
		})
	}
}
