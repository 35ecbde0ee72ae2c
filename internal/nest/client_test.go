package nest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"nestbridge/server/internal/aggregate"
	"nestbridge/server/internal/middleware"
)

func TestFetchPageRequestShape(t *testing.T) {
	var gotURL *url.URL
	var gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"items": [], "total_count": 0}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 0)
	params := url.Values{}
	params.Set("level", "flagship")
	_, err := c.FetchPage(context.Background(), aggregate.PageRequest{
		Resource: aggregate.Projects,
		Page:     2,
		PageSize: 100,
		Params:   params,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotURL.Path != "/projects/" {
		t.Errorf("path = %q, want /projects/", gotURL.Path)
	}
	q := gotURL.Query()
	if q.Get("page") != "2" || q.Get("page_size") != "100" {
		t.Errorf("pagination params = page=%s page_size=%s", q.Get("page"), q.Get("page_size"))
	}
	if q.Get("level") != "flagship" {
		t.Errorf("level = %q, want flagship", q.Get("level"))
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestFetchPageEnvelopes(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantItems  int
		wantTotal  int
		wantNext   bool
	}{
		{
			name:      "items with total_count",
			body:      `{"items": [{"name": "a"}, {"name": "b"}], "total_count": 42}`,
			wantItems: 2,
			wantTotal: 42,
		},
		{
			name:      "results with count",
			body:      `{"results": [{"name": "a"}], "count": 7}`,
			wantItems: 1,
			wantTotal: 7,
		},
		{
			name:      "bare array",
			body:      `[{"name": "a"}, {"name": "b"}, {"name": "c"}]`,
			wantItems: 3,
		},
		{
			name:      "has_next flag",
			body:      `{"items": [{"name": "a"}], "has_next": true}`,
			wantItems: 1,
			wantNext:  true,
		},
		{
			name:      "drf cursor present",
			body:      `{"results": [{"name": "a"}], "count": 9, "next": "https://nest.owasp.org/api/v0/projects/?page=2"}`,
			wantItems: 1,
			wantTotal: 9,
			wantNext:  true,
		},
		{
			name:      "drf cursor null",
			body:      `{"results": [{"name": "a"}], "count": 1, "next": null}`,
			wantItems: 1,
			wantTotal: 1,
		},
		{
			name:      "unknown keys skipped",
			body:      `{"schema_version": 3, "items": [{"name": "a"}], "extra": {"nested": [1, 2]}}`,
			wantItems: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "", 0)
			page, err := c.FetchPage(context.Background(), aggregate.PageRequest{
				Resource: aggregate.Projects,
				Page:     1,
				PageSize: 10,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(page.Items) != tt.wantItems {
				t.Errorf("items = %d, want %d", len(page.Items), tt.wantItems)
			}
			if page.TotalCount != tt.wantTotal {
				t.Errorf("total = %d, want %d", page.TotalCount, tt.wantTotal)
			}
			if page.HasNext != tt.wantNext {
				t.Errorf("hasNext = %v, want %v", page.HasNext, tt.wantNext)
			}
		})
	}
}

func TestFetchPageItemsDecodeIndependently(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"items": [{"name": "a", "stars_count": 12}, {"name": "b"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 0)
	page, err := c.FetchPage(context.Background(), aggregate.PageRequest{Resource: aggregate.Repositories, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var first map[string]any
	if err := json.Unmarshal(page.Items[0], &first); err != nil {
		t.Fatalf("item not independently decodable: %v", err)
	}
	if first["name"] != "a" || first["stars_count"] != float64(12) {
		t.Errorf("item 0 = %v", first)
	}
}

func TestFetchPageAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	req := aggregate.PageRequest{Resource: aggregate.Projects, Page: 1, PageSize: 10}

	t.Run("configured key", func(t *testing.T) {
		c := NewClient(srv.URL, "server-key", 0)
		if _, err := c.FetchPage(context.Background(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotKey != "server-key" {
			t.Errorf("X-API-Key = %q, want server-key", gotKey)
		}
	})

	t.Run("per-request key overrides", func(t *testing.T) {
		c := NewClient(srv.URL, "server-key", 0)
		ctx := context.WithValue(context.Background(), middleware.NestAPIKeyKey, "caller-key")
		if _, err := c.FetchPage(ctx, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotKey != "caller-key" {
			t.Errorf("X-API-Key = %q, want caller-key", gotKey)
		}
	})

	t.Run("no key", func(t *testing.T) {
		c := NewClient(srv.URL, "", 0)
		if _, err := c.FetchPage(context.Background(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotKey != "" {
			t.Errorf("X-API-Key = %q, want empty", gotKey)
		}
	})
}

func TestFetchPageErrors(t *testing.T) {
	t.Run("unknown resource", func(t *testing.T) {
		c := NewClient("http://unused.invalid", "", 0)
		if _, err := c.FetchPage(context.Background(), aggregate.PageRequest{Resource: "widgets"}); err == nil {
			t.Fatal("expected error for unmapped resource")
		}
	})

	t.Run("upstream status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", 0)
		_, err := c.FetchPage(context.Background(), aggregate.PageRequest{Resource: aggregate.Projects, Page: 1, PageSize: 10})
		if err == nil {
			t.Fatal("expected error for 429 response")
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"items": [`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", 0)
		if _, err := c.FetchPage(context.Background(), aggregate.PageRequest{Resource: aggregate.Projects, Page: 1, PageSize: 10}); err == nil {
			t.Fatal("expected decode error")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{"items": []}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "", 50*time.Millisecond)
		if _, err := c.FetchPage(context.Background(), aggregate.PageRequest{Resource: aggregate.Projects, Page: 1, PageSize: 10}); err == nil {
			t.Fatal("expected timeout error")
		}
	})
}
