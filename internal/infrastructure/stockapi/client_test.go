package stockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAvailability_BatchRequestAndMapping(t *testing.T) {
	var gotBody stockRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/stock" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(stockResponse{Items: []stockItem{
			{ProductID: "p-1", OnStock: 7},
			{ProductID: "p-2", OnStock: 0},
		}})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	got, err := c.Availability(context.Background(), []string{"p-1", "p-2", "p-3"})
	if err != nil {
		t.Fatal(err)
	}

	if len(gotBody.ProductIDs) != 3 {
		t.Fatalf("expected one batched request with 3 ids, got %+v", gotBody)
	}
	if got["p-1"] != 7 || got["p-2"] != 0 {
		t.Fatalf("unexpected mapping: %+v", got)
	}
	if v, ok := got["p-3"]; !ok || v != 0 {
		t.Fatalf("unreported id must come back as zero, got %+v", got)
	}
}

func TestAvailability_NegativeCountsClampedToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(stockResponse{Items: []stockItem{
			{ProductID: "p-1", OnStock: -3},
		}})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	got, err := c.Availability(context.Background(), []string{"p-1"})
	if err != nil {
		t.Fatal(err)
	}
	if got["p-1"] != 0 {
		t.Fatalf("negative stock must read as zero, got %d", got["p-1"])
	}
}

func TestAvailability_ErrorPaths(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := New(srv.URL, nil)
		if _, err := c.Availability(context.Background(), []string{"p-1"}); err == nil {
			t.Fatal("expected error on 502")
		}
	})

	t.Run("unreachable host", func(t *testing.T) {
		c := New("http://127.0.0.1:1", nil)
		if _, err := c.Availability(context.Background(), []string{"p-1"}); err == nil {
			t.Fatal("expected transport error")
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer srv.Close()

		c := New(srv.URL, nil)
		if _, err := c.Availability(context.Background(), []string{"p-1"}); err == nil {
			t.Fatal("expected decode error")
		}
	})
}
