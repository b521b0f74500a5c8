package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStaticPreviewProbesRawID(t *testing.T) {
	var probed string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = r.Method + " " + r.URL.Path
	}))
	defer srv.Close()

	preview := staticPreview(context.Background(), srv.URL, srv.URL+"/banner_300x250")
	if preview == nil {
		t.Fatal("expected a preview record for a 200 response")
	}
	if probed != "HEAD /previews/banner_300x250" {
		t.Errorf("probed %q, want HEAD /previews/banner_300x250", probed)
	}
	if preview.URL != srv.URL+"/previews/banner_300x250" {
		t.Errorf("unexpected preview URL %q", preview.URL)
	}
}

func TestStaticPreviewNilOnMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if preview := staticPreview(context.Background(), srv.URL, "banner"); preview != nil {
		t.Errorf("expected nil for a 404 response, got %+v", preview)
	}
}

func TestStaticPreviewNilOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	if preview := staticPreview(context.Background(), srv.URL, "banner"); preview != nil {
		t.Errorf("expected nil when the host is unreachable, got %+v", preview)
	}
}

func TestOrDash(t *testing.T) {
	cases := map[string]string{
		"":        "-",
		"   ":     "-",
		"banner":  "banner",
		" story ": "story",
	}
	for in, want := range cases {
		if got := orDash(in); got != want {
			t.Errorf("orDash(%q) = %q, want %q", in, got, want)
		}
	}
}
