package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akio-byte/joulun-tonttu-me/pkg/domain"
)

func testPhoto(t *testing.T, shade uint8) domain.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(2, 2, color.RGBA{R: shade, G: 10, B: 10, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return domain.Image{MIME: "image/png", Data: buf.Bytes()}
}

func testRequest(t *testing.T) PersonalizeRequest {
	return PersonalizeRequest{Photo: testPhoto(t, 200), Wish: "matka Lappiin", Name: "Aino"}
}

func assertFallback(t *testing.T, req PersonalizeRequest, got domain.PersonalizationResult) {
	t.Helper()
	if !got.IsFallback {
		t.Error("IsFallback = false, want true")
	}
	if !got.Image.Equal(req.Photo) {
		t.Error("fallback image is not the captured photo")
	}
	if got.Title != FallbackTitle {
		t.Errorf("Title = %q, want %q", got.Title, FallbackTitle)
	}
	if !strings.Contains(got.Description, req.Name) {
		t.Errorf("Description %q does not mention %q", got.Description, req.Name)
	}
	if got.Score != domain.DefaultScore {
		t.Errorf("Score = %d, want %d", got.Score, domain.DefaultScore)
	}
}

func TestPersonalizeSuccess(t *testing.T) {
	req := testRequest(t)
	elf := testPhoto(t, 30)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in personalizePayload
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if in.Name != "Aino" || in.Wish != "matka Lappiin" || in.APIKey != "key" {
			t.Errorf("unexpected payload: %+v", in)
		}
		if in.PhotoBase64 != req.Photo.DataURL() {
			t.Error("photo not sent as data URL")
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"elfImageBase64": elf.DataURL(),
			"title":          "Lahja-tonttu",
			"description":    "Aino on lahjojen mestari.",
			"mysticalPhrase": "Tähdet näyttävät tietä.",
			"score":          9,
		})
	}))
	defer srv.Close()

	got := NewPersonalizer(srv.URL, "key", time.Second).Personalize(context.Background(), req)
	if got.IsFallback {
		t.Fatal("IsFallback = true, want false")
	}
	if !got.Image.Equal(elf) {
		t.Error("image not taken from response")
	}
	if got.Title != "Lahja-tonttu" || got.MysticalPhrase != "Tähdet näyttävät tietä." || got.Score != 9 {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestPersonalizeSuccessDefaultsOptionalFields(t *testing.T) {
	req := testRequest(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"elfImageBase64": testPhoto(t, 5).DataURL(),
			"title":          "Joulu-taikuri",
			"description":    "Taikaa.",
		})
	}))
	defer srv.Close()

	got := NewPersonalizer(srv.URL, "", time.Second).Personalize(context.Background(), req)
	if got.IsFallback {
		t.Fatal("IsFallback = true, want false")
	}
	if got.Score != domain.DefaultScore {
		t.Errorf("Score = %d, want default %d", got.Score, domain.DefaultScore)
	}
	if got.MysticalPhrase != MysticalPhrase(req.Wish) {
		t.Errorf("MysticalPhrase = %q, want wish-derived phrase", got.MysticalPhrase)
	}
}

func TestPersonalizeClampsScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"elfImageBase64": testPhoto(t, 5).DataURL(),
			"title":          "Mestari-tonttu",
			"description":    "Huippu.",
			"score":          15,
		})
	}))
	defer srv.Close()

	got := NewPersonalizer(srv.URL, "", time.Second).Personalize(context.Background(), testRequest(t))
	if got.Score != domain.MaxScore {
		t.Errorf("Score = %d, want %d", got.Score, domain.MaxScore)
	}
}

func TestPersonalizeFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{"error": "LOVABLE_API_KEY not configured"}) //nolint:errcheck
		}},
		{"error body with 200", func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"error": "quota", "fallback": true}) //nolint:errcheck
		}},
		{"missing title", func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"elfImageBase64": "data:image/png;base64,AAAA", "description": "x"}) //nolint:errcheck
		}},
		{"missing image", func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"title": "t", "description": "d"}) //nolint:errcheck
		}},
		{"image not a data url", func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"elfImageBase64": "https://cdn/elf.png", "title": "t", "description": "d"}) //nolint:errcheck
		}},
		{"malformed json", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("{not json")) //nolint:errcheck
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			req := testRequest(t)
			got := NewPersonalizer(srv.URL, "", time.Second).Personalize(context.Background(), req)
			assertFallback(t, req, got)
		})
	}
}

func TestPersonalizeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	req := testRequest(t)
	got := NewPersonalizer(url, "", time.Second).Personalize(context.Background(), req)
	assertFallback(t, req, got)
	if !strings.Contains(got.MysticalPhrase, "matka Lappiin") {
		t.Errorf("MysticalPhrase = %q, want it to quote the wish", got.MysticalPhrase)
	}
}

func TestPersonalizeTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	req := testRequest(t)
	got := NewPersonalizer(srv.URL, "", 50*time.Millisecond).Personalize(context.Background(), req)
	assertFallback(t, req, got)
}

func TestPersonalizeHonorsConfiguredTimeout(t *testing.T) {
	p := NewPersonalizer("http://127.0.0.1:1", "", 45*time.Second)
	if got := p.api.httpClient.Timeout; got != 0 {
		t.Errorf("http.Client.Timeout = %v, want none so the 45s deadline applies", got)
	}
	if p.timeout != 45*time.Second {
		t.Errorf("timeout = %v, want 45s", p.timeout)
	}
}

func TestPersonalizeSlowServerWithinTimeout(t *testing.T) {
	elf := testPhoto(t, 30)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(150 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"elfImageBase64": elf.DataURL(),
			"title":          "Hidas tonttu",
			"description":    "Kiire ei ole.",
		})
	}))
	defer srv.Close()

	got := NewPersonalizer(srv.URL, "", 5*time.Second).Personalize(context.Background(), testRequest(t))
	if got.IsFallback || got.Title != "Hidas tonttu" {
		t.Errorf("slow response within the timeout fell back: %+v", got)
	}
}

func TestFallbackReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unauthorized", &HTTPError{StatusCode: http.StatusUnauthorized}, "unauthorized"},
		{"forbidden wrapped", fmt.Errorf("post: %w", &HTTPError{StatusCode: http.StatusForbidden}), "unauthorized"},
		{"rate limited", &HTTPError{StatusCode: http.StatusTooManyRequests}, "rate_limited"},
		{"server error", &HTTPError{StatusCode: http.StatusBadGateway}, "status"},
		{"deadline", fmt.Errorf("do request: %w", context.DeadlineExceeded), "timeout"},
		{"transport", errors.New("connection refused"), "unreachable"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := fallbackReason(tc.err); got != tc.want {
				t.Errorf("fallbackReason(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestPersonalizeNotConfigured(t *testing.T) {
	req := testRequest(t)
	assertFallback(t, req, NewPersonalizer("", "", time.Second).Personalize(context.Background(), req))

	var p *Personalizer
	assertFallback(t, req, p.Personalize(context.Background(), req))
}

func TestMysticalPhrase(t *testing.T) {
	if got := MysticalPhrase("   "); got != "" {
		t.Errorf("MysticalPhrase(blank) = %q, want empty", got)
	}

	long := strings.Repeat("lumi ", 30)
	got := MysticalPhrase(long)
	if !strings.Contains(got, "…") {
		t.Errorf("expected ellipsis in %q", got)
	}
	if !strings.Contains(got, strings.TrimSpace(long[:40])) {
		t.Errorf("expected wish prefix in %q", got)
	}
}
