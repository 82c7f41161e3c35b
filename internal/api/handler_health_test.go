package api

import (
	"net/http"
	"testing"
)

func TestLivez_ReturnsOK(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodGet, "/v1/livez", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusOK)
	}
	resp := decode[map[string]string](t, w)
	if resp["status"] != "ok" {
		t.Errorf("status: got %q, want %q", resp["status"], "ok")
	}
}

func TestLivez_OKWhenLoadFailed(t *testing.T) {
	env := newFailedEnv(t)

	w := env.do(t, http.MethodGet, "/v1/livez", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", w.Code, http.StatusOK)
	}
}

func TestReadyz_Healthy(t *testing.T) {
	env := newTestEnv(t, []string{"Anna"}, nil)

	w := env.do(t, http.MethodGet, "/v1/readyz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d\nbody: %s", w.Code, http.StatusOK, w.Body.String())
	}
	resp := decode[readyzResponse](t, w)
	if resp.Status != "ok" || resp.Store.Status != "ok" || resp.Cache != "ready" {
		t.Errorf("got %+v", resp)
	}
}

func TestReadyz_StoreDown(t *testing.T) {
	env := newTestEnv(t, []string{"Anna"}, nil)
	env.store.down.Store(true)

	w := env.do(t, http.MethodGet, "/v1/readyz", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	resp := decode[readyzResponse](t, w)
	if resp.Status != "unavailable" {
		t.Errorf("status: got %q", resp.Status)
	}
	if resp.Store.Status != "error" || resp.Store.Error != errBackend.Error() {
		t.Errorf("store: got %+v", resp.Store)
	}
}

func TestReadyz_CacheNotLoaded(t *testing.T) {
	env := newFailedEnv(t)

	w := env.do(t, http.MethodGet, "/v1/readyz", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	resp := decode[readyzResponse](t, w)
	if resp.Store.Status != "ok" {
		t.Errorf("store: got %+v", resp.Store)
	}
	if resp.Cache != "failed" {
		t.Errorf("cache: got %q, want failed", resp.Cache)
	}
}
