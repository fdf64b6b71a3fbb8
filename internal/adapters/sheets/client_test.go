package sheets_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"playgroup_finder/internal/adapters/sheets"
	"playgroup_finder/internal/domain"
)

func valuesHandler(values [][]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"range":          "MainSheet!A1:C3",
			"majorDimension": "ROWS",
			"values":         values,
		})
	}
}

func TestClient_FetchRows_APIKey(t *testing.T) {
	var gotPath, gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotKey = r.URL.Path, r.URL.Query().Get("key")
		valuesHandler([][]any{
			{"Address", "Age", "lat"},
			{"1 Main St", "Baby (0-12m)", 45.5},
			{"2 Side St"},
		})(w, r)
	}))
	defer ts.Close()

	cl, err := sheets.New(sheets.Options{BaseURL: ts.URL, SheetID: "sheet123", Range: "MainSheet!A:AL", APIKey: "k1", RPS: 100})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	tbl, err := cl.FetchRows(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if gotPath != "/spreadsheets/sheet123/values/MainSheet!A:AL" || gotKey != "k1" {
		t.Fatalf("unexpected request: path=%q key=%q", gotPath, gotKey)
	}
	if len(tbl) != 3 || tbl[1][2] != "45.5" || len(tbl[2]) != 1 {
		t.Fatalf("unexpected table: %#v", tbl)
	}
}

func TestClient_FetchRows_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(503)
		default:
			valuesHandler([][]any{{"A"}, {"x"}})(w, r)
		}
	}))
	defer ts.Close()

	cl, err := sheets.New(sheets.Options{BaseURL: ts.URL, SheetID: "s", Range: "R", APIKey: "k", RPS: 100})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tbl, err := cl.FetchRows(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(tbl) != 2 {
		t.Fatalf("unexpected table: %#v", tbl)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_FetchRange_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrForbidden},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		cl, err := sheets.New(sheets.Options{BaseURL: ts.URL, SheetID: "s", APIKey: "k", RPS: 100})
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		_, err = cl.FetchRange(context.Background(), "Other!A:B")
		ts.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestClient_GivesUpWhenContextEnds(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	cl, _ := sheets.New(sheets.Options{BaseURL: ts.URL, SheetID: "s", Range: "R", APIKey: "k", RPS: 100})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if _, err := cl.FetchRows(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestClient_ServiceAccountBearerToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("assertion") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "token_type": "Bearer", "expires_in": 3600})
	}))
	defer tokenSrv.Close()

	var auth, key1 string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, key1 = r.Header.Get("Authorization"), r.URL.Query().Get("key")
		valuesHandler([][]any{{"A"}})(w, r)
	}))
	defer api.Close()

	cl, err := sheets.New(sheets.Options{
		BaseURL:     api.URL,
		SheetID:     "s",
		Range:       "R",
		ClientEmail: "svc@example.iam.gserviceaccount.com",
		PrivateKey:  string(keyPEM),
		TokenURL:    tokenSrv.URL,
		APIKey:      "ignored",
		RPS:         100,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := cl.FetchRows(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if auth != "Bearer tok-1" || key1 != "" {
		t.Fatalf("unexpected auth: %q key=%q", auth, key1)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := sheets.New(sheets.Options{APIKey: "k"}); err == nil {
		t.Fatalf("expected error without sheet ID")
	}
	if _, err := sheets.New(sheets.Options{SheetID: "s"}); err == nil {
		t.Fatalf("expected error without credentials")
	}
}
