// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompression(t *testing.T) {
	t.Parallel()

	body := strings.Repeat(`{"id":1,"name":"Gulf Star"}`, 100)
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cached") == "1" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))

	tests := []struct {
		name         string
		target       string
		encoding     string
		upgrade      string
		wantStatus   int
		wantEncoding string
	}{
		{name: "gzip accepted", target: "/snapshot", encoding: "gzip, deflate", wantStatus: http.StatusOK, wantEncoding: "gzip"},
		{name: "no accept-encoding", target: "/snapshot", wantStatus: http.StatusOK},
		{name: "websocket upgrade", target: "/ws", encoding: "gzip", upgrade: "websocket", wantStatus: http.StatusOK},
		{name: "not modified", target: "/snapshot?cached=1", encoding: "gzip", wantStatus: http.StatusNotModified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.encoding != "" {
				req.Header.Set("Accept-Encoding", tt.encoding)
			}
			if tt.upgrade != "" {
				req.Header.Set("Upgrade", tt.upgrade)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Content-Encoding"); got != tt.wantEncoding {
				t.Fatalf("Content-Encoding = %q, want %q", got, tt.wantEncoding)
			}

			switch {
			case tt.wantStatus == http.StatusNotModified:
				if rec.Body.Len() != 0 {
					t.Errorf("304 body = %d bytes, want empty", rec.Body.Len())
				}
			case tt.wantEncoding == "gzip":
				zr, err := gzip.NewReader(rec.Body)
				if err != nil {
					t.Fatal(err)
				}
				got, err := io.ReadAll(zr)
				if err != nil {
					t.Fatal(err)
				}
				if string(got) != body {
					t.Error("decompressed body differs")
				}
			default:
				if rec.Body.String() != body {
					t.Error("plain body differs")
				}
			}
		})
	}
}
