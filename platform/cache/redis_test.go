package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewClientPingsServer(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(context.Background(), "redis://"+srv.Addr()+"/0", false)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	srv.CheckGet(t, "k", "v")
}

func TestParseOptionsInsecureTLS(t *testing.T) {
	opt, err := ParseOptions("redis://localhost:6379/2", true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatalf("expected insecure TLS config")
	}
	if opt.DB != 2 {
		t.Fatalf("expected db 2, got %d", opt.DB)
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient(context.Background(), "", false); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
