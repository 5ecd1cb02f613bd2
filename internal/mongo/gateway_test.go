package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/dashboard/internal/domain"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
)

func TestConnectMissingURI(t *testing.T) {
	g := NewGateway(ConnectOptions{}, logger.NewNop())

	_, err := g.Connect(context.Background())
	if !errors.Is(err, domain.ErrConnection) {
		t.Fatalf("Connect() error = %v, want ErrConnection", err)
	}
	if g.Dials() != 0 {
		t.Errorf("Dials() = %d, want 0 (no dial without URI)", g.Dials())
	}
}

func TestConnectInvalidURI(t *testing.T) {
	g := NewGateway(ConnectOptions{URI: "postgres://nope"}, logger.NewNop())

	_, err := g.Connect(context.Background())
	if !errors.Is(err, domain.ErrConnection) {
		t.Fatalf("Connect() error = %v, want ErrConnection", err)
	}
}

func TestConnectUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping dial timeout test in short mode")
	}

	g := NewGateway(ConnectOptions{
		URI:                    "mongodb://127.0.0.1:1/?directConnection=true",
		ConnectTimeout:         300 * time.Millisecond,
		ServerSelectionTimeout: 300 * time.Millisecond,
	}, logger.NewNop())

	_, err := g.Connect(context.Background())
	if !errors.Is(err, domain.ErrConnection) {
		t.Fatalf("Connect() error = %v, want ErrConnection", err)
	}

	// A failed dial is not memoized.
	_, _ = g.Connect(context.Background())
	if g.Dials() != 2 {
		t.Errorf("Dials() = %d, want 2", g.Dials())
	}
}

func TestCloseUnconnected(t *testing.T) {
	g := NewGateway(ConnectOptions{URI: "mongodb://localhost:27017"}, logger.NewNop())
	if err := g.Close(context.Background()); err != nil {
		t.Errorf("Close() on unconnected gateway = %v, want nil", err)
	}
}

func TestResolveDatabase(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		fromURI  string
		want     string
	}{
		{"explicit wins", "dash", "fromuri", "dash"},
		{"uri path", "", "fromuri", "fromuri"},
		{"default", "", "", DefaultDatabase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveDatabase(tt.explicit, tt.fromURI); got != tt.want {
				t.Errorf("resolveDatabase() = %q, want %q", got, tt.want)
			}
		})
	}
}
