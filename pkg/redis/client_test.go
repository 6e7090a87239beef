package redis

import (
	"testing"

	"github.com/Cervini/reinventory-backend/pkg/config"
)

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	t.Parallel()

	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}
}

func TestOptionsFromConfigAddress(t *testing.T) {
	t.Parallel()

	opts, err := optionsFromConfig(config.RedisConfig{
		Address:  "localhost:6379",
		Password: "pw",
		DB:       2,
		PoolSize: 7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.Password != "pw" || opts.DB != 2 || opts.PoolSize != 7 {
		t.Fatalf("options not applied: %+v", opts)
	}
}

func TestOptionsFromConfigURL(t *testing.T) {
	t.Parallel()

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:secret@example.com:6380/3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "example.com:6380" || opts.DB != 3 {
		t.Fatalf("url not parsed: %+v", opts)
	}
}

func TestKeyBuilders(t *testing.T) {
	t.Parallel()

	c := &Client{}
	if got := c.PresenceKey("camp", "dm"); got != "reinv:presence:camp:dm" {
		t.Fatalf("unexpected presence key: %s", got)
	}
	if got := c.ChangeChannel("campaigns/abc"); got != "reinv:changes:campaigns/abc" {
		t.Fatalf("unexpected change channel: %s", got)
	}
}
