package pipeline

import (
	"context"
	"testing"
)

func TestTransaction_Properties(t *testing.T) {
	tx := NewTransaction("op", nil, NewScope())
	if tx.ID == "" {
		t.Fatal("transaction id is empty")
	}
	if tx.Options == nil || tx.Logger == nil {
		t.Fatal("transaction options and logger must default")
	}

	tx.SetProperty("b", 1)
	tx.SetProperty("a", "x")
	tx.SetProperty("b", 2)

	if got := tx.PropertyKeys(); !equal(got, []string{"b", "a"}) {
		t.Fatalf("keys: %v", got)
	}
	if v, ok := Property[int](tx, "b"); !ok || v != 2 {
		t.Fatalf("b: %v %v", v, ok)
	}
	if _, ok := Property[int](tx, "a"); ok {
		t.Fatal("typed lookup should fail on type mismatch")
	}

	tx.RemoveProperty("b")
	if _, ok := tx.Property("b"); ok {
		t.Fatal("b still present")
	}
	if got := tx.PropertyKeys(); !equal(got, []string{"a"}) {
		t.Fatalf("keys after remove: %v", got)
	}
}

func TestTransaction_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tx, _, err := DefaultFactory.CreateTransaction(context.Background(), "op", &Options{})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[tx.ID] {
			t.Fatalf("duplicate id %s", tx.ID)
		}
		seen[tx.ID] = true
	}
}

func TestDefaultFactory_ScopeBoundToTransaction(t *testing.T) {
	tx, scope, err := DefaultFactory.CreateTransaction(context.Background(), "op", &Options{Issuer: "https://issuer"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.Scope() != scope {
		t.Fatal("scope not bound to transaction")
	}
	if tx.Operation != "op" || tx.Options.Issuer != "https://issuer" {
		t.Fatalf("transaction: %+v", tx)
	}
}

func TestOptions_DiscoveryAddress(t *testing.T) {
	cases := []struct {
		opts Options
		want string
	}{
		{Options{}, ""},
		{Options{Issuer: "https://issuer.example"}, "https://issuer.example/.well-known/openid-configuration"},
		{Options{Issuer: "https://issuer.example/tenant/"}, "https://issuer.example/tenant/.well-known/openid-configuration"},
		{Options{Issuer: "https://issuer.example", MetadataAddress: "https://meta.example/conf"}, "https://meta.example/conf"},
	}
	for _, c := range cases {
		if got := c.opts.DiscoveryAddress(); got != c.want {
			t.Errorf("DiscoveryAddress(%+v) = %q, want %q", c.opts, got, c.want)
		}
	}
}
