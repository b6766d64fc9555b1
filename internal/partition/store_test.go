package partition

import (
	"errors"
	"testing"
)

func TestValidateKey(t *testing.T) {
	valid := []string{"acme", "acme-1", "a", "tenant-30-chars-long-aaaaaaaaa"}
	for _, key := range valid {
		if err := ValidateKey(key); err != nil {
			t.Fatalf("expected %q to be valid, got %v", key, err)
		}
	}

	invalid := []string{
		"",
		"Acme",
		"acme_1",
		"acme.example",
		`acme"; DROP SCHEMA public`,
		"tenant-key-well-over-thirty-characters-long",
		"pg-internal",
		"pg_catalog",
	}
	for _, key := range invalid {
		if err := ValidateKey(key); err == nil {
			t.Fatalf("expected %q to be rejected", key)
		}
	}
}

func TestScopeCloseOnlyReleasesOnce(t *testing.T) {
	releases := 0
	committed := false
	scope := NewScope("acme", nil, func(commit bool) error {
		releases++
		committed = commit
		return nil
	})

	if err := scope.Close(true); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := scope.Close(false); err != nil {
		t.Fatalf("second close failed: %v", err)
	}

	if releases != 1 {
		t.Fatalf("expected exactly one release, got %d", releases)
	}
	if !committed {
		t.Fatalf("expected the first close to commit")
	}
}

func TestScopeCloseReportsReleaseError(t *testing.T) {
	boom := errors.New("boom")
	scope := NewScope("acme", nil, func(bool) error { return boom })

	if err := scope.Close(true); !errors.Is(err, boom) {
		t.Fatalf("expected release error, got %v", err)
	}
	if err := scope.Close(true); err != nil {
		t.Fatalf("expected closed scope to be quiet, got %v", err)
	}
}

func TestNilScopeClose(t *testing.T) {
	var scope *Scope
	if err := scope.Close(true); err == nil {
		t.Fatalf("expected error closing nil scope")
	}
}
