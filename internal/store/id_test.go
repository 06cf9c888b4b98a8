package store

import (
	"errors"
	"testing"
)

func TestGenerateAttachmentID(t *testing.T) {
	t.Run("shape", func(t *testing.T) {
		id, err := GenerateAttachmentID(nil)
		if err != nil {
			t.Fatalf("generate attachment id: %v", err)
		}
		if len(id) != 11 {
			t.Fatalf("expected length 11, got %d: %s", len(id), id)
		}
		if !IsAttachmentID(id) {
			t.Fatalf("expected generated id %q to validate", id)
		}
	})

	t.Run("retries on collision", func(t *testing.T) {
		calls := 0
		exists := func(string) (bool, error) {
			calls++
			return calls < 3, nil
		}
		if _, err := GenerateAttachmentID(exists); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Fatalf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		_, err := GenerateAttachmentID(func(string) (bool, error) { return true, nil })
		if !errors.Is(err, ErrIDSpaceExhausted) {
			t.Fatalf("expected ErrIDSpaceExhausted, got %v", err)
		}
	})

	t.Run("lookup failure", func(t *testing.T) {
		boom := errors.New("db down")
		_, err := GenerateAttachmentID(func(string) (bool, error) { return false, boom })
		if !errors.Is(err, boom) {
			t.Fatalf("expected wrapped lookup error, got %v", err)
		}
	})
}

func TestIsAttachmentID(t *testing.T) {
	for _, good := range []string{"at-abcd1234", "at-00000000", "at-zzzzzzzz"} {
		if !IsAttachmentID(good) {
			t.Fatalf("expected %q to validate", good)
		}
	}
	for _, bad := range []string{"", "at-", "bl-abcd1234", "at-ABCD1234", "at-abcd123", "at-abcd12345", "at-abcd-234"} {
		if IsAttachmentID(bad) {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
