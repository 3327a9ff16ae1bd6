package email

import (
	"testing"
)

// TestResendTags verifies tags are ordered by key and stripped of characters Resend rejects.
func TestResendTags(t *testing.T) {
	got := resendTags(map[string]string{"role": "attendant", "category": "credentials", "lot name": "Gedung A"})
	want := []struct{ name, value string }{
		{"category", "credentials"},
		{"lot_name", "Gedung_A"},
		{"role", "attendant"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tags, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Name != w.name || got[i].Value != w.value {
			t.Errorf("tag %d = %s=%s, want %s=%s", i, got[i].Name, got[i].Value, w.name, w.value)
		}
	}
	if resendTags(nil) != nil {
		t.Error("nil tags should convert to nil")
	}
}
