package adapters

import "testing"

func TestDerive(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "plain hash key", key: "3ca4f3c2b9e04f80b6b4a02a31bcbbbd"},
		{name: "empty key", key: ""},
		{name: "path-unsafe key", key: "../../etc/passwd"},
		{name: "very long key", key: string(make([]byte, 4096))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.key)
			if len(got) != 64 {
				t.Errorf("derived key length = %d, want 64", len(got))
			}
			if got != Derive(tt.key) {
				t.Error("derivation is not deterministic")
			}
			for _, r := range got {
				if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
					t.Errorf("derived key contains non-hex rune %q", r)
					break
				}
			}
		})
	}

	if Derive("a") == Derive("b") {
		t.Error("distinct keys derived to the same physical key")
	}
}
