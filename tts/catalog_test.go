package tts

import "testing"

func TestVoiceCatalogRefresh(t *testing.T) {
	c := NewVoiceCatalog()

	voices := []Voice{
		{Name: "Alice", Language: "en_US"},
		{Name: "Bob", Language: "en-GB"},
		{Name: "", Language: "fr-FR"},
		{Name: "Alice", Language: "de-DE"},
	}
	if !c.Refresh(voices) {
		t.Fatal("first Refresh() = false, want true")
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	alice, ok := c.Lookup("Alice")
	if !ok {
		t.Fatal("Lookup(Alice) failed")
	}
	if alice.Language != "en-US" {
		t.Errorf("Language = %q, want normalized en-US", alice.Language)
	}

	if c.Refresh(voices) {
		t.Error("Refresh() with same voices = true, want false")
	}
	if !c.Refresh([]Voice{{Name: "Bob", Language: "en-GB"}}) {
		t.Error("Refresh() after removal = false, want true")
	}
	if _, ok := c.Lookup("Alice"); ok {
		t.Error("Lookup(Alice) succeeded after removal")
	}
}

func TestVoiceCatalogVoicesIsCopy(t *testing.T) {
	c := NewVoiceCatalog()
	c.Refresh([]Voice{{Name: "Alice", Language: "en-US"}})

	v := c.Voices()
	v[0].Name = "Mallory"

	if _, ok := c.Lookup("Alice"); !ok {
		t.Error("mutating Voices() result changed the catalog")
	}
}

func TestVoiceCatalogFirst(t *testing.T) {
	c := NewVoiceCatalog()
	if _, ok := c.First(); ok {
		t.Fatal("First() on empty catalog succeeded")
	}
	c.Refresh([]Voice{{Name: "Zed"}, {Name: "Amy"}})
	if v, _ := c.First(); v.Name != "Zed" {
		t.Errorf("First() = %q, want engine order Zed", v.Name)
	}
}

func TestVoiceCatalogMatch(t *testing.T) {
	c := NewVoiceCatalog()
	c.Refresh([]Voice{
		{Name: "English (America)", Language: "en-US"},
		{Name: "German", Language: "de-DE"},
		{Name: "French", Language: "fr-FR"},
	})

	tests := []struct {
		query    string
		expected string
		found    bool
	}{
		{"german", "German", true},
		{"de-DE", "German", true},
		{"fr", "French", true},
		{"Frnch", "French", true},
		{"", "", false},
		{"qqqqqq", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			v, ok := c.Match(tt.query)
			if ok != tt.found {
				t.Fatalf("Match(%q) found = %v, want %v", tt.query, ok, tt.found)
			}
			if ok && v.Name != tt.expected {
				t.Errorf("Match(%q) = %q, want %q", tt.query, v.Name, tt.expected)
			}
		})
	}
}
