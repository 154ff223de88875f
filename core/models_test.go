package core

import (
	"math/rand/v2"
	"testing"
	"time"
)

func TestNewID(t *testing.T) {
	seen := make(map[ID]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("NewID() returned an empty ID")
		}
		if seen[id] {
			t.Fatalf("NewID() returned duplicate %s", id)
		}
		seen[id] = true
	}
}

func TestClone(t *testing.T) {
	category := &Category{ID: "c", Name: "Work", DateCreated: time.Now(), Color: "#FFFFFF"}
	cp := category.Clone()
	cp.Name = "Home"
	if category.Name != "Work" {
		t.Errorf("Category.Clone() shares state: name = %q", category.Name)
	}

	item := &Item{ID: "i", CategoryID: "c", Title: "Buy milk"}
	icp := item.Clone()
	icp.Done = true
	if item.Done {
		t.Error("Item.Clone() shares state: done = true")
	}

	var nilItem *Item
	if nilItem.Clone() != nil {
		t.Error("Clone() of nil item should be nil")
	}
}

func TestContainsFold(t *testing.T) {
	tests := []struct {
		s, substr string
		want      bool
	}{
		{"Call Bob", "ca", true},
		{"Call Bob", "CA", true},
		{"Buy milk", "ca", false},
		{"Email team", "", true},
		{"Émile", "émi", true},
	}

	for _, tt := range tests {
		if got := ContainsFold(tt.s, tt.substr); got != tt.want {
			t.Errorf("ContainsFold(%q, %q) = %v, want %v", tt.s, tt.substr, got, tt.want)
		}
	}
}

func TestCompareFold(t *testing.T) {
	if CompareFold("apple", "Banana") >= 0 {
		t.Error("CompareFold(apple, Banana) should be negative")
	}
	if CompareFold("Zed", "alpha") <= 0 {
		t.Error("CompareFold(Zed, alpha) should be positive")
	}
	if CompareFold("same", "same") != 0 {
		t.Error("CompareFold(same, same) should be zero")
	}
	if CompareFold("Same", "same") == 0 {
		t.Error("CompareFold should break case ties deterministically")
	}
}

func TestRandomColor(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	t.Run("picks from palette", func(t *testing.T) {
		color := RandomColor(rng)
		found := false
		for _, c := range Palette {
			if c == color {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("RandomColor() = %s, not in palette", color)
		}
	})

	t.Run("avoids near duplicates", func(t *testing.T) {
		avoid := []string{"#1ABC9C"}
		for i := 0; i < 200; i++ {
			color := RandomColor(rng, avoid...)
			if color == "#1ABC9C" || color == "#16A085" {
				t.Fatalf("RandomColor() = %s, too close to %v", color, avoid)
			}
		}
	})

	t.Run("falls back when everything is taken", func(t *testing.T) {
		color := RandomColor(rng, Palette...)
		if color == "" {
			t.Error("RandomColor() returned empty color")
		}
	})

	t.Run("ignores malformed tokens", func(t *testing.T) {
		color := RandomColor(rng, "not-a-color", "#12")
		if color == "" {
			t.Error("RandomColor() returned empty color")
		}
	})
}
