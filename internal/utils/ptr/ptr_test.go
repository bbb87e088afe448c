package ptr

import "testing"

func TestTo(t *testing.T) {
	t.Run("int", func(t *testing.T) {
		i := 42
		p := To(i)
		if p == nil {
			t.Fatal("Expected non-nil pointer")
		}
		if *p != i {
			t.Errorf("Expected %d, got %d", i, *p)
		}
		if p == &i {
			t.Error("Expected different address")
		}
	})

	t.Run("custom type", func(t *testing.T) {
		type Key string
		if got := *To(Key("iems")); got != "iems" {
			t.Errorf("Expected iems, got %q", got)
		}
	})
}

func TestDeref(t *testing.T) {
	if got := Deref[int](nil, 7); got != 7 {
		t.Errorf("Expected default 7, got %d", got)
	}
	if got := Deref(To(3), 7); got != 3 {
		t.Errorf("Expected 3, got %d", got)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b *int
		want bool
	}{
		{"both nil", nil, nil, true},
		{"one nil", To(1), nil, false},
		{"other nil", nil, To(1), false},
		{"same value", To(5), To(5), true},
		{"different value", To(5), To(6), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClone(t *testing.T) {
	if Clone[int](nil) != nil {
		t.Error("Expected nil clone")
	}
	orig := To(10)
	c := Clone(orig)
	*c = 11
	if *orig != 10 {
		t.Errorf("Clone shares memory: orig=%d", *orig)
	}
}
