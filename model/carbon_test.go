package model

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		kg   float64
		want Category
	}{
		{0, CategoryZero},
		{-1, CategoryZero},
		{0.0001, CategoryLow},
		{0.03, CategoryLow},
		{1.0, CategoryLow},
		{1.0000001, CategoryMedium},
		{5.0, CategoryMedium},
		{5.01, CategoryHigh},
		{250, CategoryHigh},
	}
	for _, tt := range tests {
		if got := Classify(tt.kg); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.kg, got, tt.want)
		}
	}
}

func TestClassify_Monotonic(t *testing.T) {
	prev := Classify(0)
	for v := 0.0; v <= 10; v += 0.05 {
		c := Classify(v)
		if c < prev {
			t.Fatalf("Classify(%v) = %v is lower than previous %v", v, c, prev)
		}
		prev = c
	}
}

func TestCategoryPresentation(t *testing.T) {
	tests := []struct {
		c                   Category
		label, color, emoji string
	}{
		{CategoryZero, "Zero emission", "green", "🌱"},
		{CategoryLow, "Low", "light-green", "🍃"},
		{CategoryMedium, "Medium", "orange", "⚠️"},
		{CategoryHigh, "High", "red", "🔥"},
		{Category(9), "Unknown", "", ""},
	}
	for _, tt := range tests {
		if tt.c.Label() != tt.label || tt.c.Color() != tt.color || tt.c.Emoji() != tt.emoji {
			t.Errorf("%d: got %q %q %q", tt.c, tt.c.Label(), tt.c.Color(), tt.c.Emoji())
		}
		if tt.c.String() != tt.label {
			t.Errorf("String() = %q", tt.c.String())
		}
	}
}

func TestGramsToKilograms(t *testing.T) {
	if got := GramsToKilograms(30); got != 0.03 {
		t.Errorf("GramsToKilograms(30) = %v", got)
	}
	if got := GramsToKilograms(0); got != 0 {
		t.Errorf("GramsToKilograms(0) = %v", got)
	}
}
