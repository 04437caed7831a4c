package embedding

import (
	"context"
	"testing"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder()
	ctx := context.Background()

	a, err := e.Embed(ctx, "바이오 신약 개발 과제")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Embed(ctx, "바이오 신약 개발 과제")
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != hashDimensions || len(b) != hashDimensions {
		t.Fatalf("expected %d dimensions, got %d and %d", hashDimensions, len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same text produced different vectors at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestHashEmbedder_DifferentTextsDiffer(t *testing.T) {
	e := NewHashEmbedder()
	ctx := context.Background()

	a, _ := e.Embed(ctx, "quantum computing")
	b, _ := e.Embed(ctx, "drug discovery")
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}

func TestHashEmbedder_RangeAndEmptyInput(t *testing.T) {
	e := NewHashEmbedder()
	vec, err := e.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("empty input should not fail: %v", err)
	}
	if len(vec) != e.Dimensions() {
		t.Fatalf("expected %d dimensions, got %d", e.Dimensions(), len(vec))
	}
	for i, v := range vec {
		if v < 0 || v > 1 {
			t.Errorf("component %d = %v, want [0,1]", i, v)
		}
	}
	if e.Provider() != ProviderHash {
		t.Errorf("Provider = %s", e.Provider())
	}
}
