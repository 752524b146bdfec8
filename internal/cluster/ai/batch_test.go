package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kyuns-96/sanity-log-parser/internal/embed/embedtest"
)

func TestEmbedAllSlicesLosslessly(t *testing.T) {
	plan := &embedPlan{}
	var indices []int
	for i := 0; i < 600; i++ {
		indices = append(indices, plan.add(fmt.Sprintf("text %d", i)))
	}

	fake := &embedtest.Fake{}
	vectors, err := plan.embedAll(context.Background(), fake, 512)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 600 {
		t.Fatalf("expected 600 vectors, got %d", len(vectors))
	}
	if fake.CallCount() != 2 {
		t.Fatalf("expected 2 chunks for 600 texts at batch size 512, got %d", fake.CallCount())
	}
	if fake.TotalTexts() != 600 {
		t.Fatalf("expected 600 texts embedded, got %d", fake.TotalTexts())
	}

	// Chunked vectors must land at the same index the plan promised.
	for i, idx := range indices {
		text := fmt.Sprintf("text %d", i)
		direct, err := fake.EmbedBatch(context.Background(), []string{text})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := at(vectors, idx)
		for d := range got {
			if got[d] != direct[0][d] {
				t.Fatalf("vector for %q differs from direct embedding at dim %d", text, d)
			}
		}
	}
}

func TestEmbedAllSingleChunk(t *testing.T) {
	plan := &embedPlan{}
	for i := 0; i < 10; i++ {
		plan.add(fmt.Sprintf("t%d", i))
	}

	fake := &embedtest.Fake{}
	if _, err := plan.embedAll(context.Background(), fake, 512); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.CallCount() != 1 {
		t.Fatalf("expected 1 chunk, got %d", fake.CallCount())
	}
}

func TestEmbedAllFailureFailsWholePass(t *testing.T) {
	plan := &embedPlan{}
	for i := 0; i < 1024; i++ {
		plan.add(fmt.Sprintf("t%d", i))
	}

	fake := &embedtest.Fake{Err: errors.New("backend down"), FailAt: 2}
	if _, err := plan.embedAll(context.Background(), fake, 512); err == nil {
		t.Fatal("expected error when a chunk fails")
	}
}

func TestEmbedAllEmptyPlan(t *testing.T) {
	plan := &embedPlan{}
	fake := &embedtest.Fake{}
	vectors, err := plan.embedAll(context.Background(), fake, 512)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vectors != nil {
		t.Fatalf("expected nil vectors, got %v", vectors)
	}
	if fake.CallCount() != 0 {
		t.Fatalf("expected no embedding calls, got %d", fake.CallCount())
	}
}

func TestAtInactive(t *testing.T) {
	if at([][]float32{{1}}, -1) != nil {
		t.Fatal("expected nil for inactive slot")
	}
}
