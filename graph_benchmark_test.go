package itemshop

import (
	"context"
	"fmt"
	"testing"
)

// declareFanout declares n queries that all project the search term
func declareFanout(b *testing.B, n int) *Graph {
	b.Helper()
	g, err := NewGraph()
	if err != nil {
		b.Fatalf("NewGraph failed: %v", err)
	}
	for i := 0; i < n; i++ {
		Declare(g, fmt.Sprintf("q%d", i), searchTerm, func(ctx context.Context, in string) (int, error) {
			return len(in), nil
		})
	}
	return g
}

func BenchmarkGraph_InputChange(b *testing.B) {
	for _, n := range []int{1, 7, 50} {
		b.Run(fmt.Sprintf("queries=%d", n), func(b *testing.B) {
			g := declareFanout(b, n)
			defer g.Close()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				g.OnInputsChanged(Filter{SearchTerm: fmt.Sprintf("term-%d", i)})
				g.Wait()
			}
		})
	}
}

func BenchmarkGraph_UnchangedProjection(b *testing.B) {
	g := declareFanout(b, 7)
	defer g.Close()
	g.OnInputsChanged(Filter{SearchTerm: "bike"})
	g.Wait()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// only the type changes, so no search projection differs
		g.OnInputsChanged(Filter{SearchTerm: "bike", Type: fmt.Sprintf("t%d", i%2)})
	}
	g.Wait()
}

func BenchmarkCart_Add(b *testing.B) {
	catalog := staticCatalog(testItems...)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cart := NewCart(catalog)
		for _, it := range testItems {
			_ = cart.Add(it.ID)
			_ = cart.Add(it.ID)
		}
	}
}
