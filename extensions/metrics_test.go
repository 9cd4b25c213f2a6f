package extensions

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumped-fn/itemshop"
)

func TestMetricsExtension_CountsFetches(t *testing.T) {
	reg := prometheus.NewRegistry()
	ext, err := NewMetricsExtension(reg, "")
	require.NoError(t, err)

	g, err := itemshop.NewGraph(itemshop.WithExtension(ext))
	require.NoError(t, err)
	defer g.Close()

	itemshop.Declare(g, "search",
		func(f itemshop.Filter) (string, bool) { return f.SearchTerm, true },
		func(ctx context.Context, in string) (string, error) {
			if in == "bad" {
				return "", errors.New("rejected")
			}
			return in, nil
		},
	)

	g.OnInputsChanged(itemshop.Filter{SearchTerm: "ok"})
	g.Wait()
	g.OnInputsChanged(itemshop.Filter{SearchTerm: "bad"})
	g.Wait()

	assert.Equal(t, 1.0, testutil.ToFloat64(ext.operations.WithLabelValues("fetch", "search", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ext.operations.WithLabelValues("fetch", "search", "error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(ext.inFlight.WithLabelValues("fetch")))
	assert.Equal(t, 1, testutil.CollectAndCount(ext.latency))
}

func TestMetricsExtension_StaleAndPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ext, err := NewMetricsExtension(reg, "shop")
	require.NoError(t, err)

	op := &itemshop.Operation{Kind: itemshop.OpFetch, Name: "items", Token: 3}
	ext.OnStale(op)
	ext.OnStale(op)
	ext.OnPanic(op, "boom", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(ext.stale.WithLabelValues("items")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ext.panics.WithLabelValues("fetch", "items")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "shop_query_stale_responses_total")
}

func TestMetricsExtension_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetricsExtension(reg, "")
	require.NoError(t, err)

	_, err = NewMetricsExtension(reg, "")
	assert.Error(t, err)
}

func TestMetricsExtension_WorkflowCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	ext, err := NewMetricsExtension(reg, "")
	require.NoError(t, err)

	next := func() (any, error) { return "pur-1", nil }
	result, err := ext.Wrap(context.Background(), next, &itemshop.Operation{Kind: itemshop.OpCheckout, Name: "submit_checkout"})
	require.NoError(t, err)
	assert.Equal(t, "pur-1", result)
	assert.Equal(t, 1.0, testutil.ToFloat64(ext.operations.WithLabelValues("checkout", "submit_checkout", "success")))
}

func TestLoggingExtension_PassesThrough(t *testing.T) {
	ext := NewLoggingExtension(nil)
	wantErr := errors.New("down")

	_, err := ext.Wrap(context.Background(), func() (any, error) { return nil, wantErr }, &itemshop.Operation{Kind: itemshop.OpFetch, Name: "items"})
	assert.ErrorIs(t, err, wantErr)

	ext.OnStale(&itemshop.Operation{Kind: itemshop.OpFetch, Name: "items"})
}
