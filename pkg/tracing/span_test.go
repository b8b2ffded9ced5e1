package tracing

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/logger"
)

func TestDisabledTracerIsNoop(t *testing.T) {
	ctx := context.Background()
	var tr *Tracer
	ctx2, span := tr.StartSpan(ctx, "parse")
	assert.Nil(t, span)
	assert.Equal(t, ctx, ctx2)

	span.SetAttr("k", "v")
	span.End()
	_, child := StartChildSpan(ctx2, "cache")
	assert.Nil(t, child)

	_, span = New(false, nil).StartSpan(ctx, "parse")
	assert.Nil(t, span)
}

func TestRootSpanLogsTree(t *testing.T) {
	var buf bytes.Buffer
	tr := New(true, logger.New(&buf, "info", "json"))

	ctx := logger.WithRequestID(context.Background(), "req-42")
	ctx, root := tr.StartSpan(ctx, "http.parse")
	root.SetAttr("language", "english")

	_, child := StartChildSpan(ctx, "cache.lookup")
	child.SetAttr("hit", false)
	child.End()
	root.End()
	root.End()

	require.Len(t, root.Children(), 1)
	assert.Equal(t, "req-42", child.TraceID)

	var records []map[string]any
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 2)
	assert.Equal(t, "http.parse", records[0]["span"])
	assert.Equal(t, "english", records[0]["language"])
	assert.Equal(t, "cache.lookup", records[1]["span"])
	assert.EqualValues(t, 1, records[1]["depth"])

	v, ok := root.Attr("language")
	assert.True(t, ok)
	assert.Equal(t, "english", v)
}
