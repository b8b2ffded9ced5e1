package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/service"
	apperrors "github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/grpc"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/proto"
)

func dial(t *testing.T, m *metrics.Metrics) *Client {
	t.Helper()
	s := grpc.NewServer()
	Register(s, service.New(service.Config{}), m)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.ServeListener(ln) }()
	t.Cleanup(s.Stop)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := grpc.Dial(ctx, ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewClient(conn)
}

func TestParseOverRPC(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := dial(t, m)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := c.Parse(ctx, proto.ParseRequest{Query: `fun -"phrase test"`, Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, "fun||||||phrase test", resp.Debug)
	assert.Equal(t, []string{"fun"}, resp.TermsForBounds)
	assert.Equal(t, "english", resp.Language)

	_, err = c.Parse(ctx, proto.ParseRequest{Query: "cats", Language: "eng", Version: 2})
	assert.ErrorIs(t, err, apperrors.ErrLanguageNotSupported)

	resp, err = c.Parse(ctx, proto.ParseRequest{Query: "cats", Language: "eng", Version: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"cat"}, resp.PositiveTerms)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RPCRequestsTotal.WithLabelValues(MethodParse, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCRequestsTotal.WithLabelValues(MethodParse, "language_not_supported")))
}

func TestLanguagesOverRPC(t *testing.T) {
	c := dial(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := c.Languages(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "current", resp.Generation)
	assert.Contains(t, resp.Languages, "fr")

	_, err = c.Languages(ctx, 99)
	assert.ErrorIs(t, err, apperrors.ErrUnknownVersion)
}
