// Package rpc exposes the parse service over the JSON-over-TCP RPC layer
// as QueryService.Parse and QueryService.Languages.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/service"
	apperrors "github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/grpc"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/proto"
)

const (
	MethodParse     = "QueryService.Parse"
	MethodLanguages = "QueryService.Languages"
)

// Register installs the QueryService methods on s. m may be nil.
func Register(s *grpc.Server, svc *service.Service, m *metrics.Metrics) {
	s.Register(MethodParse, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req proto.ParseRequest
		if err := decode(raw, &req); err != nil {
			return nil, err
		}
		if req.RequestID != "" {
			ctx = logger.WithRequestID(ctx, req.RequestID)
		}
		res, err := svc.Parse(ctx, req, analytics.SourceRPC)
		if err != nil {
			return nil, err
		}
		return res.Response(), nil
	})
	s.Register(MethodLanguages, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req proto.LanguagesRequest
		if err := decode(raw, &req); err != nil {
			return nil, err
		}
		return svc.Languages(req.Version)
	})
	if m != nil {
		s.SetObserver(func(method string, d time.Duration, err error) {
			m.RPCRequestsTotal.WithLabelValues(method, apperrors.Code(err)).Inc()
		})
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: malformed params: %v", apperrors.ErrInvalidInput, err)
	}
	return nil
}

// Client calls QueryService over an established connection.
type Client struct {
	conn *grpc.Client
}

func NewClient(conn *grpc.Client) *Client {
	return &Client{conn: conn}
}

// Parse calls QueryService.Parse.
func (c *Client) Parse(ctx context.Context, req proto.ParseRequest) (*proto.ParseResponse, error) {
	var resp proto.ParseResponse
	if err := c.conn.Call(ctx, MethodParse, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Languages calls QueryService.Languages.
func (c *Client) Languages(ctx context.Context, version int) (*proto.LanguagesResponse, error) {
	var resp proto.LanguagesResponse
	if err := c.conn.Call(ctx, MethodLanguages, proto.LanguagesRequest{Version: version}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
