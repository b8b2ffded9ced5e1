package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/api/rpc"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/internal/service"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/grpc"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/fts-query-service/pkg/proto"
)

// parser is satisfied by both the in-process service and the RPC client.
type parser interface {
	Parse(ctx context.Context, req proto.ParseRequest) (*proto.ParseResponse, error)
	Languages(ctx context.Context, version int) (*proto.LanguagesResponse, error)
}

type localParser struct {
	svc *service.Service
}

func (p localParser) Parse(ctx context.Context, req proto.ParseRequest) (*proto.ParseResponse, error) {
	res, err := p.svc.Parse(ctx, req, analytics.SourceCLI)
	if err != nil {
		return nil, err
	}
	return res.Response(), nil
}

func (p localParser) Languages(_ context.Context, version int) (*proto.LanguagesResponse, error) {
	return p.svc.Languages(version)
}

type options struct {
	remote   string
	timeout  time.Duration
	logLevel string
	jsonOut  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "ftsparse",
		Short:         "Parse full-text-search queries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logger.New(cmd.ErrOrStderr(), opts.logLevel, "text"))
		},
	}
	root.PersistentFlags().StringVar(&opts.remote, "remote", "", "queryd RPC address; empty parses in-process")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "per-call timeout")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print JSON instead of text")

	root.AddCommand(newParseCmd(opts), newLanguagesCmd(opts))
	return root
}

func newParseCmd(opts *options) *cobra.Command {
	var req proto.ParseRequest
	cmd := &cobra.Command{
		Use:   "parse [query]",
		Short: "Parse one query, or one query per stdin line when no argument is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeFn, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if len(args) == 1 {
				req.Query = args[0]
				return opts.parseOne(cmd.Context(), p, req, cmd.OutOrStdout())
			}
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				req.Query = scanner.Text()
				if err := opts.parseOne(cmd.Context(), p, req, cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVarP(&req.Language, "language", "l", "", "stemming language (default: english)")
	cmd.Flags().BoolVarP(&req.CaseSensitive, "case-sensitive", "c", false, "keep letter case")
	cmd.Flags().BoolVarP(&req.DiacriticSensitive, "diacritic-sensitive", "d", false, "keep diacritics")
	cmd.Flags().IntVarP(&req.Version, "version", "v", 0, "text index version (1, 2 or 3; default: latest)")
	return cmd
}

func newLanguagesCmd(opts *options) *cobra.Command {
	var version int
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List language identifiers accepted by a text index version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeFn, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			resp, err := p.Languages(ctx, version)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(resp.Languages, "\n"))
			return err
		},
	}
	cmd.Flags().IntVarP(&version, "version", "v", 0, "text index version (default: latest)")
	return cmd
}

func (o *options) connect(ctx context.Context) (parser, func(), error) {
	if o.remote == "" {
		return localParser{svc: service.New(service.Config{})}, func() {}, nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	conn, err := grpc.Dial(dialCtx, o.remote)
	if err != nil {
		return nil, nil, err
	}
	return rpc.NewClient(conn), func() { _ = conn.Close() }, nil
}

func (o *options) parseOne(ctx context.Context, p parser, req proto.ParseRequest, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	resp, err := p.Parse(ctx, req)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", req.Query, err)
	}
	if o.jsonOut {
		return writeJSON(out, resp)
	}
	_, err = fmt.Fprintln(out, resp.Debug)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
