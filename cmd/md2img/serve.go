package main

import (
	"context"

	md2img "github.com/alnah/go-md2img"
	"github.com/alnah/go-md2img/internal/server"
)

// runServe serves POST /convert until ctx is cancelled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, _, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	cfg, envCfg, err := loadConfig(flags.common, &flags.render, env)
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.maxBody > 0 {
		cfg.Server.MaxBodyBytes = flags.maxBody
	}

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}

	logger := newLogger(env.Stderr, flags.common)
	pool := env.NewPool(md2img.ResolvePoolSize(workers), converterOptions(cfg, logger)...)
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn("closing converters", "error", err)
		}
	}()

	handler := server.NewHandler(serverPool{pool: pool}, cfg.Server.MaxBodyBytes, logger)
	return server.New(cfg.Server.Addr, handler, logger).Run(ctx)
}

// serverPool adapts Pool to server.Pool.
type serverPool struct {
	pool Pool
}

func (p serverPool) Acquire(ctx context.Context) (server.Renderer, error) {
	conv, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (p serverPool) Release(r server.Renderer) {
	if conv, ok := r.(Converter); ok {
		p.pool.Release(conv)
	}
}
