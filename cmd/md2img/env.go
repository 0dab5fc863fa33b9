package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	md2img "github.com/alnah/go-md2img"
)

// Converter is the conversion service used by commands.
type Converter interface {
	Convert(ctx context.Context, input md2img.Input) (*md2img.Result, error)
	ConvertToImage(ctx context.Context, markdown string) (*md2img.Result, error)
	Close() error
}

// Compile-time interface implementation check.
var _ Converter = (*md2img.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire(ctx context.Context) (Converter, error)
	Release(Converter)
	Size() int
	Close() error
}

// poolAdapter exposes md2img.ConverterPool as a Pool.
type poolAdapter struct {
	pool *md2img.ConverterPool
}

var _ Pool = (*poolAdapter)(nil)

func (a *poolAdapter) Acquire(ctx context.Context) (Converter, error) {
	conv, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Release panics when given a converter the pool did not lend.
func (a *poolAdapter) Release(c Converter) {
	conv, ok := c.(*md2img.Converter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", c))
	}
	a.pool.Release(conv)
}

func (a *poolAdapter) Size() int    { return a.pool.Size() }
func (a *poolAdapter) Close() error { return a.pool.Close() }

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now     func() time.Time
	Getenv  func(string) string
	Environ func() []string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer

	// NewConverter builds the single converter used by text and watch.
	NewConverter func(opts ...md2img.Option) (Converter, error)
	// NewPool builds the pool used by convert and serve.
	NewPool func(size int, opts ...md2img.Option) Pool
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:     time.Now,
		Getenv:  os.Getenv,
		Environ: os.Environ,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		NewConverter: func(opts ...md2img.Option) (Converter, error) {
			conv, err := md2img.NewConverter(opts...)
			if err != nil {
				return nil, err
			}
			return conv, nil
		},
		NewPool: func(size int, opts ...md2img.Option) Pool {
			return &poolAdapter{pool: md2img.NewConverterPool(size, opts...)}
		},
	}
}
