package main

import (
	qmd2pptx "github.com/alnah/go-qmd2pptx"
)

// servicePool adapts the library's ServicePool to the CLI's Pool
// interface so tests can substitute a mock converter pool.
type servicePool struct {
	inner *qmd2pptx.ServicePool
}

// Compile-time check that servicePool implements Pool.
var _ Pool = (*servicePool)(nil)

// newServicePool creates a pool of n services sharing the same options.
func newServicePool(n int, opts ...qmd2pptx.Option) Pool {
	return &servicePool{inner: qmd2pptx.NewServicePool(n, opts...)}
}

func (p *servicePool) Acquire() Converter {
	return p.inner.Acquire()
}

func (p *servicePool) Release(c Converter) {
	if svc, ok := c.(*qmd2pptx.Service); ok {
		p.inner.Release(svc)
	}
}

func (p *servicePool) Size() int {
	return p.inner.Size()
}

func (p *servicePool) Close() error {
	return p.inner.Close()
}
