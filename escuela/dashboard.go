package escuela

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Summary is the administrator landing view: latest registrations.
// A nil field means the backend has no record of that kind yet.
type Summary struct {
	LastAlumno *LastAlumno
	LastPago   *LastPago
}

// Dashboard loads the administrator summary, issuing its requests in parallel.
func (c *Client) Dashboard(ctx context.Context, opts ...CallOption) (*Summary, error) {
	if !c.HasSession() {
		return nil, ErrNoSession
	}
	var out Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := c.LastAlumno(gctx, opts...)
		if IsNotFound(err) {
			return nil
		}
		out.LastAlumno = a
		return err
	})
	g.Go(func() error {
		p, err := c.LastPago(gctx, opts...)
		if IsNotFound(err) {
			return nil
		}
		out.LastPago = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
