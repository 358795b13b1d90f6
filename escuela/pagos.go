package escuela

import (
	"context"
	"fmt"
	"net/http"
)

// PaginatePagos returns one cursor page of payments.
func (c *Client) PaginatePagos(ctx context.Context, req PageRequest, opts ...CallOption) (*Page[Pago], error) {
	return paginate[Pago](ctx, c, "/pago/paginated/filtered-sync", req, opts)
}

// PagoPages adapts PaginatePagos to a PageFunc.
func (c *Client) PagoPages(opts ...CallOption) PageFunc[Pago] {
	return func(ctx context.Context, req PageRequest) (*Page[Pago], error) {
		return c.PaginatePagos(ctx, req, opts...)
	}
}

// CreatePago registers a payment against a cuota.
func (c *Client) CreatePago(ctx context.Context, in NewPago, opts ...CallOption) error {
	if err := Validate(in); err != nil {
		return err
	}
	h, err := c.authed(opts...)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, "/nuevoPago", h, in, nil)
}

// EditPago partially updates a payment.
func (c *Client) EditPago(ctx context.Context, id int64, in PagoUpdate, opts ...CallOption) error {
	if err := Validate(in); err != nil {
		return err
	}
	h, err := c.authed(opts...)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/editarPago/%d", id), h, in, nil)
}

// DeletePago removes a payment; the backend restores the cuota balance.
func (c *Client) DeletePago(ctx context.Context, id int64, opts ...CallOption) error {
	h, err := c.authed(opts...)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/eliminarPago/%d", id), h, nil, nil)
}

// LastPago returns a summary of the most recent payment.
func (c *Client) LastPago(ctx context.Context, opts ...CallOption) (*LastPago, error) {
	h, err := c.authed(opts...)
	if err != nil {
		return nil, err
	}
	var out LastPago
	if err := c.doJSON(ctx, http.MethodGet, "/pago/ultimo", h, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MisPagos returns the payment history of the authenticated student.
func (c *Client) MisPagos(ctx context.Context, opts ...CallOption) ([]MiPago, error) {
	h, err := c.authed(opts...)
	if err != nil {
		return nil, err
	}
	var out []MiPago
	if err := c.doJSON(ctx, http.MethodGet, "/pago/mis_pagos", h, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []MiPago{}
	}
	return out, nil
}

// Cuotas lists every cuota.
func (c *Client) Cuotas(ctx context.Context, opts ...CallOption) ([]Cuota, error) {
	h, err := c.authed(opts...)
	if err != nil {
		return nil, err
	}
	var out []Cuota
	if err := c.doJSON(ctx, http.MethodGet, "/cuotas/todas", h, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Cuota{}
	}
	return out, nil
}
