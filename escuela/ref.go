package escuela

import "context"

// AlumnoRef is a light-weight handle bound to a specific user ID.
// It exposes ergonomic helpers that forward to Client methods.
type AlumnoRef struct {
	ID     int64
	Client *Client
}

// Alumno returns a handle for a given user ID.
func (c *Client) Alumno(id int64) AlumnoRef { return AlumnoRef{ID: id, Client: c} }

// UpdateDetail partially updates the bound user's detail.
func (a AlumnoRef) UpdateDetail(ctx context.Context, in UserDetailUpdate, opts ...CallOption) error {
	return a.Client.UpdateAlumnoDetail(ctx, a.ID, in, opts...)
}

// Delete removes the bound user.
func (a AlumnoRef) Delete(ctx context.Context, opts ...CallOption) error {
	return a.Client.DeleteAlumno(ctx, a.ID, opts...)
}

// PagoRef is a handle bound to a specific payment ID.
type PagoRef struct {
	ID     int64
	Client *Client
}

// Pago returns a handle for a given payment ID.
func (c *Client) Pago(id int64) PagoRef { return PagoRef{ID: id, Client: c} }

// Edit partially updates the bound payment.
func (p PagoRef) Edit(ctx context.Context, in PagoUpdate, opts ...CallOption) error {
	return p.Client.EditPago(ctx, p.ID, in, opts...)
}

// Delete removes the bound payment.
func (p PagoRef) Delete(ctx context.Context, opts ...CallOption) error {
	return p.Client.DeletePago(ctx, p.ID, opts...)
}
