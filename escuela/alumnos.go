package escuela

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// registeredOK is the message the backend answers a successful registration with.
// Conflicts are reported with status 200 and a different message.
const registeredOK = "Usuario registrado correctamente"

// PaginateAlumnos returns one cursor page of users filtered by req.Search.
func (c *Client) PaginateAlumnos(ctx context.Context, req PageRequest, opts ...CallOption) (*Page[Alumno], error) {
	return paginate[Alumno](ctx, c, "/user/paginated/filtered-sync", req, opts)
}

// AlumnoPages adapts PaginateAlumnos to a PageFunc.
func (c *Client) AlumnoPages(opts ...CallOption) PageFunc[Alumno] {
	return func(ctx context.Context, req PageRequest) (*Page[Alumno], error) {
		return c.PaginateAlumnos(ctx, req, opts...)
	}
}

// RegisterAlumno creates a user together with its detail record.
func (c *Client) RegisterAlumno(ctx context.Context, in NewAlumno, opts ...CallOption) error {
	if err := Validate(in); err != nil {
		return err
	}
	h, err := c.authed(opts...)
	if err != nil {
		return err
	}
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/users/register/full", h, in, &raw); err != nil {
		return err
	}
	var msg string
	if json.Unmarshal(raw, &msg) == nil && msg != "" && !strings.EqualFold(msg, registeredOK) {
		return &APIError{StatusCode: http.StatusConflict, Body: string(raw), Message: msg}
	}
	return nil
}

// UpdateAlumnoDetail partially updates the detail record of a user.
func (c *Client) UpdateAlumnoDetail(ctx context.Context, id int64, in UserDetailUpdate, opts ...CallOption) error {
	if err := Validate(in); err != nil {
		return err
	}
	h, err := c.authed(opts...)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/users/%d/details", id), h, in, nil)
}

// DeleteAlumno removes a user and its associated data.
func (c *Client) DeleteAlumno(ctx context.Context, id int64, opts ...CallOption) error {
	h, err := c.authed(opts...)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), h, nil, nil)
}

// LastAlumno returns the most recently registered user.
func (c *Client) LastAlumno(ctx context.Context, opts ...CallOption) (*LastAlumno, error) {
	h, err := c.authed(opts...)
	if err != nil {
		return nil, err
	}
	var out LastAlumno
	if err := c.doJSON(ctx, http.MethodGet, "/users/ultimo", h, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
