package escuela

import (
	"encoding/json"
	"strings"
	"time"
)

// ---- Auth Models ----

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// ---- Alumno Models ----

type UserDetail struct {
	ID        int64  `json:"id,omitempty"`
	DNI       int64  `json:"dni,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Type      string `json:"type"`
}

// Alumno is a user record as returned by the paginated listing and profile endpoints.
type Alumno struct {
	ID         int64       `json:"id"`
	Username   string      `json:"username"`
	UserDetail *UserDetail `json:"userdetail,omitempty"`
}

// Key returns the stable identifier used for row keys and edit/delete targeting.
func (a Alumno) Key() int64 { return a.ID }

// FullName joins first and last name, falling back to the username.
func (a Alumno) FullName() string {
	if a.UserDetail == nil {
		return a.Username
	}
	n := strings.TrimSpace(a.UserDetail.FirstName + " " + a.UserDetail.LastName)
	if n == "" {
		return a.Username
	}
	return n
}

// Role returns the detail type, or "" when the record carries no detail.
func (a Alumno) Role() string {
	if a.UserDetail == nil {
		return ""
	}
	return a.UserDetail.Type
}

// NewAlumno is the body of a full registration (user + detail).
type NewAlumno struct {
	Username  string `json:"username" validate:"required,min=3"`
	Password  string `json:"password" validate:"required,min=4"`
	DNI       int64  `json:"dni" validate:"required,gt=0"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Type      string `json:"type" validate:"required,oneof=Admin Alumno"`
}

// UserDetailUpdate is a partial update; nil fields are left untouched.
type UserDetailUpdate struct {
	DNI       *int64  `json:"dni,omitempty" validate:"omitempty,gt=0"`
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,min=1"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,min=1"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Type      *string `json:"type,omitempty" validate:"omitempty,oneof=Admin Alumno"`
}

// LastAlumno is the summary returned by /users/ultimo.
type LastAlumno struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ---- Pago Models ----

// Pago is a payment record as listed by administrators.
type Pago struct {
	ID          int64   `json:"id"`
	AlumnoID    int64   `json:"alumno_id"`
	CuotaID     int64   `json:"cuota_id"`
	Alumno      string  `json:"alumno,omitempty"` // display name, when the backend joins it
	MontoPagado float64 `json:"monto_pagado"`
	Metodo      string  `json:"metodo"`
	Comprobante string  `json:"comprobante,omitempty"`
	FechaPago   string  `json:"fecha_pago,omitempty"`
}

func (p Pago) Key() int64 { return p.ID }

// Fecha parses FechaPago, accepting the layouts the backend emits.
func (p Pago) Fecha() (time.Time, bool) { return parseFecha(p.FechaPago) }

// Payment methods accepted by the backend.
const (
	MetodoEfectivo      = "efectivo"
	MetodoTransferencia = "transferencia"
	MetodoMercadoPago   = "mercado_pago"
)

type NewPago struct {
	AlumnoID    int64   `json:"alumno_id" validate:"required,gt=0"`
	CuotaID     int64   `json:"cuota_id" validate:"required,gt=0"`
	MontoPagado float64 `json:"monto_pagado" validate:"gt=0"`
	Metodo      string  `json:"metodo" validate:"required,oneof=efectivo transferencia mercado_pago"`
	Comprobante string  `json:"comprobante,omitempty" validate:"omitempty,max=255"`
}

// PagoUpdate is a partial update; nil fields are left untouched.
type PagoUpdate struct {
	AlumnoID    *int64   `json:"alumno_id,omitempty" validate:"omitempty,gt=0"`
	CuotaID     *int64   `json:"cuota_id,omitempty" validate:"omitempty,gt=0"`
	MontoPagado *float64 `json:"monto_pagado,omitempty" validate:"omitempty,gt=0"`
	Metodo      *string  `json:"metodo,omitempty" validate:"omitempty,oneof=efectivo transferencia mercado_pago"`
	Comprobante *string  `json:"comprobante,omitempty" validate:"omitempty,max=255"`
}

// MiPago is a payment row of the authenticated student's history.
type MiPago struct {
	ID          int64   `json:"id"`
	Periodo     string  `json:"periodo"`
	MontoPagado float64 `json:"monto_pagado"`
	Metodo      string  `json:"metodo"`
	FechaPago   string  `json:"fecha_pago"`
}

func (p MiPago) Key() int64 { return p.ID }

func (p MiPago) Fecha() (time.Time, bool) { return parseFecha(p.FechaPago) }

// LastPago is the summary returned by /pago/ultimo.
type LastPago struct {
	Alumno      string  `json:"alumno"`
	MontoPagado float64 `json:"monto_pagado"`
	FechaPago   string  `json:"fecha_pago"`
	Metodo      string  `json:"metodo"`
}

// ---- Cuota Models ----

// Cuota estados.
const (
	EstadoPendiente = "pendiente"
	EstadoParcial   = "parcial"
	EstadoPagada    = "pagada"
)

type Cuota struct {
	ID             int64   `json:"id"`
	AlumnoID       int64   `json:"alumno_id,omitempty"`
	Periodo        string  `json:"periodo"`
	MontoAPagar    float64 `json:"monto_a_pagar"`
	MontoPagado    float64 `json:"monto_pagado"`
	SaldoPendiente float64 `json:"saldo_pendiente"`
	Estado         string  `json:"estado,omitempty"`
}

func (c Cuota) Key() int64 { return c.ID }

// ---- Pagination Models ----

// InitialCursor is the cursor of the first page.
const InitialCursor int64 = 0

// PageRequest is sent verbatim to the paginated endpoints.
type PageRequest struct {
	Limit      int    `json:"limit"`
	LastSeenID int64  `json:"last_seen_id"`
	Search     string `json:"search"`
}

// Page is a normalized page response. A nil NextCursor means no further pages.
type Page[T any] struct {
	Items      []T
	NextCursor *int64
}

// HasNext reports whether a further forward page exists.
func (p Page[T]) HasNext() bool { return p.NextCursor != nil }

// rawPage accepts every list key the backend has used for paginated results.
type rawPage struct {
	Users      json.RawMessage `json:"users"`
	Pagos      json.RawMessage `json:"pagos"`
	Items      json.RawMessage `json:"items"`
	NextCursor json.RawMessage `json:"next_cursor"`
}

var fechaLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseFecha(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range fechaLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
