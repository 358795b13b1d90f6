package devserver

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/apiesc/escuela-go/escuela"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrBadPassword  = errors.New("bad credentials")
	ErrCuotaMissing = errors.New("cuota not found")
)

// ConflictError is returned by RegisterAlumno; the message is sent verbatim.
type ConflictError struct{ Msg string }

func (e *ConflictError) Error() string { return e.Msg }

type account struct {
	escuela.Alumno
	password string
}

type pago struct {
	escuela.Pago
	at time.Time
}

// Store keeps the school data in memory. Rows are kept in ascending id
// order, which is the order every cursor page is cut from.
type Store struct {
	mu       sync.RWMutex
	accounts []*account
	pagos    []*pago
	cuotas   []*escuela.Cuota
	lastID   struct{ user, detail, pago, cuota int64 }
	now      func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store { return &Store{now: time.Now} }

// cut returns the rows after lastSeen that match, at most limit of them, and
// the cursor of the next page. The cursor is nil when no matching row is left.
func cut[T any](rows []T, id func(T) int64, match func(T) bool, lastSeen int64, limit int) ([]T, *int64) {
	if limit <= 0 {
		limit = escuela.DefaultPageSize
	}
	out := []T{}
	for _, r := range rows {
		if id(r) <= lastSeen || !match(r) {
			continue
		}
		if len(out) == limit {
			next := id(out[len(out)-1])
			return out, &next
		}
		out = append(out, r)
	}
	return out, nil
}

func contains(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// Authenticate checks a username and password.
func (s *Store) Authenticate(username, password string) (escuela.Alumno, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Username == username {
			if a.password != password {
				return escuela.Alumno{}, ErrBadPassword
			}
			return copyAlumno(a.Alumno), nil
		}
	}
	return escuela.Alumno{}, ErrBadPassword
}

// Alumno returns the user with id.
func (s *Store) Alumno(id int64) (escuela.Alumno, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := s.account(id)
	if a == nil {
		return escuela.Alumno{}, ErrNotFound
	}
	return copyAlumno(a.Alumno), nil
}

func (s *Store) account(id int64) *account {
	i, ok := slices.BinarySearchFunc(s.accounts, id, func(a *account, id int64) int { return cmp.Compare(a.ID, id) })
	if !ok {
		return nil
	}
	return s.accounts[i]
}

// PageAlumnos returns one cursor page of users, searching username, email
// and names case-insensitively.
func (s *Store) PageAlumnos(req escuela.PageRequest) ([]escuela.Alumno, *int64) {
	term := strings.ToLower(strings.TrimSpace(req.Search))
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, next := cut(s.accounts,
		func(a *account) int64 { return a.ID },
		func(a *account) bool {
			if term == "" {
				return true
			}
			d := a.UserDetail
			if d == nil {
				return contains(term, a.Username)
			}
			return contains(term, a.Username, d.Email, d.FirstName, d.LastName)
		},
		req.LastSeenID, req.Limit)
	out := make([]escuela.Alumno, len(rows))
	for i, a := range rows {
		out[i] = copyAlumno(a.Alumno)
	}
	return out, next
}

// RegisterAlumno creates a user with its detail.
func (s *Store) RegisterAlumno(in escuela.NewAlumno) (escuela.Alumno, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Username == in.Username {
			return escuela.Alumno{}, &ConflictError{Msg: "El usuario ya existe"}
		}
		if a.UserDetail != nil && strings.EqualFold(a.UserDetail.Email, in.Email) {
			return escuela.Alumno{}, &ConflictError{Msg: "El email ya existe"}
		}
	}
	s.lastID.user++
	s.lastID.detail++
	a := &account{
		Alumno: escuela.Alumno{
			ID:       s.lastID.user,
			Username: in.Username,
			UserDetail: &escuela.UserDetail{
				ID:        s.lastID.detail,
				DNI:       in.DNI,
				FirstName: in.FirstName,
				LastName:  in.LastName,
				Email:     in.Email,
				Type:      in.Type,
			},
		},
		password: in.Password,
	}
	s.accounts = append(s.accounts, a)
	return copyAlumno(a.Alumno), nil
}

// UpdateDetail applies the non-nil fields of in.
func (s *Store) UpdateDetail(id int64, in escuela.UserDetailUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(id)
	if a == nil || a.UserDetail == nil {
		return ErrNotFound
	}
	d := a.UserDetail
	if in.DNI != nil {
		d.DNI = *in.DNI
	}
	if in.FirstName != nil {
		d.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		d.LastName = *in.LastName
	}
	if in.Email != nil {
		d.Email = *in.Email
	}
	if in.Type != nil {
		d.Type = *in.Type
	}
	return nil
}

// DeleteAlumno removes a user with its pagos and cuotas.
func (s *Store) DeleteAlumno(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.accounts)
	s.accounts = slices.DeleteFunc(s.accounts, func(a *account) bool { return a.ID == id })
	if len(s.accounts) == n {
		return ErrNotFound
	}
	s.pagos = slices.DeleteFunc(s.pagos, func(p *pago) bool { return p.AlumnoID == id })
	s.cuotas = slices.DeleteFunc(s.cuotas, func(c *escuela.Cuota) bool { return c.AlumnoID == id })
	return nil
}

// LastAlumno returns the most recently registered user with a detail.
func (s *Store) LastAlumno() (escuela.LastAlumno, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.accounts) == 0 {
		return escuela.LastAlumno{}, ErrNotFound
	}
	a := s.accounts[len(s.accounts)-1]
	if a.UserDetail == nil {
		return escuela.LastAlumno{}, ErrNotFound
	}
	return escuela.LastAlumno{FirstName: a.UserDetail.FirstName, LastName: a.UserDetail.LastName}, nil
}

// AddCuota registers a cuota owed by an alumno.
func (s *Store) AddCuota(alumnoID int64, periodo string, monto float64) escuela.Cuota {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID.cuota++
	c := &escuela.Cuota{
		ID:             s.lastID.cuota,
		AlumnoID:       alumnoID,
		Periodo:        periodo,
		MontoAPagar:    monto,
		SaldoPendiente: monto,
		Estado:         escuela.EstadoPendiente,
	}
	s.cuotas = append(s.cuotas, c)
	return *c
}

// Cuotas lists every cuota.
func (s *Store) Cuotas() []escuela.Cuota {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]escuela.Cuota, len(s.cuotas))
	for i, c := range s.cuotas {
		out[i] = *c
	}
	return out
}

func (s *Store) cuota(id int64) *escuela.Cuota {
	for _, c := range s.cuotas {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// settle recomputes the balance and estado of a cuota after paid changes by delta.
func settle(c *escuela.Cuota, delta float64) {
	c.MontoPagado += delta
	c.SaldoPendiente = c.MontoAPagar - c.MontoPagado
	switch {
	case c.MontoPagado <= 0:
		c.Estado = escuela.EstadoPendiente
	case c.SaldoPendiente <= 0:
		c.Estado = escuela.EstadoPagada
	default:
		c.Estado = escuela.EstadoParcial
	}
}

// CreatePago records a payment and updates the cuota balance.
func (s *Store) CreatePago(in escuela.NewPago) (escuela.Pago, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cuota(in.CuotaID)
	if c == nil {
		return escuela.Pago{}, ErrCuotaMissing
	}
	if s.account(in.AlumnoID) == nil {
		return escuela.Pago{}, ErrNotFound
	}
	s.lastID.pago++
	p := &pago{
		Pago: escuela.Pago{
			ID:          s.lastID.pago,
			AlumnoID:    in.AlumnoID,
			CuotaID:     in.CuotaID,
			MontoPagado: in.MontoPagado,
			Metodo:      in.Metodo,
			Comprobante: in.Comprobante,
		},
		at: s.now(),
	}
	settle(c, in.MontoPagado)
	s.pagos = append(s.pagos, p)
	return s.viewPago(p), nil
}

// EditPago applies the non-nil fields of in, keeping cuota balances in step.
func (s *Store) EditPago(id int64, in escuela.PagoUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pago(id)
	if p == nil {
		return ErrNotFound
	}
	if in.CuotaID != nil && s.cuota(*in.CuotaID) == nil {
		return ErrCuotaMissing
	}
	if c := s.cuota(p.CuotaID); c != nil {
		settle(c, -p.MontoPagado)
	}
	if in.AlumnoID != nil {
		p.AlumnoID = *in.AlumnoID
	}
	if in.CuotaID != nil {
		p.CuotaID = *in.CuotaID
	}
	if in.MontoPagado != nil {
		p.MontoPagado = *in.MontoPagado
	}
	if in.Metodo != nil {
		p.Metodo = *in.Metodo
	}
	if in.Comprobante != nil {
		p.Comprobante = *in.Comprobante
	}
	if c := s.cuota(p.CuotaID); c != nil {
		settle(c, p.MontoPagado)
	}
	return nil
}

// DeletePago removes a payment and restores the cuota balance.
func (s *Store) DeletePago(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pago(id)
	if p == nil {
		return ErrNotFound
	}
	if c := s.cuota(p.CuotaID); c != nil {
		settle(c, -p.MontoPagado)
	}
	s.pagos = slices.DeleteFunc(s.pagos, func(q *pago) bool { return q.ID == id })
	return nil
}

func (s *Store) pago(id int64) *pago {
	for _, p := range s.pagos {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PagePagos returns one cursor page of payments, searching the alumno name
// and the payment method.
func (s *Store) PagePagos(req escuela.PageRequest) ([]escuela.Pago, *int64) {
	term := strings.ToLower(strings.TrimSpace(req.Search))
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, next := cut(s.pagos,
		func(p *pago) int64 { return p.ID },
		func(p *pago) bool {
			return term == "" || contains(term, s.alumnoName(p.AlumnoID), p.Metodo)
		},
		req.LastSeenID, req.Limit)
	out := make([]escuela.Pago, len(rows))
	for i, p := range rows {
		out[i] = s.viewPago(p)
	}
	return out, next
}

// LastPago summarizes the most recent payment.
func (s *Store) LastPago() (escuela.LastPago, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.pagos) == 0 {
		return escuela.LastPago{}, ErrNotFound
	}
	p := s.pagos[len(s.pagos)-1]
	return escuela.LastPago{
		Alumno:      s.alumnoName(p.AlumnoID),
		MontoPagado: p.MontoPagado,
		FechaPago:   p.at.Format("2006-01-02 15:04"),
		Metodo:      p.Metodo,
	}, nil
}

// MisPagos lists the payments of one alumno, newest first.
func (s *Store) MisPagos(alumnoID int64) []escuela.MiPago {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []escuela.MiPago{}
	for i := len(s.pagos) - 1; i >= 0; i-- {
		p := s.pagos[i]
		if p.AlumnoID != alumnoID {
			continue
		}
		periodo := "Sin período"
		if c := s.cuota(p.CuotaID); c != nil {
			periodo = c.Periodo
		}
		out = append(out, escuela.MiPago{
			ID:          p.ID,
			Periodo:     periodo,
			MontoPagado: p.MontoPagado,
			Metodo:      p.Metodo,
			FechaPago:   p.at.Format("2006-01-02"),
		})
	}
	return out
}

func (s *Store) viewPago(p *pago) escuela.Pago {
	out := p.Pago
	out.Alumno = s.alumnoName(p.AlumnoID)
	out.FechaPago = p.at.Format("2006-01-02")
	return out
}

func (s *Store) alumnoName(id int64) string {
	a := s.account(id)
	if a == nil || a.UserDetail == nil {
		return "Desconocido"
	}
	return a.FullName()
}

func copyAlumno(a escuela.Alumno) escuela.Alumno {
	if a.UserDetail != nil {
		d := *a.UserDetail
		a.UserDetail = &d
	}
	return a
}
