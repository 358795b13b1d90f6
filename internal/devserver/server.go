// Package devserver serves the school administration API from memory.
// It backs the CLI's local mode and the end-to-end tests.
package devserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/apiesc/escuela-go/escuela"
)

// Options configures a Server.
type Options struct {
	// Secret signs issued tokens. Required.
	Secret string
	// TokenTTL defaults to 8 hours.
	TokenTTL time.Duration
	// Logger receives one record per request. Defaults to slog.Default.
	Logger *slog.Logger
}

// Server is an echo application over a Store.
type Server struct {
	store  *Store
	signer signer
	log    *slog.Logger
	echo   *echo.Echo
}

// New builds the routes over store.
func New(store *Store, opts Options) (*Server, error) {
	if opts.Secret == "" {
		return nil, errors.New("devserver: secret is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 8 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		store:  store,
		signer: signer{secret: []byte(opts.Secret), ttl: opts.TokenTTL, now: time.Now},
		log:    opts.Logger,
		echo:   echo.New(),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.routes()
	return s, nil
}

// ServeHTTP lets the server be mounted on httptest or any http.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.echo.ServeHTTP(w, r) }

// Start listens on addr until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.echo.Start(addr) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() {
	e := s.echo
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogError:     true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil {
				s.log.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"request_id", v.RequestID,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				s.log.WarnContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"request_id", v.RequestID,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	auth := bearer(s.signer)
	admin := requireRole(escuela.RoleAdmin, "No tienes permisos para realizar esta acción")
	alumno := requireRole(escuela.RoleAlumno, "Solo los alumnos pueden ver sus pagos")

	e.POST("/users/loginUser", s.login)
	e.GET("/user/profile", s.profile, auth)

	e.POST("/user/paginated/filtered-sync", s.pageAlumnos, auth, admin)
	e.POST("/users/register/full", s.register, auth, admin)
	e.PATCH("/users/:id/details", s.updateDetail, auth, admin)
	e.DELETE("/users/:id", s.deleteAlumno, auth, admin)
	e.GET("/users/ultimo", s.lastAlumno, auth, admin)

	e.POST("/pago/paginated/filtered-sync", s.pagePagos, auth, admin)
	e.POST("/nuevoPago", s.createPago, auth, admin)
	e.PATCH("/editarPago/:id", s.editPago, auth, admin)
	e.DELETE("/eliminarPago/:id", s.deletePago, auth, admin)
	e.GET("/pago/ultimo", s.lastPago, auth, admin)
	e.GET("/pago/mis_pagos", s.misPagos, auth, alumno)

	e.GET("/cuotas/todas", s.cuotas, auth, admin)
}

// handleError writes {"detail": msg}, the body shape the client parses.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	case errors.Is(err, ErrNotFound):
		code, msg = http.StatusNotFound, "No encontrado"
	case errors.Is(err, ErrCuotaMissing):
		code, msg = http.StatusNotFound, "Cuota no encontrada"
	default:
		var verr *escuela.ValidationError
		if errors.As(err, &verr) {
			code, msg = http.StatusUnprocessableEntity, verr.Error()
		} else {
			s.log.ErrorContext(c.Request().Context(), "unhandled error", "error", err.Error())
		}
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, echo.Map{"detail": msg})
	}
	if err != nil {
		s.log.Error("write error response", "error", err.Error())
	}
}

// bind decodes the body into v and runs its validate tags.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Cuerpo inválido")
	}
	return escuela.Validate(v)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id inválido")
	}
	return id, nil
}

func (s *Server) login(c echo.Context) error {
	var req escuela.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	a, err := s.store.Authenticate(req.Username, req.Password)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"success": false,
			"message": "Usuario y/o password incorrectos!",
		})
	}
	tok, err := s.signer.sign(a)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "token": tok, "message": "Login exitoso"})
}

func (s *Server) profile(c echo.Context) error {
	a, err := s.store.Alumno(claimsFrom(c).UserID())
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Usuario no encontrado")
	}
	return c.JSON(http.StatusOK, a)
}

func (s *Server) pageAlumnos(c echo.Context) error {
	var req escuela.PageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Cuerpo inválido")
	}
	users, next := s.store.PageAlumnos(req)
	return c.JSON(http.StatusOK, echo.Map{"users": users, "next_cursor": next})
}

func (s *Server) register(c echo.Context) error {
	var in escuela.NewAlumno
	if err := bind(c, &in); err != nil {
		return err
	}
	if _, err := s.store.RegisterAlumno(in); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return c.JSON(http.StatusOK, conflict.Msg)
		}
		return err
	}
	return c.JSON(http.StatusOK, "Usuario registrado correctamente")
}

func (s *Server) updateDetail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in escuela.UserDetailUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := s.store.UpdateDetail(id, in); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Usuario no encontrado")
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Actualizado correctamente"})
}

func (s *Server) deleteAlumno(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAlumno(id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Usuario no encontrado")
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Usuario eliminado"})
}

func (s *Server) lastAlumno(c echo.Context) error {
	a, err := s.store.LastAlumno()
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No hay alumnos registrados"})
	}
	return c.JSON(http.StatusOK, a)
}

func (s *Server) pagePagos(c echo.Context) error {
	var req escuela.PageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Cuerpo inválido")
	}
	pagos, next := s.store.PagePagos(req)
	return c.JSON(http.StatusOK, echo.Map{"pagos": pagos, "next_cursor": next})
}

func (s *Server) createPago(c echo.Context) error {
	var in escuela.NewPago
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := s.store.CreatePago(in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) editPago(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in escuela.PagoUpdate
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := s.store.EditPago(id, in); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Pago actualizado"})
}

func (s *Server) deletePago(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.store.DeletePago(id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "Pago eliminado"})
}

func (s *Server) lastPago(c echo.Context) error {
	p, err := s.store.LastPago()
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No hay pagos registrados"})
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) misPagos(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.MisPagos(claimsFrom(c).UserID()))
}

func (s *Server) cuotas(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.Cuotas())
}
