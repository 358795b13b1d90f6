package devserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiesc/escuela-go/escuela"
)

const testSecret = "test-secret-for-devserver"

func newServer(t *testing.T, alumnos int) (*Server, *Store) {
	t.Helper()
	store := NewStore()
	require.NoError(t, Seed(store, SeedOptions{Alumnos: alumnos}))
	srv, err := New(store, Options{
		Secret: testSecret,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return srv, store
}

func call(t *testing.T, srv *Server, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, srv *Server, user, pass string) string {
	t.Helper()
	rec := call(t, srv, http.MethodPost, "/users/loginUser", "", escuela.LoginRequest{Username: user, Password: pass})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.True(t, out.Success)
	return out.Token
}

type usersPage struct {
	Users      []escuela.Alumno `json:"users"`
	NextCursor *int64           `json:"next_cursor"`
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New(NewStore(), Options{})
	assert.Error(t, err)
}

func TestLogin_BadCredentials(t *testing.T) {
	srv, _ := newServer(t, 1)
	rec := call(t, srv, http.MethodPost, "/users/loginUser", "", escuela.LoginRequest{Username: "admin", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Usuario y/o password incorrectos!"}`, rec.Body.String())
}

func TestLogin_TokenCarriesRole(t *testing.T) {
	srv, _ := newServer(t, 1)
	claims, err := escuela.ParseClaims(login(t, srv, "alumno1", "alumno1"))
	require.NoError(t, err)
	assert.Equal(t, escuela.RoleAlumno, claims.Type)
	assert.Equal(t, "2", claims.Subject)
	assert.False(t, claims.Expired(time.Now()))
}

func TestProfile(t *testing.T) {
	srv, _ := newServer(t, 1)
	tok := login(t, srv, "admin", "admin")
	rec := call(t, srv, http.MethodGet, "/user/profile", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var a escuela.Alumno
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, "admin", a.Username)
	require.NotNil(t, a.UserDetail)
	assert.Equal(t, escuela.RoleAdmin, a.UserDetail.Type)
}

func TestAuth_MissingAndInvalidToken(t *testing.T) {
	srv, _ := newServer(t, 1)
	rec := call(t, srv, http.MethodGet, "/user/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Not authenticated"}`, rec.Body.String())

	rec = call(t, srv, http.MethodGet, "/user/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	srv, store := newServer(t, 1)
	a, err := store.Alumno(1)
	require.NoError(t, err)
	old := signer{secret: []byte(testSecret), ttl: time.Minute, now: func() time.Time { return time.Now().Add(-time.Hour) }}
	tok, err := old.sign(a)
	require.NoError(t, err)

	rec := call(t, srv, http.MethodGet, "/user/profile", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token expirado")
}

func TestRoles(t *testing.T) {
	srv, _ := newServer(t, 1)
	alumno := login(t, srv, "alumno1", "alumno1")
	admin := login(t, srv, "admin", "admin")

	rec := call(t, srv, http.MethodPost, "/user/paginated/filtered-sync", alumno, escuela.PageRequest{Limit: 5})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, srv, http.MethodGet, "/pago/mis_pagos", admin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPageAlumnos_CursorWalk(t *testing.T) {
	srv, _ := newServer(t, 44) // 45 users with the admin
	tok := login(t, srv, "admin", "admin")

	var seen []int64
	cursor := escuela.InitialCursor
	pages := 0
	for {
		rec := call(t, srv, http.MethodPost, "/user/paginated/filtered-sync", tok,
			escuela.PageRequest{Limit: 20, LastSeenID: cursor})
		require.Equal(t, http.StatusOK, rec.Code)
		var p usersPage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		pages++
		for _, u := range p.Users {
			seen = append(seen, u.ID)
		}
		if p.NextCursor == nil {
			break
		}
		assert.Equal(t, p.Users[len(p.Users)-1].ID, *p.NextCursor)
		cursor = *p.NextCursor
	}
	assert.Equal(t, 3, pages)
	require.Len(t, seen, 45)
	for i, id := range seen {
		assert.Equal(t, int64(i+1), id)
	}
}

func TestPageAlumnos_ExactPageHasNoNext(t *testing.T) {
	srv, _ := newServer(t, 19)
	tok := login(t, srv, "admin", "admin")
	rec := call(t, srv, http.MethodPost, "/user/paginated/filtered-sync", tok, escuela.PageRequest{Limit: 20})
	var p usersPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Len(t, p.Users, 20)
	assert.Nil(t, p.NextCursor)
}

func TestPageAlumnos_Search(t *testing.T) {
	srv, _ := newServer(t, 20)
	tok := login(t, srv, "admin", "admin")
	rec := call(t, srv, http.MethodPost, "/user/paginated/filtered-sync", tok,
		escuela.PageRequest{Limit: 50, Search: "  ELENA "})
	var p usersPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.Len(t, p.Users, 2) // alumno5 and alumno15
	for _, u := range p.Users {
		assert.Equal(t, "Elena", u.UserDetail.FirstName)
	}
}

func TestRegister_Conflicts(t *testing.T) {
	srv, _ := newServer(t, 1)
	tok := login(t, srv, "admin", "admin")
	in := escuela.NewAlumno{
		Username: "nuevo", Password: "secreto", DNI: 40111222,
		FirstName: "Nuevo", LastName: "Alumno", Email: "nuevo@escuela.test", Type: escuela.RoleAlumno,
	}
	rec := call(t, srv, http.MethodPost, "/users/register/full", tok, in)
	assert.JSONEq(t, `"Usuario registrado correctamente"`, rec.Body.String())

	rec = call(t, srv, http.MethodPost, "/users/register/full", tok, in)
	assert.JSONEq(t, `"El usuario ya existe"`, rec.Body.String())

	in.Username = "otro"
	rec = call(t, srv, http.MethodPost, "/users/register/full", tok, in)
	assert.JSONEq(t, `"El email ya existe"`, rec.Body.String())
}

func TestRegister_Invalid(t *testing.T) {
	srv, _ := newServer(t, 0)
	tok := login(t, srv, "admin", "admin")
	rec := call(t, srv, http.MethodPost, "/users/register/full", tok, escuela.NewAlumno{Username: "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid fields")
}

func TestPagos_BalanceFollowsPayments(t *testing.T) {
	srv, store := newServer(t, 2)
	tok := login(t, srv, "admin", "admin")

	// alumno2 (id 3) has two pending cuotas of 15000.
	var cuota escuela.Cuota
	for _, c := range store.Cuotas() {
		if c.AlumnoID == 3 {
			cuota = c
			break
		}
	}
	require.Equal(t, escuela.EstadoPendiente, cuota.Estado)

	rec := call(t, srv, http.MethodPost, "/nuevoPago", tok, escuela.NewPago{
		AlumnoID: 3, CuotaID: cuota.ID, MontoPagado: 5000, Metodo: escuela.MetodoEfectivo,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p escuela.Pago
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Bruno Gómez", p.Alumno)

	cuotaOf := func() escuela.Cuota {
		for _, c := range store.Cuotas() {
			if c.ID == cuota.ID {
				return c
			}
		}
		t.Fatalf("cuota %d missing", cuota.ID)
		return escuela.Cuota{}
	}
	c := cuotaOf()
	assert.Equal(t, escuela.EstadoParcial, c.Estado)
	assert.InDelta(t, 10000, c.SaldoPendiente, 0.001)

	monto := 15000.0
	rec = call(t, srv, http.MethodPatch, "/editarPago/"+strconv.FormatInt(p.ID, 10), tok, escuela.PagoUpdate{MontoPagado: &monto})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, escuela.EstadoPagada, cuotaOf().Estado)

	rec = call(t, srv, http.MethodDelete, "/eliminarPago/"+strconv.FormatInt(p.ID, 10), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	c = cuotaOf()
	assert.Equal(t, escuela.EstadoPendiente, c.Estado)
	assert.InDelta(t, 15000, c.SaldoPendiente, 0.001)
}

func TestCreatePago_UnknownCuota(t *testing.T) {
	srv, _ := newServer(t, 1)
	tok := login(t, srv, "admin", "admin")
	rec := call(t, srv, http.MethodPost, "/nuevoPago", tok, escuela.NewPago{
		AlumnoID: 2, CuotaID: 999, MontoPagado: 10, Metodo: escuela.MetodoEfectivo,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Cuota no encontrada"}`, rec.Body.String())
}

func TestUltimo_EmptyStore(t *testing.T) {
	store := NewStore()
	require.NoError(t, Seed(store, SeedOptions{}))
	srv, err := New(store, Options{Secret: testSecret, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)
	tok := login(t, srv, "admin", "admin")

	rec := call(t, srv, http.MethodGet, "/pago/ultimo", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"No hay pagos registrados"}`, rec.Body.String())

	rec = call(t, srv, http.MethodGet, "/users/ultimo", tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"firstName":"Admin","lastName":"Escuela"}`, rec.Body.String())
}

func TestDeleteAlumno_RemovesPagos(t *testing.T) {
	srv, store := newServer(t, 1)
	tok := login(t, srv, "admin", "admin")
	p, _ := store.PagePagos(escuela.PageRequest{})
	require.Len(t, p, 1)

	rec := call(t, srv, http.MethodDelete, "/users/2", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p, _ = store.PagePagos(escuela.PageRequest{})
	assert.Empty(t, p)
	assert.Empty(t, store.Cuotas())

	rec = call(t, srv, http.MethodDelete, "/users/2", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMisPagos(t *testing.T) {
	srv, _ := newServer(t, 1)
	tok := login(t, srv, "alumno1", "alumno1")
	rec := call(t, srv, http.MethodGet, "/pago/mis_pagos", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out []escuela.MiPago
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "2025-03", out[0].Periodo)
	assert.Equal(t, escuela.MetodoTransferencia, out[0].Metodo)
}

func TestPagePagos_SearchByMetodo(t *testing.T) {
	_, store := newServer(t, 6) // odd alumnos pay: 1 transferencia, 3 efectivo, 5 mercado_pago
	p, next := store.PagePagos(escuela.PageRequest{Search: "EFECTIVO"})
	require.Len(t, p, 1)
	assert.Nil(t, next)
	assert.Equal(t, "Carla Rodríguez", p[0].Alumno)
}
