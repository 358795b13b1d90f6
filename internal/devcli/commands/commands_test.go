package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiesc/escuela-go/escuela"
	"github.com/apiesc/escuela-go/internal/devserver"
)

type cli struct {
	t    *testing.T
	base []string
}

func newCLI(t *testing.T, alumnos int) *cli {
	t.Helper()
	store := devserver.NewStore()
	require.NoError(t, devserver.Seed(store, devserver.SeedOptions{Alumnos: alumnos}))
	srv, err := devserver.New(store, devserver.Options{
		Secret: "commands-test",
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	cfg := filepath.Join(dir, "escuela.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("color: never\nlog_level: error\n"), 0o600))
	return &cli{t: t, base: []string{
		"--config", cfg,
		"--base-url", ts.URL,
		"--token-file", filepath.Join(dir, "token"),
	}}
}

func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()
	var out, errb bytes.Buffer
	root := NewRootCmd(&out, &errb)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append(append([]string{}, args...), c.base...))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return out.String(), errb.String(), err
}

func (c *cli) login(user string) {
	c.t.Helper()
	out, _, err := c.run("login", "-u", user, "-p", user)
	require.NoError(c.t, err)
	require.Contains(c.t, out, "logged in as "+user)
}

func TestLogin_WrongPassword(t *testing.T) {
	c := newCLI(t, 1)
	_, _, err := c.run("login", "-u", "admin", "-p", "bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, escuela.ErrLoginFailed)
}

func TestLogin_PasswordFromStdin(t *testing.T) {
	c := newCLI(t, 1)
	var out bytes.Buffer
	root := NewRootCmd(&out, io.Discard)
	root.SetIn(strings.NewReader("admin\n"))
	root.SetArgs(append([]string{"login", "-u", "admin"}, c.base...))
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "[OK] logged in as admin (Admin)")
}

func TestProfileAndLogout(t *testing.T) {
	c := newCLI(t, 1)
	c.login("admin")

	out, _, err := c.run("profile", "--json")
	require.NoError(t, err)
	var a escuela.Alumno
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, "admin", a.Username)

	_, _, err = c.run("logout")
	require.NoError(t, err)
	_, _, err = c.run("profile")
	assert.ErrorIs(t, err, escuela.ErrNoSession)
}

func TestAlumnosList_RequiresLogin(t *testing.T) {
	c := newCLI(t, 3)
	_, _, err := c.run("alumnos", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, escuela.ErrNoSession)
	assert.Contains(t, err.Error(), "login")
}

func TestAlumnosList_Pages(t *testing.T) {
	c := newCLI(t, 44)
	c.login("admin")

	out, _, err := c.run("alumnos", "list", "--limit", "20", "--pages", "2", "--json")
	require.NoError(t, err)
	var page struct {
		Users      []escuela.Alumno `json:"users"`
		NextCursor *int64           `json:"next_cursor"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Users, 40)
	assert.Equal(t, int64(40), page.Users[39].ID)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, int64(40), *page.NextCursor)

	out, _, err = c.run("alumnos", "list", "--all", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Len(t, page.Users, 45)
	assert.Nil(t, page.NextCursor)
}

func TestAlumnosList_Table(t *testing.T) {
	c := newCLI(t, 2)
	c.login("admin")
	out, stderr, err := c.run("alumnos", "list", "--search", "bruno")
	require.NoError(t, err)
	assert.Contains(t, out, "alumno2")
	assert.Contains(t, out, "Bruno Gómez")
	assert.NotContains(t, out, "alumno1 ")
	assert.Contains(t, stderr, "página 1")
}

func TestAlumnos_CreateUpdateDelete(t *testing.T) {
	c := newCLI(t, 1)
	c.login("admin")

	create := []string{"alumnos", "create",
		"--username", "jperez", "--password", "secreto", "--dni", "40111222",
		"--first", "Juan", "--last", "Pérez", "--email", "jperez@example.com"}
	out, _, err := c.run(create...)
	require.NoError(t, err)
	assert.Contains(t, out, "Usuario registrado correctamente")

	_, _, err = c.run(create...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "El usuario ya existe")

	_, _, err = c.run("alumnos", "update", "3")
	assert.ErrorContains(t, err, "nothing to update")

	_, _, err = c.run("alumnos", "update", "3", "--first", "Juana")
	require.NoError(t, err)
	out, _, err = c.run("alumnos", "last", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"firstName":"Juana","lastName":"Pérez"}`, out)

	_, _, err = c.run("alumnos", "delete", "3")
	require.NoError(t, err)
	_, _, err = c.run("alumnos", "delete", "3")
	assert.True(t, escuela.IsNotFound(err))
}

func TestPagosList_LoadsUntilDone(t *testing.T) {
	c := newCLI(t, 44) // odd students pay their first fee: 22 payments
	c.login("admin")

	out, _, err := c.run("pagos", "list", "--limit", "5", "--max", "0", "--json")
	require.NoError(t, err)
	var page struct {
		Pagos      []escuela.Pago `json:"pagos"`
		NextCursor *int64         `json:"next_cursor"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Len(t, page.Pagos, 22)
	assert.Nil(t, page.NextCursor)

	out, _, err = c.run("pagos", "list", "--limit", "5", "--max", "7", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Len(t, page.Pagos, 7)
}

func TestPagos_CreateAndLast(t *testing.T) {
	c := newCLI(t, 2)
	c.login("admin")

	// student 2 (user id 3) owes cuotas 3 and 4.
	_, _, err := c.run("pagos", "create", "--alumno", "3", "--cuota", "3", "--monto", "5000", "--metodo", "transferencia")
	require.NoError(t, err)

	out, _, err := c.run("pagos", "last")
	require.NoError(t, err)
	assert.Contains(t, out, "Bruno Gómez pagó $5000 (transferencia)")

	out, _, err = c.run("cuotas", "--pendientes", "--json")
	require.NoError(t, err)
	var cuotas []escuela.Cuota
	require.NoError(t, json.Unmarshal([]byte(out), &cuotas))
	for _, cu := range cuotas {
		assert.NotEqual(t, escuela.EstadoPagada, cu.Estado)
		if cu.ID == 3 {
			assert.Equal(t, escuela.EstadoParcial, cu.Estado)
		}
	}
}

func TestMisPagos_JSONL(t *testing.T) {
	c := newCLI(t, 1)
	c.login("alumno1")
	out, _, err := c.run("mis-pagos", "--jsonl")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	var p escuela.MiPago
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &p))
	assert.Equal(t, "2025-03", p.Periodo)
}

func TestDashboard(t *testing.T) {
	c := newCLI(t, 1)
	c.login("admin")
	out, _, err := c.run("dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana Pérez")
	assert.Contains(t, out, "$15000")
}

func TestBrowse_UnknownTable(t *testing.T) {
	c := newCLI(t, 1)
	c.login("admin")
	_, _, err := c.run("browse", "cuotas")
	assert.ErrorContains(t, err, "unknown table")
}
