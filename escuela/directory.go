package escuela

import (
	"context"
	"fmt"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// directoryPageSize matches the page the payments screen preloads for its selectors.
const directoryPageSize = 100

// Directory resolves alumno and cuota identifiers of payment rows into
// display labels. Labels are cached; unknown identifiers render as "ID: n".
type Directory struct {
	client  *Client
	alumnos *lru.Cache[int64, string]
	cuotas  *lru.Cache[int64, string]
}

// NewDirectory returns a Directory holding up to size labels of each kind.
func NewDirectory(c *Client, size int) (*Directory, error) {
	if size <= 0 {
		size = 512
	}
	alumnos, err := lru.New[int64, string](size)
	if err != nil {
		return nil, err
	}
	cuotas, err := lru.New[int64, string](size)
	if err != nil {
		return nil, err
	}
	return &Directory{client: c, alumnos: alumnos, cuotas: cuotas}, nil
}

// Load fetches the first alumnos page and every cuota in parallel.
func (d *Directory) Load(ctx context.Context) error {
	var (
		alumnos *Page[Alumno]
		cuotas  []Cuota
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		alumnos, err = d.client.PaginateAlumnos(gctx, PageRequest{Limit: directoryPageSize})
		return err
	})
	g.Go(func() (err error) {
		cuotas, err = d.client.Cuotas(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load directory: %w", err)
	}
	for _, a := range alumnos.Items {
		d.AddAlumno(a)
	}
	for _, c := range cuotas {
		d.AddCuota(c)
	}
	return nil
}

// AddAlumno caches the full name of a.
func (d *Directory) AddAlumno(a Alumno) { d.alumnos.Add(a.ID, a.FullName()) }

// AddCuota caches the "periodo - $monto" label of c.
func (d *Directory) AddCuota(c Cuota) {
	d.cuotas.Add(c.ID, fmt.Sprintf("%s - $%s", c.Periodo, formatMonto(c.MontoAPagar)))
}

// AlumnoLabel returns the alumno's full name or "ID: n".
func (d *Directory) AlumnoLabel(id int64) string {
	if v, ok := d.alumnos.Get(id); ok {
		return v
	}
	return "ID: " + strconv.FormatInt(id, 10)
}

// CuotaLabel returns "periodo - $monto" or "ID: n".
func (d *Directory) CuotaLabel(id int64) string {
	if v, ok := d.cuotas.Get(id); ok {
		return v
	}
	return "ID: " + strconv.FormatInt(id, 10)
}

// formatMonto renders an amount without trailing zero decimals.
func formatMonto(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatMonto renders an amount with a currency sign.
func FormatMonto(v float64) string { return "$" + formatMonto(v) }
