package devserver

import (
	"fmt"

	"github.com/apiesc/escuela-go/escuela"
)

// SeedOptions sizes the demo data set.
type SeedOptions struct {
	// Alumnos is the number of students to create besides the admin.
	Alumnos int
	// Periodos lists the cuota periods created for every student.
	Periodos []string
	// Monto is the amount owed per cuota.
	Monto float64
}

var firstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Elena", "Facundo", "Gala", "Hernán", "Inés", "Joaquín"}
var lastNames = []string{"Pérez", "Gómez", "Rodríguez", "Fernández", "López", "Martínez", "Sosa", "Díaz"}
var metodos = []string{escuela.MetodoEfectivo, escuela.MetodoTransferencia, escuela.MetodoMercadoPago}

// Seed fills the store with an admin (admin/admin) and demo students. Each
// student named alumnoN logs in with password alumnoN. The first cuota of
// every other student is fully paid and the rest are pending.
func Seed(s *Store, opts SeedOptions) error {
	if len(opts.Periodos) == 0 {
		opts.Periodos = []string{"2025-03", "2025-04"}
	}
	if opts.Monto <= 0 {
		opts.Monto = 15000
	}
	if _, err := s.RegisterAlumno(escuela.NewAlumno{
		Username:  "admin",
		Password:  "admin",
		DNI:       1,
		FirstName: "Admin",
		LastName:  "Escuela",
		Email:     "admin@escuela.test",
		Type:      escuela.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	for i := 1; i <= opts.Alumnos; i++ {
		user := fmt.Sprintf("alumno%d", i)
		a, err := s.RegisterAlumno(escuela.NewAlumno{
			Username:  user,
			Password:  user,
			DNI:       int64(30000000 + i),
			FirstName: firstNames[(i-1)%len(firstNames)],
			LastName:  lastNames[(i-1)%len(lastNames)],
			Email:     user + "@escuela.test",
			Type:      escuela.RoleAlumno,
		})
		if err != nil {
			return fmt.Errorf("seed %s: %w", user, err)
		}
		for j, periodo := range opts.Periodos {
			c := s.AddCuota(a.ID, periodo, opts.Monto)
			if j > 0 || i%2 == 0 {
				continue
			}
			if _, err := s.CreatePago(escuela.NewPago{
				AlumnoID:    a.ID,
				CuotaID:     c.ID,
				MontoPagado: opts.Monto,
				Metodo:      metodos[i%len(metodos)],
			}); err != nil {
				return fmt.Errorf("seed pago for %s: %w", user, err)
			}
		}
	}
	return nil
}
