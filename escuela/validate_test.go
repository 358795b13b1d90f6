package escuela

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_NewAlumno(t *testing.T) {
	ok := NewAlumno{
		Username: "ana", Password: "1234", DNI: 30111222,
		FirstName: "Ana", LastName: "Gómez", Email: "ana@example.com", Type: RoleAlumno,
	}
	require.NoError(t, Validate(ok))

	bad := ok
	bad.Email = "nope"
	bad.Type = "Root"
	bad.DNI = 0
	err := Validate(bad)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"Email": "email", "Type": "oneof", "DNI": "required"}, verr.Fields)
	assert.Equal(t, "invalid fields: DNI (required), Email (email), Type (oneof)", verr.Error())
}

func TestValidate_PartialUpdates(t *testing.T) {
	assert.NoError(t, Validate(PagoUpdate{}))
	metodo := "cheque"
	assert.Error(t, Validate(PagoUpdate{Metodo: &metodo}))
	email := "x@y.com"
	assert.NoError(t, Validate(UserDetailUpdate{Email: &email}))
}

func TestValidate_NewPago(t *testing.T) {
	assert.NoError(t, Validate(NewPago{AlumnoID: 1, CuotaID: 2, MontoPagado: 1500, Metodo: MetodoTransferencia}))
	assert.Error(t, Validate(NewPago{AlumnoID: 1, CuotaID: 2, MontoPagado: 0, Metodo: MetodoEfectivo}))
}
