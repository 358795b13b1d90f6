package escuela

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamMisPagos_TopLevelArray(t *testing.T) {
	body := `[{"id":1,"periodo":"Marzo 2025","monto_pagado":100},{"id":2,"periodo":"Abril 2025","monto_pagado":200},{"id":3,"periodo":"Mayo 2025","monto_pagado":300}]`

	srv, cl := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		mustPath(t, r, "/pago/mis_pagos")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
	defer srv.Close()

	sc, err := cl.StreamMisPagos(testContext(t))
	require.NoError(t, err)
	defer sc.Close()

	var got []int64
	for {
		var p MiPago
		if !sc.Next(&p) {
			break
		}
		got = append(got, p.ID)
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []int64{1, 2, 3}, got)
}

func TestItemScanner_WrappedList(t *testing.T) {
	body := `{"meta":{"x":[1,2]},"pagos":[{"id":7},{"id":8}],"next_cursor":8}`

	srv, cl := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	})
	defer srv.Close()

	sc, err := cl.StreamMisPagos(testContext(t))
	require.NoError(t, err)
	defer sc.Close()

	var got []int64
	var p Pago
	for sc.Next(&p) {
		got = append(got, p.ID)
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []int64{7, 8}, got)
}

func TestItemScanner_ObjectWithoutList(t *testing.T) {
	srv, cl := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":"sin pagos"}`)
	})
	defer srv.Close()

	sc, err := cl.StreamMisPagos(testContext(t))
	require.NoError(t, err)
	var p MiPago
	assert.False(t, sc.Next(&p))
	assert.NoError(t, sc.Err())
}

func TestStreamMisPagos_NoSession(t *testing.T) {
	cl := New(WithBaseURL("http://127.0.0.1:0"))
	_, err := cl.StreamMisPagos(testContext(t))
	assert.ErrorIs(t, err, ErrNoSession)
}
