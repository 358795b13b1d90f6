package escuela

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePage(t *testing.T) {
	type row struct {
		ID int64 `json:"id"`
	}
	c20 := int64(20)

	tests := []struct {
		name  string
		body  string
		items int
		next  *int64
	}{
		{"users key", `{"users":[{"id":1},{"id":2}],"next_cursor":20}`, 2, &c20},
		{"pagos key", `{"pagos":[{"id":1}],"next_cursor":20}`, 1, &c20},
		{"items key", `{"items":[{"id":1}],"next_cursor":null}`, 1, nil},
		{"null list", `{"users":null,"pagos":[{"id":4}]}`, 1, nil},
		{"missing list", `{"next_cursor":5}`, 0, ptr(int64(5))},
		{"zero cursor", `{"users":[],"next_cursor":0}`, 0, nil},
		{"string cursor", `{"users":[],"next_cursor":"abc"}`, 0, nil},
		{"not json", `<html>`, 0, nil},
		{"list of wrong shape", `{"users":{"id":1},"next_cursor":3}`, 0, ptr(int64(3))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := decodePage[row]([]byte(tt.body), nil)
			assert.NotNil(t, p.Items)
			assert.Len(t, p.Items, tt.items)
			assert.Equal(t, tt.next, p.NextCursor)
		})
	}
}

func TestPaginate_DefaultsLimit(t *testing.T) {
	var got PageRequest
	srv, cl := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		mustPath(t, r, "/pago/paginated/filtered-sync")
		require.Equal(t, http.MethodPost, r.Method)
		decodeBody(t, r, &got)
		writeJSON(w, http.StatusOK, map[string]any{"pagos": []Pago{{ID: 9, Metodo: MetodoEfectivo}}, "next_cursor": 9})
	})
	defer srv.Close()

	page, err := cl.PaginatePagos(testContext(t), PageRequest{LastSeenID: -3, Search: "ana"})
	require.NoError(t, err)
	assert.Equal(t, PageRequest{Limit: DefaultPageSize, LastSeenID: 0, Search: "ana"}, got)
	require.Len(t, page.Items, 1)
	assert.True(t, page.HasNext())
}

func TestPaginate_NoSession(t *testing.T) {
	cl := New(WithBaseURL("http://127.0.0.1:0"))
	_, err := cl.PaginateAlumnos(testContext(t), PageRequest{})
	assert.ErrorIs(t, err, ErrNoSession)
}

func ptr[T any](v T) *T { return &v }
