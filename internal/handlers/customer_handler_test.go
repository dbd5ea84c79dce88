package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-booking/internal/domain/appointment/appointmenttest"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

func TestCustomerSearch(t *testing.T) {
	repo := withSecondTenant(appointmenttest.Seed())
	repo.Customers[3] = models.Customer{ID: 3, TenantID: 1, Name: "Anderson", Phone: "+5511977770003"}
	r := staffRouter(repo, 1)

	cases := []struct {
		query string
		names []string
	}{
		{"", []string{"Ana", "Anderson"}},
		{"AN", []string{"Ana", "Anderson"}},
		{"anderson", []string{"Anderson"}},
		{"99999", []string{"Ana"}},
		{"bruno", nil},
		{"98888", nil},
	}

	for _, tc := range cases {
		w := do(r, http.MethodGet, "/customers?query="+tc.query, nil)
		require.Equal(t, http.StatusOK, w.Code)

		list := decode[httpresp.ListResponse[models.Customer]](t, w)
		var names []string
		for _, c := range list.Data {
			names = append(names, c.Name)
		}
		assert.Equal(t, tc.names, names, "query %q", tc.query)
	}
}
