package handlers

import (
	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
)

const customerListLimit = 100

type CustomerHandler struct {
	repo domain.Repository
}

func NewCustomerHandler(repo domain.Repository) *CustomerHandler {
	return &CustomerHandler{repo: repo}
}

// List searches the tenant's customers by name or phone with ?query=.
func (h *CustomerHandler) List(c *gin.Context) {
	customers, err := h.repo.SearchCustomers(c.Request.Context(), tenantID(c), c.Query("query"), customerListLimit)
	if err != nil {
		httperr.Internal(c, "failed_to_list_customers", "Erro ao listar clientes.")
		return
	}

	httpresp.List(c, customers)
}
