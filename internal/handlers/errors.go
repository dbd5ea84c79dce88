package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
)

type businessMapping struct {
	status  int
	message string
}

// businessErrors maps use-case codes to HTTP status and user message.
var businessErrors = map[string]businessMapping{
	"tenant_not_found":      {http.StatusNotFound, "Barbearia não encontrada."},
	"branch_not_found":      {http.StatusNotFound, "Unidade não encontrada."},
	"barber_not_found":      {http.StatusNotFound, "Barbeiro não encontrado."},
	"service_not_found":     {http.StatusNotFound, "Serviço não encontrado."},
	"customer_not_found":    {http.StatusNotFound, "Cliente não encontrado."},
	"appointment_not_found": {http.StatusNotFound, "Agendamento não encontrado."},
	"lock_not_found":        {http.StatusNotFound, "Reserva não encontrada."},

	"invalid_interval": {http.StatusBadRequest, "Intervalo de horário inválido."},
	"invalid_time":     {http.StatusBadRequest, "Hora inválida."},
	"invalid_date":     {http.StatusBadRequest, "Data inválida."},
	"invalid_month":    {http.StatusBadRequest, "Mês inválido."},
	"invalid_customer": {http.StatusBadRequest, "Informe o cliente cadastrado ou nome e telefone."},

	"closed_day":            {http.StatusUnprocessableEntity, "A barbearia não abre nesta data."},
	"outside_working_hours": {http.StatusUnprocessableEntity, "Fora do horário de atendimento."},
	"too_soon":              {http.StatusUnprocessableEntity, "Horário com antecedência insuficiente."},
	"invalid_state":         {http.StatusUnprocessableEntity, "Ação inválida para o status atual."},
	"lock_mismatch":         {http.StatusUnprocessableEntity, "A reserva não corresponde a este horário."},

	"time_conflict": {http.StatusConflict, "Horário não está mais disponível."},
	"lock_expired":  {http.StatusGone, "A reserva expirou."},

	"payments_disabled": {http.StatusServiceUnavailable, "Pagamentos não configurados."},
	"storage_disabled":  {http.StatusServiceUnavailable, "Armazenamento não configurado."},
}

// writeBusinessError answers a use-case error. Unknown errors are logged
// and reported as internal.
func writeBusinessError(c *gin.Context, err error, fallback string) {
	var be httperr.BusinessError
	if errors.As(err, &be) {
		m, ok := businessErrors[be.Code]
		if !ok {
			m = businessMapping{http.StatusBadRequest, be.Code}
		}
		httperr.Write(c, m.status, be.Code, m.message)
		return
	}

	log.Printf("%s %s: %v (request %s)", c.Request.Method, c.FullPath(), err, c.GetString(middleware.ContextRequestID))
	httperr.Internal(c, fallback, "Erro interno.")
}

func invalidRequest(c *gin.Context, err error) {
	httperr.BadRequest(c, "invalid_request", err.Error())
}

// uintParam reads a positive numeric path parameter.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		httperr.BadRequest(c, "invalid_"+name, "Parâmetro inválido: "+name)
		return 0, false
	}
	return uint(v), true
}

func uintQuery(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_"+name, "Parâmetro inválido: "+name)
		return 0, false
	}
	return uint(v), true
}

func tenantID(c *gin.Context) uint {
	return c.MustGet(middleware.ContextTenantID).(uint)
}

func userID(c *gin.Context) uint {
	return c.MustGet(middleware.ContextUserID).(uint)
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
