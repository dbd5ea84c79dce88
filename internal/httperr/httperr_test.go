package httperr

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBusiness(t *testing.T) {
	err := fmt.Errorf("commit: %w", ErrBusiness("time_conflict"))

	assert.True(t, IsBusiness(err, "time_conflict"))
	assert.False(t, IsBusiness(err, "too_soon"))
	assert.False(t, IsBusiness(fmt.Errorf("plain"), "time_conflict"))
}

func TestIsExclusionConflict(t *testing.T) {
	exclusion := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01"})
	unique := &pgconn.PgError{Code: "23505"}

	assert.True(t, IsExclusionConflict(exclusion))
	assert.False(t, IsExclusionConflict(unique))
	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsExclusionConflict(nil))
}

func TestConflictWritesErrorBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Conflict(c, "time_conflict", "slot no longer available")

	require.Equal(t, http.StatusConflict, w.Code)

	var body HTTPError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "time_conflict", body.Code)
	assert.Equal(t, "slot no longer available", body.Message)
}
