package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-booking/internal/domain/appointment/appointmenttest"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// withSecondTenant adds tenant 2 with branch 2, barber 2, service 2 and
// customer 2, none of which tenant 1 may see.
func withSecondTenant(m *appointmenttest.Memory) *appointmenttest.Memory {
	branchID := uint(2)
	m.Tenants[2] = models.Tenant{ID: 2, Name: "Tesoura", Slug: "tesoura", Timezone: "America/Sao_Paulo"}
	m.Branches[2] = models.Branch{ID: 2, TenantID: 2, Name: "Norte", Active: true}
	m.Users[2] = models.User{ID: 2, TenantID: 2, BranchID: &branchID, Name: "Bia", Email: "bia@tesoura.test", Role: models.RoleBarber, Active: true}
	m.Services[2] = models.Service{ID: 2, TenantID: 2, Name: "Barba", DurationMin: 20, Price: 30, Active: true}
	m.Customers[2] = models.Customer{ID: 2, TenantID: 2, Name: "Bruno", Phone: "+5521988880002"}
	return m
}

// staffRouter serves the back-office handlers as user 1 of tenant.
func staffRouter(repo *appointmenttest.Memory, tenant uint) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, uint(1))
		c.Set(middleware.ContextTenantID, tenant)
		c.Set(middleware.ContextUserRole, models.RoleOwner)
		c.Next()
	})

	wh := NewWorkingHoursHandler(repo, nil)
	r.GET("/branches/:branchId/working-hours", wh.Get)
	r.PUT("/branches/:branchId/working-hours", wh.Update)
	r.GET("/branches/:branchId/overrides", wh.ListOverrides)
	r.POST("/branches/:branchId/overrides", wh.PutOverride)
	r.DELETE("/branches/:branchId/overrides/:overrideId", wh.DeleteOverride)

	bh := NewBranchHandler(repo, nil)
	r.GET("/branches", bh.List)
	r.POST("/branches", bh.Create)
	r.PATCH("/branches/:branchId", bh.Update)
	r.GET("/branches/:branchId/barbers", bh.ListStaff)
	r.POST("/branches/:branchId/barbers", bh.CreateStaff)

	sh := NewServiceHandler(repo, nil)
	r.GET("/services", sh.List)
	r.POST("/services", sh.Create)
	r.PATCH("/services/:id", sh.Update)

	r.GET("/customers", NewCustomerHandler(repo).List)
	return r
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func week(start, end string) []gin.H {
	days := make([]gin.H, 0, 7)
	for d := 0; d < 7; d++ {
		days = append(days, gin.H{"week_day": d, "start_time": start, "end_time": end})
	}
	return days
}

func TestWorkingHoursReplaceAll(t *testing.T) {
	repo := appointmenttest.Seed()
	r := staffRouter(repo, 1)

	days := week("10:00", "19:00")
	days[0] = gin.H{"week_day": 0, "is_closed": true}

	w := do(r, http.MethodPut, "/branches/1/working-hours", gin.H{"days": days})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[dto.WorkingHoursResponse](t, w)
	assert.Equal(t, "UTC", resp.Timezone)
	assert.Equal(t, 7, resp.Total)

	rows, err := repo.ListWorkingHours(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	for _, row := range rows {
		if row.WeekDay == 0 {
			assert.True(t, row.IsClosed)
			continue
		}
		assert.Equal(t, "10:00", row.StartTime)
		assert.Equal(t, "19:00", row.EndTime)
	}

	w = do(r, http.MethodGet, "/branches/1/working-hours", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[dto.WorkingHoursResponse](t, w)
	require.Len(t, resp.Data, 7)
	assert.Equal(t, 0, resp.Data[0].WeekDay)
	assert.Equal(t, 6, resp.Data[6].WeekDay)
}

func TestWorkingHoursRejectsBadInput(t *testing.T) {
	repo := appointmenttest.Seed()
	r := staffRouter(repo, 1)

	dup := week("09:00", "18:00")
	dup[6] = gin.H{"week_day": 1, "start_time": "09:00", "end_time": "12:00"}

	w := do(r, http.MethodPut, "/branches/1/working-hours", gin.H{"days": dup})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "duplicate_week_day", errorCode(t, w))

	backwards := week("09:00", "18:00")
	backwards[3] = gin.H{"week_day": 3, "start_time": "18:00", "end_time": "09:00"}

	w = do(r, http.MethodPut, "/branches/1/working-hours", gin.H{"days": backwards})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_time", errorCode(t, w))

	garbled := week("09:00", "18:00")
	garbled[2] = gin.H{"week_day": 2, "start_time": "9h", "end_time": "18:00"}

	w = do(r, http.MethodPut, "/branches/1/working-hours", gin.H{"days": garbled})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_time", errorCode(t, w))

	// rejected requests leave the template alone
	rows, err := repo.ListWorkingHours(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	for _, row := range rows {
		assert.Equal(t, "09:00", row.StartTime)
		assert.Equal(t, "18:00", row.EndTime)
	}
}

func TestWorkingHoursForeignBranch(t *testing.T) {
	repo := withSecondTenant(appointmenttest.Seed())
	r := staffRouter(repo, 1)

	w := do(r, http.MethodPut, "/branches/2/working-hours", gin.H{"days": week("09:00", "18:00")})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "branch_not_found", errorCode(t, w))

	w = do(r, http.MethodGet, "/branches/2/overrides", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "branch_not_found", errorCode(t, w))

	w = do(r, http.MethodPost, "/branches/2/overrides", gin.H{"work_date": "2025-12-24", "is_closed": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, repo.Overrides)
}

func TestOverrideUpsertKeepsOneRowPerDate(t *testing.T) {
	repo := appointmenttest.Seed()
	r := staffRouter(repo, 1)

	w := do(r, http.MethodPost, "/branches/1/overrides", gin.H{
		"work_date": "2025-12-24", "start_time": "09:00", "end_time": "13:00", "reason": "véspera",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[dto.OverrideDTO](t, w)

	w = do(r, http.MethodPost, "/branches/1/overrides", gin.H{
		"work_date": "2025-12-24", "start_time": "10:00", "end_time": "14:00", "reason": "véspera de natal",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := decode[dto.OverrideDTO](t, w)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, repo.Overrides, 1)
	assert.Equal(t, "10:00", repo.Overrides[0].StartTime)
	assert.Equal(t, "14:00", repo.Overrides[0].EndTime)
	assert.Equal(t, "véspera de natal", repo.Overrides[0].Reason)

	w = do(r, http.MethodGet, "/branches/1/overrides?start_date=2025-12-01&end_date=2025-12-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[dto.OverridesResponse](t, w)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "2025-12-24", list.Data[0].WorkDate)
}

func TestClosedOverrideDropsTimes(t *testing.T) {
	repo := appointmenttest.Seed()
	r := staffRouter(repo, 1)

	w := do(r, http.MethodPost, "/branches/1/overrides", gin.H{
		"work_date": "2025-12-25", "is_closed": true, "start_time": "09:00", "end_time": "12:00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decode[dto.OverrideDTO](t, w)
	assert.True(t, out.IsClosed)
	assert.Empty(t, out.StartTime)
	assert.Empty(t, out.EndTime)

	require.Len(t, repo.Overrides, 1)
	assert.Empty(t, repo.Overrides[0].StartTime)
	assert.Empty(t, repo.Overrides[0].EndTime)
}

func TestOverrideRejectsBadInput(t *testing.T) {
	r := staffRouter(appointmenttest.Seed(), 1)

	w := do(r, http.MethodPost, "/branches/1/overrides", gin.H{"work_date": "24/12/2025", "is_closed": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_date", errorCode(t, w))

	w = do(r, http.MethodPost, "/branches/1/overrides", gin.H{
		"work_date": "2025-12-24", "start_time": "13:00", "end_time": "09:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_time", errorCode(t, w))

	w = do(r, http.MethodPost, "/branches/1/overrides", gin.H{"work_date": "2025-12-24"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_time", errorCode(t, w))
}

func TestDeleteOverrideScopedToBranch(t *testing.T) {
	repo := appointmenttest.Seed()
	repo.Branches[3] = models.Branch{ID: 3, TenantID: 1, Name: "Sul", Active: true}
	r := staffRouter(repo, 1)

	w := do(r, http.MethodPost, "/branches/1/overrides", gin.H{"work_date": "2025-12-25", "is_closed": true})
	require.Equal(t, http.StatusOK, w.Code)
	id := decode[dto.OverrideDTO](t, w).ID
	path := "/overrides/" + uintString(id)

	w = do(r, http.MethodDelete, "/branches/3"+path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "override_not_found", errorCode(t, w))
	require.Len(t, repo.Overrides, 1)

	w = do(r, http.MethodDelete, "/branches/1"+path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, repo.Overrides)

	w = do(r, http.MethodDelete, "/branches/1"+path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodDelete, "/branches/1/overrides/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_overrideId", errorCode(t, w))
}
