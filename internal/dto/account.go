package dto

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type UserDTO struct {
	ID        uint   `json:"id"`
	TenantID  uint   `json:"tenant_id"`
	BranchID  *uint  `json:"branch_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url"`
}

type ServiceDTO struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	DurationMin int     `json:"duration_min"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Active      bool    `json:"active"`
}

type ServicesResponse struct {
	Data  []ServiceDTO `json:"data"`
	Total int          `json:"total"`
}
