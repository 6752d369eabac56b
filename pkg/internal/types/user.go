package types

// LoginRequest 登录.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest 注册，角色固定为 user.
type RegisterRequest struct {
	Username string `json:"username" rule:"notblank,max=255"`
	Password string `json:"password" rule:"required,max=255"`
	Name     string `json:"name"     rule:"max=255"`
}

// UserView 用户信息，不含密码.
type UserView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// AuthResponse 登录/注册结果. 失败时 Success=false 并携带 Message.
type AuthResponse struct {
	Success bool      `json:"success"`
	User    *UserView `json:"user,omitempty"`
	Message string    `json:"message,omitempty"`
}
