package model

// 用户角色.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 用户记录. 密码按原样存储（明文），仅用于演示环境.
type User struct {
	ID       uint   `gorm:"primaryKey"                json:"id"`
	Username string `gorm:"size:255;not null;uniqueIndex" json:"username"`
	Password string `gorm:"size:255;not null"         json:"-"`
	Name     string `gorm:"size:255"                  json:"name"`
	Role     string `gorm:"size:32;default:user"      json:"role"`
}

func (User) TableName() string { return "users" }
