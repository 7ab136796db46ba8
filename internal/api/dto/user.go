package dto

// RegisterDTO 注册
type RegisterDTO struct {
	Username string  `json:"username" binding:"required" validate:"min=3,max=20"`
	Password string  `json:"password" binding:"required" validate:"min=6,max=32"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Nickname string  `json:"nickname" validate:"omitempty,max=15"`
}

// CredentialDTO 登录凭证
type CredentialDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenDTO 登录结果
type TokenDTO struct {
	Token     string         `json:"token"`
	ExpiresIn int64          `json:"expires_in"`
	User      *UserSimpleDTO `json:"user"`
}

// UserSimpleDTO 对外公开的用户快照
type UserSimpleDTO struct {
	ID             uint64 `json:"id"`
	Username       string `json:"username"`
	Nickname       string `json:"nickname,omitempty"`
	ProfilePicture string `json:"profile_picture"`
}
