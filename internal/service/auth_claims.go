package service

import "github.com/golang-jwt/jwt/v5"

// JWTClaims 控制台管理端 JWT 载荷
// token 由宿主控制台签发，本服务只做校验。
type JWTClaims struct {
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
