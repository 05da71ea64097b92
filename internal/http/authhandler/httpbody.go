package authhandler

import "chatsyncgo/internal/services/user"

type CredentialsBody struct {
	Username string `json:"username" binding:"required,min=1,max=64"  example:"alice"`
	Password string `json:"password" binding:"required,min=1,max=128" example:"s3cret"`
} // @name CredentialsRequest

type LoginResponse struct {
	Token string        `json:"token"`
	User  *user.UserDTO `json:"user"`
} // @name LoginResponse

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse
