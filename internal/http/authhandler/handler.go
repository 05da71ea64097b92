package authhandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatsyncgo/internal/services/user"
)

type Handler struct {
	svc user.IUserService
}

func New(svc user.IUserService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/api/auth/register", h.register)
	r.POST("/api/auth/login", h.login)
}

// @Summary		Register a user
// @Description	Creates an account with a bcrypt-hashed password.
// @Tags			Auth
// @Param			body	body		CredentialsBody	true	"Credentials"
// @Success		201		{object}	user.UserDTO
// @Failure		409		{object}	ErrorResponse
// @Router			/api/auth/register [post]
func (h *Handler) register(ginCtx *gin.Context) {
	var body CredentialsBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	dto, err := h.svc.Register(ginCtx.Request.Context(), body.Username, body.Password)
	if errors.Is(err, user.ErrUsernameTaken) {
		ginCtx.JSON(http.StatusConflict, &ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: "server error"})
		return
	}
	ginCtx.JSON(http.StatusCreated, dto)
}

// @Summary		Log in
// @Description	Validates credentials and returns a bearer token for the REST API and the websocket handshake.
// @Tags			Auth
// @Param			body	body		CredentialsBody	true	"Credentials"
// @Success		200		{object}	LoginResponse
// @Failure		401		{object}	ErrorResponse
// @Router			/api/auth/login [post]
func (h *Handler) login(ginCtx *gin.Context) {
	var body CredentialsBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	token, dto, err := h.svc.Login(ginCtx.Request.Context(), body.Username, body.Password)
	if errors.Is(err, user.ErrInvalidCredentials) {
		ginCtx.JSON(http.StatusUnauthorized, &ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: "server error"})
		return
	}
	ginCtx.JSON(http.StatusOK, &LoginResponse{Token: token, User: dto})
}
