package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"digital-library-backend/internal/domains/user"
	"digital-library-backend/internal/shared/middleware"
	"digital-library-backend/internal/shared/response"
)

// UserHandler serves the /autenticacao routes.
type UserHandler struct {
	service user.Service
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service}
}

// ========================================
// AUTHENTICATION ENDPOINTS
// ========================================

// Register handles POST /autenticacao/registrar
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return
	}

	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Usuário registrado com sucesso", res)
}

// Login handles POST /autenticacao/login
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Login realizado com sucesso", res)
}

// Logout handles POST /autenticacao/logout. Tokens are stateless, so this only
// confirms the caller was authenticated.
func (h *UserHandler) Logout(c *gin.Context) {
	response.Success(c, http.StatusOK, "Logout realizado com sucesso", nil)
}

// ValidateToken handles GET /autenticacao/validar_token
func (h *UserHandler) ValidateToken(c *gin.Context) {
	u := middleware.CurrentUser(c)

	var res user.TokenCheckDTO
	res.Valid = true
	res.User.ID = u.ID
	res.User.Email = u.Email
	response.OK(c, res)
}

// ========================================
// PROFILE ENDPOINTS
// ========================================

// GetProfile handles GET /autenticacao/perfil
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.service.Profile(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// UpdateProfile handles PUT /autenticacao/perfil
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req user.UpdateProfileRequest
	if err := h.bindAndValidate(c, &req); err != nil {
		return
	}

	dto, err := h.service.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Perfil atualizado com sucesso", dto)
}

// bindAndValidate treats an empty body as an empty request.
func (h *UserHandler) bindAndValidate(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "ERRO_JSON_INVALIDO", "Corpo da requisição inválido")
		return err
	}
	return nil
}
