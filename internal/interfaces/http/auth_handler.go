package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-sync/internal/application/dto"
	"github.com/jhoicas/Inventario-sync/internal/domain"
	"github.com/jhoicas/Inventario-sync/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-sync/pkg/jwt"
)

// Authenticator verifica credenciales.
type Authenticator interface {
	Authenticate(email, password string) (*memory.User, error)
}

// AuthHandler maneja el login del peer.
type AuthHandler struct {
	users     Authenticator
	jwtSecret string
	issuer    string
	expMin    int
}

// NewAuthHandler construye el handler de auth. Sin secret emite tokens opacos.
func NewAuthHandler(users Authenticator, jwtSecret, issuer string, expMin int) *AuthHandler {
	if expMin <= 0 {
		expMin = 60
	}
	return &AuthHandler{users: users, jwtSecret: jwtSecret, issuer: issuer, expMin: expMin}
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Email == "" || in.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "email y password son requeridos"})
	}
	user, err := h.users.Authenticate(in.Email, in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	token := uuid.New().String()
	if h.jwtSecret != "" {
		token, err = jwt.Generate(h.jwtSecret, user.ID, user.Email, user.Rol, h.issuer, h.expMin)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.JSON(fiber.Map{"auth": dto.LoginResponse{
		Token:  token,
		ID:     dto.FlexID(user.ID),
		Email:  user.Email,
		Nombre: user.Nombre,
		Rol:    user.Rol,
	}})
}
