package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-core/internal/handler"
	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/pkg/auth"
)

// Authenticator checks physician credentials. A nil physician with a nil
// error means the credentials did not match.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*model.Physician, error)
}

type Handler struct {
	authenticator Authenticator
	jwt           auth.JWTService
}

func NewHandler(authenticator Authenticator, jwt auth.JWTService) *Handler {
	return &Handler{
		authenticator: authenticator,
		jwt:           jwt,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
	}
}

type LoginResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	Physician   *model.Physician `json:"physician"`
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, "email and password are required")
		return
	}

	physician, err := h.authenticator.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if physician == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid credentials"))
		return
	}

	token, err := h.jwt.GenerateAccessToken(physician.ID, physician.Email)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		Physician:   physician,
	}))
}
