package posapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/loomoretail/loomopos/internal/domain"
	"github.com/loomoretail/loomopos/internal/webserver"
	"github.com/loomoretail/loomopos/pkg/common"
)

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResult struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	Realname    string `json:"realname"`
	Level       string `json:"level"`
}

func registerAuthRoutes() {
	webserver.ApiPOST("/api/auth/login", login)
}

func login(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login request", err)
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" || payload.Password == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Username and password are required", nil)
	}

	var opr domain.SysOpr
	if err := GetDB(c).Where("username = ?", payload.Username).First(&opr).Error; err != nil {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password", nil)
	}
	hashed := common.Sha256HashWithSalt(payload.Password, common.GetSecretSalt())
	if opr.Password != hashed || opr.Status != common.ENABLED {
		return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password", nil)
	}

	claims := jwt.MapClaims{
		"uid": opr.ID,
		"usr": opr.Username,
		"lvl": opr.Level,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
		"iss": "loomopos",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(appCtx.Config().Web.Secret))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign token", err)
	}

	GetDB(c).Model(&domain.SysOpr{}).Where("id = ?", opr.ID).Update("last_login", time.Now())
	zap.L().Info("operator login", zap.String("username", opr.Username))

	return ok(c, loginResult{
		AccessToken: signed,
		Username:    opr.Username,
		Realname:    opr.Realname,
		Level:       opr.Level,
	})
}
