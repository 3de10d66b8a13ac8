package v1

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	apierrors "github.com/hrygo/arisu/server/internal/errors"
)

// clientContextKey holds the client name from a verified token.
const clientContextKey = "gateway_client"

func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := s.authenticator.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			s.logger.Warn("gateway request rejected",
				slog.String("path", c.Path()),
				slog.String("remote", c.RealIP()),
				slog.String("error", err.Error()),
			)
			return writeError(c, apierrors.Unauthorized("authentication required"))
		}
		c.Set(clientContextKey, claims.Client)
		return next(c)
	}
}
