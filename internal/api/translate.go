package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// translate is the stateless request/response translation surface. It
// shares the degradation behavior of the relay path: the response is
// always a fully populated result, passthrough on provider trouble.
func (s *Server) translate(c echo.Context) error {
	var req TranslateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result := s.translator.Translate(c.Request().Context(), req.Text, req.SourceLanguage, req.TargetLanguage)
	return c.JSON(http.StatusOK, result)
}
