package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"coinvest/internal/apperr"
	"coinvest/internal/logging"
	"coinvest/internal/middleware"
	"coinvest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// respondMessage sends a success envelope with a human-readable message; data may be nil.
func respondMessage(c *gin.Context, status int, data interface{}, msg string) {
	body := gin.H{"message": msg}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// respondError maps the error kind to a status code. Internal causes are logged, never returned.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		logging.Named("http").Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(kind.HTTPStatus(), gin.H{"error": apperr.Message(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// bindJSON binds and validates the request body, answering 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, bindingMessage(err))
		return false
	}
	return true
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := toSnake(fe.Field())
		switch fe.Tag() {
		case "required":
			return field + " is required"
		case "email":
			return field + " must be a valid email"
		case "min", "max":
			bound := "at least "
			if fe.Tag() == "max" {
				bound = "at most "
			}
			if fe.Kind() == reflect.String {
				return field + " must be " + bound + fe.Param() + " characters"
			}
			return field + " must be " + bound + fe.Param()
		case "oneof":
			return field + " must be one of " + fe.Param()
		default:
			return field + " is invalid"
		}
	}
	return "Invalid request body"
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

// pagination reads ?page=&limit=; the services clamp the values.
func pagination(c *gin.Context) (int, int) {
	return queryInt(c, "page", 1), queryInt(c, "limit", 20)
}

func queryUint(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{ID: middleware.GetUserID(c), IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}
