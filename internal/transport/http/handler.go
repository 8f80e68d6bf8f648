package handlers

import (
	"net/http"

	"economy-service/internal/application/usecase"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type EconomyHandler struct {
	economy *usecase.EconomyUseCase
}

func NewEconomyHandler(economy *usecase.EconomyUseCase) *EconomyHandler {
	return &EconomyHandler{economy: economy}
}

// httpStatus maps the service error taxonomy onto HTTP, canonical
// grpc-gateway style.
func httpStatus(code codes.Code) int {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	st, ok := status.FromError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(httpStatus(st.Code()), gin.H{
		"error": st.Message(),
		"code":  st.Code().String(),
	})
}
