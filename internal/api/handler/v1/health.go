package v1

import (
	"net/http"
	"time"

	"github.com/Victorh-Tasca/discord-example-app/internal/api/handler/v1/response"

	"github.com/gin-gonic/gin"
)

func HandleHealthcheck(ctx *gin.Context) {
	ctx.String(http.StatusOK, "Bot de rifas está online!")
}

type HealthHandler struct {
	startedAt time.Time
}

func NewHealthHandler(startedAt time.Time) *HealthHandler {
	return &HealthHandler{startedAt: startedAt}
}

func (h *HealthHandler) HandleHealthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, response.Health{
		Status: "ok",
		Uptime: time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}
