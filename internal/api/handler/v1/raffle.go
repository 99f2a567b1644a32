package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Victorh-Tasca/discord-example-app/internal/api/handler/v1/request"
	"github.com/Victorh-Tasca/discord-example-app/internal/api/handler/v1/response"
	"github.com/Victorh-Tasca/discord-example-app/internal/domain"
	"github.com/Victorh-Tasca/discord-example-app/internal/service"

	"github.com/gin-gonic/gin"
)

type RaffleService interface {
	ListOpenRaffles(ctx context.Context, guildID string) ([]domain.Raffle, error)
	GetRaffleWithTally(ctx context.Context, id string) (domain.Raffle, domain.Tally, error)
}

type RaffleHandler struct {
	svc RaffleService
}

func NewRaffleHandler(svc RaffleService) *RaffleHandler {
	return &RaffleHandler{
		svc: svc,
	}
}

// HandleListRaffles lists open raffles, optionally filtered by ?guild_id=.
func (h *RaffleHandler) HandleListRaffles(ctx *gin.Context) {
	var input request.ListRafflesRequest
	if err := ctx.ShouldBindQuery(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	raffles, err := h.svc.ListOpenRaffles(ctx.Request.Context(), input.GuildID)
	if err != nil {
		err = fmt.Errorf("HandleListRaffles -> h.svc.ListOpenRaffles -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	resp := make([]response.Raffle, 0, len(raffles))
	for _, r := range raffles {
		resp = append(resp, response.NewRaffle(r))
	}

	ctx.JSON(http.StatusOK, resp)
}

// HandleGetRaffle returns one raffle with its public tally.
func (h *RaffleHandler) HandleGetRaffle(ctx *gin.Context) {
	var input request.GetRaffleRequest
	if err := ctx.ShouldBindUri(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	raffle, tally, err := h.svc.GetRaffleWithTally(ctx.Request.Context(), input.RaffleID)
	if err != nil {
		if errors.Is(err, service.ErrRaffleNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("raffle", "ID", input.RaffleID))
			return
		}

		err = fmt.Errorf("HandleGetRaffle -> h.svc.GetRaffleWithTally -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewRaffleWithTally(raffle, tally))
}
