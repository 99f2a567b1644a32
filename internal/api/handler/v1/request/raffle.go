package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type ListRafflesRequest struct {
	GuildID string `form:"guild_id"`
}

func (req *ListRafflesRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.GuildID, is.Digit, validation.Length(1, 32)),
	)
}

type GetRaffleRequest struct {
	RaffleID string `uri:"raffleID"`
}

func (req *GetRaffleRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.RaffleID, validation.Required, is.UUID),
	)
}
