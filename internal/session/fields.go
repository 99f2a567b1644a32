package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Victorh-Tasca/discord-example-app/internal/domain"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/shopspring/decimal"
)

// Field is one text-prompted entry of the creation panel.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldPrice       Field = "price"
	FieldMaxTickets  Field = "max_tickets"
	FieldPaymentKey  Field = "payment_key"
	FieldColor       Field = "color"
	FieldImageURL    Field = "image_url"
	// FieldDates opens the date modal instead of a text prompt.
	FieldDates Field = "dates"
)

const (
	DateLayout    = "02/01/2006 15:04"
	maxTitleLen   = 256
	maxDescLen    = 4000
	maxTicketsCap = 10000
)

var PaymentKeyKinds = []string{"CPF/CNPJ", "Celular", "E-mail", "Chave Aleatória"}

type FieldInfo struct {
	Field  Field
	Label  string
	Prompt string
}

// Fields lists the panel entries in menu order.
var Fields = []FieldInfo{
	{FieldTitle, "Título", "Digite o título da rifa."},
	{FieldDescription, "Descrição", "Digite a descrição da rifa."},
	{FieldPrice, "Preço por número", "Digite o preço de cada número (ex: 5,00)."},
	{FieldMaxTickets, "Quantidade de números", "Digite a quantidade total de números."},
	{FieldDates, "Datas de início e fim", ""},
	{FieldPaymentKey, "Chave PIX", "Digite a chave PIX para pagamento."},
	{FieldColor, "Cor", "Digite a cor do anúncio em hexadecimal (ex: #FF5733)."},
	{FieldImageURL, "Imagem", "Envie a URL da imagem do prêmio."},
}

func LookupField(f Field) (FieldInfo, bool) {
	for _, info := range Fields {
		if info.Field == f {
			return info, true
		}
	}
	return FieldInfo{}, false
}

var (
	ErrInvalidValue = errors.New("invalid value")
	ErrUnknownField = errors.New("unknown field")

	hexColor = regexp2.MustCompile(`^#?(?:[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})$`, regexp2.None)
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidValue, fmt.Sprintf(format, args...))
}

// ParsePrice accepts both "5,50" and "5.50".
func ParsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "R$"))
	raw = strings.ReplaceAll(raw, ",", ".")
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, invalid("%q is not a number", raw)
	}
	if !price.IsPositive() {
		return decimal.Zero, invalid("price must be greater than zero")
	}

	return price.Round(2), nil
}

func ParseMaxTickets(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, invalid("%q is not a whole number", raw)
	}
	if n < 1 || n > maxTicketsCap {
		return 0, invalid("ticket count must be between 1 and %d", maxTicketsCap)
	}

	return n, nil
}

// ParseColor validates a hex colour and normalises it to "#RRGGBB".
func ParseColor(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	ok, err := hexColor.MatchString(raw)
	if err != nil || !ok {
		return "", invalid("%q is not a hex colour", raw)
	}

	hex := strings.ToUpper(strings.TrimPrefix(raw, "#"))
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}

	return "#" + hex, nil
}

// ColorValue converts "#RRGGBB" into the integer Discord embeds expect.
func ColorValue(color string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(color, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}

func ParseImageURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if err := validation.Validate(raw, validation.Required, is.URL); err != nil {
		return "", invalid("%q is not a valid URL", raw)
	}

	return raw, nil
}

// ParseDates reads start and end in DateLayout in loc. End must be after start.
func ParseDates(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	s, err := time.ParseInLocation(DateLayout, strings.TrimSpace(start), loc)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("start date must look like 25/12/2026 18:00")
	}
	e, err := time.ParseInLocation(DateLayout, strings.TrimSpace(end), loc)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("end date must look like 25/12/2026 18:00")
	}
	if !e.After(s) {
		return time.Time{}, time.Time{}, invalid("end date must be after the start date")
	}

	return s, e, nil
}

// applyField parses raw and stores it in draft.
func applyField(draft *domain.Raffle, field Field, raw string) error {
	raw = strings.TrimSpace(raw)

	switch field {
	case FieldTitle:
		if err := validation.Validate(raw, validation.Required, validation.RuneLength(1, maxTitleLen)); err != nil {
			return invalid("title: %v", err)
		}
		draft.Title = raw
	case FieldDescription:
		if err := validation.Validate(raw, validation.Required, validation.RuneLength(1, maxDescLen)); err != nil {
			return invalid("description: %v", err)
		}
		draft.Description = raw
	case FieldPrice:
		price, err := ParsePrice(raw)
		if err != nil {
			return err
		}
		draft.PricePerTicket = price
	case FieldMaxTickets:
		n, err := ParseMaxTickets(raw)
		if err != nil {
			return err
		}
		draft.MaxTickets = n
	case FieldPaymentKey:
		if raw == "" {
			return invalid("payment key is empty")
		}
		draft.PaymentKey = raw
	case FieldColor:
		color, err := ParseColor(raw)
		if err != nil {
			return err
		}
		draft.Color = color
	case FieldImageURL:
		u, err := ParseImageURL(raw)
		if err != nil {
			return err
		}
		draft.ImageURL = u
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	return nil
}
