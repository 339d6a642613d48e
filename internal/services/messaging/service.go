package messaging

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/OnekiDevs/oneki/internal/services/counting"
)

// service implements the Service interface
type service struct {
	defaultLanguage Language

	// Random number generator for selecting message variants
	rand *rand.Rand
}

// NewService creates a new messaging service
func NewService(cfg *Config) (*service, error) {
	defaultLanguage := LanguageEnglish
	if cfg != nil && cfg.DefaultLanguage != "" {
		defaultLanguage = cfg.DefaultLanguage
	}

	source := rand.NewSource(time.Now().UnixNano())

	return &service{
		defaultLanguage: defaultLanguage,
		rand:            rand.New(source),
	}, nil
}

func (s *service) language(requested Language) Language {
	if requested == "" {
		return s.defaultLanguage
	}
	return requested
}

// GetViolationMessage returns the shaming message for a sequence violation
func (s *service) GetViolationMessage(ctx context.Context, input *GetViolationMessageInput) (*GetViolationMessageOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	table := tables[s.language(input.Language)]

	var variants []string
	switch input.Outcome {
	case counting.OutcomeRejectedRepeat:
		variants = table.countTwice
	case counting.OutcomeRejectedWrong:
		variants = table.wrongNumber
	default:
		return nil, fmt.Errorf("no violation message for outcome %q", input.Outcome)
	}

	template := variants[s.rand.Intn(len(variants))]

	return &GetViolationMessageOutput{
		Message: fmt.Sprintf(template, input.Mention),
	}, nil
}

// GetConfirmCopy returns the strings for the disable confirmation flow
func (s *service) GetConfirmCopy(ctx context.Context, input *GetConfirmCopyInput) (*GetConfirmCopyOutput, error) {
	if input == nil {
		input = &GetConfirmCopyInput{}
	}

	table := tables[s.language(input.Language)]
	output := table.confirm
	return &output, nil
}

// GetStatsCopy returns the static strings of the stats embeds
func (s *service) GetStatsCopy(ctx context.Context, input *GetStatsCopyInput) (*GetStatsCopyOutput, error) {
	if input == nil {
		input = &GetStatsCopyInput{}
	}

	table := tables[s.language(input.Language)]
	output := table.stats
	return &output, nil
}

// translationTable holds every localized string for one language
type translationTable struct {
	countTwice  []string
	wrongNumber []string
	confirm     GetConfirmCopyOutput
	stats       GetStatsCopyOutput
}

var tables = map[Language]translationTable{
	LanguageEnglish: {
		countTwice: []string{
			"%s you can't count twice in a row! The count is back to zero 😤",
			"%s wait your turn, you just counted! Back to zero it goes 😤",
		},
		wrongNumber: []string{
			"%s that's not the right number! The count is back to zero 😤",
			"%s can you even count? That was wrong, back to zero 😤",
		},
		confirm: GetConfirmCopyOutput{
			Prompt:    "Are you sure you want to disable counting? The count, record and stats of this server will be deleted.",
			Confirmed: "Counting has been disabled and its data deleted.",
			Cancelled: "Alright, counting stays on.",
			TimedOut:  "No answer, I'll leave counting as it is.",
		},
		stats: GetStatsCopyOutput{
			GlobalTitle:         "Global counting stats",
			GlobalEmpty:         "Nobody is counting anywhere yet :(",
			GlobalEndOfPages:    "There are no more servers to explore :(",
			GlobalPageFooter:    "Page %d",
			ServerTitle:         "Counting stats of this server",
			ServerRecordField:   "Record",
			ServerRecordWhen:    "Reached",
			ServerCurrentField:  "Current count",
			ServerHolderField:   "Last counted by",
			ServerNotConfigured: "Counting is not set up in this server.",
			UserGlobalField:     "Global",
			UserGuildField:      "This server",
			UserNoStats:         "That member has not counted yet.",
		},
	},
	LanguageSpanish: {
		countTwice: []string{
			"%s no puedes contar dos veces seguidas! El conteo vuelve a cero 😤",
			"%s espera tu turno, acabas de contar! Vuelta a cero 😤",
		},
		wrongNumber: []string{
			"%s ese no es el número correcto! El conteo vuelve a cero 😤",
			"%s acaso sabes contar? Número incorrecto, vuelta a cero 😤",
		},
		confirm: GetConfirmCopyOutput{
			Prompt:    "¿Seguro que quieres desactivar el conteo? Se borrarán el conteo, el récord y las estadísticas de este servidor.",
			Confirmed: "El conteo fue desactivado y sus datos borrados.",
			Cancelled: "De acuerdo, el conteo sigue activo.",
			TimedOut:  "Sin respuesta, dejo el conteo como está.",
		},
		stats: GetStatsCopyOutput{
			GlobalTitle:         "Estadísticas globales de conteo",
			GlobalEmpty:         "Nadie está contando en ningún lado todavía :(",
			GlobalEndOfPages:    "Ya no hay mas servidores por explorar :(",
			GlobalPageFooter:    "Página %d",
			ServerTitle:         "Estadísticas de conteo del servidor",
			ServerRecordField:   "Récord",
			ServerRecordWhen:    "Alcanzado",
			ServerCurrentField:  "Conteo actual",
			ServerHolderField:   "Último en contar",
			ServerNotConfigured: "El conteo no está configurado en este servidor.",
			UserGlobalField:     "Global",
			UserGuildField:      "Este servidor",
			UserNoStats:         "Ese miembro todavía no ha contado.",
		},
	},
}
