// README: Friendly message catalogue keyed by language.
package apperr

import "strings"

var catalogue = map[string]map[string]string{
	"en": {
		"internal":               "Something went wrong on our side. Please try again later.",
		"invalid_request":        "The request could not be understood.",
		"invalid_event_type":     "The event type does not match this operation.",
		"missing_plate":          "License plate is required.",
		"missing_entry_time":     "Entry time is required.",
		"missing_exit_time":      "Exit time is required.",
		"invalid_coordinates":    "Latitude or longitude is out of range.",
		"plate_conflict":         "This vehicle is already inside the garage.",
		"duplicate_event":        "This event was already received.",
		"spot_occupied":          "This spot is already taken.",
		"lot_not_found":          "No garage sector exists at this location.",
		"entry_not_found":        "No entry was recorded for this vehicle.",
		"parked_not_found":       "No parking record was found for this vehicle.",
		"revenue_not_found":      "Revenue for today has not been opened for this sector.",
		"invalid_date":           "The date must use the YYYY-MM-DD format.",
		"invalid_duration_limit": "The sector has an invalid billing period.",
	},
	"pt": {
		"internal":               "Ocorreu um erro interno. Tente novamente mais tarde.",
		"invalid_request":        "A requisição não pôde ser interpretada.",
		"invalid_event_type":     "O tipo do evento não corresponde a esta operação.",
		"missing_plate":          "A placa do veículo é obrigatória.",
		"missing_entry_time":     "O horário de entrada é obrigatório.",
		"missing_exit_time":      "O horário de saída é obrigatório.",
		"invalid_coordinates":    "Latitude ou longitude fora do intervalo.",
		"plate_conflict":         "Este veículo já está dentro da garagem.",
		"duplicate_event":        "Este evento já foi recebido.",
		"spot_occupied":          "Esta vaga já está ocupada.",
		"lot_not_found":          "Nenhum setor de garagem existe nesta localização.",
		"entry_not_found":        "Nenhuma entrada foi registrada para este veículo.",
		"parked_not_found":       "Nenhum registro de estacionamento foi encontrado para este veículo.",
		"revenue_not_found":      "A receita de hoje ainda não foi aberta para este setor.",
		"invalid_date":           "A data deve usar o formato AAAA-MM-DD.",
		"invalid_duration_limit": "O setor possui um período de cobrança inválido.",
	},
}

// Friendly resolves key for an Accept-Language header value, defaulting to en.
func Friendly(key, acceptLanguage string) string {
	lang := "en"
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(acceptLanguage)), "pt") {
		lang = "pt"
	}
	if msg, ok := catalogue[lang][key]; ok {
		return msg
	}
	return catalogue["en"]["internal"]
}
