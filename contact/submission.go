package contact

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// MaxFieldRunes limita cada campo de texto depois do trim.
	MaxFieldRunes = 4000
	// DefaultSource é usado quando o formulário não informa a origem.
	DefaultSource = "portfolio-contact-form"
)

// Submission é o formulário já limpo. Vive só durante a request.
type Submission struct {
	Name           string
	Email          string
	Message        string
	Source         string
	TurnstileToken string
	Website        string
	DwellMs        float64
}

// decodePayload aceita apenas um objeto JSON.
func decodePayload(body []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("payload is %T, want object", v)
	}
	return obj, nil
}

// shapeSubmission converte o payload cru: texto não-string vira "", tudo é
// aparado e truncado; dwellMs vira número (NaN quando não dá para converter).
func shapeSubmission(raw map[string]any, defaultSource string) Submission {
	source := defaultSource
	if truthy(raw["source"]) {
		source = cleanText(raw["source"])
	}
	return Submission{
		Name:           cleanText(raw["name"]),
		Email:          cleanText(raw["email"]),
		Message:        cleanText(raw["message"]),
		Source:         source,
		TurnstileToken: cleanText(raw["turnstileToken"]),
		Website:        cleanText(raw["website"]),
		DwellMs:        toNumber(raw["dwellMs"]),
	}
}

func cleanText(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxFieldRunes {
		s = string([]rune(s)[:MaxFieldRunes])
	}
	return s
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	default:
		return true
	}
}

func toNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// notificationText monta a mensagem enviada ao chat.
func notificationText(s Submission) string {
	return strings.Join([]string{
		"New portfolio transmission",
		"",
		"Name: " + s.Name,
		"Email: " + s.Email,
		"Source: " + s.Source,
		"",
		"Message:",
		s.Message,
	}, "\n")
}
