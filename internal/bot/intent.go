package bot

import (
	"strconv"
	"strings"
)

// Intent is the recognized meaning of a normalized message. Classification is
// keyword containment, matching how patients actually type ("quiero un turno
// para mañana" carries "turno").
type Intent int

const (
	IntentNone Intent = iota
	IntentHelp
	IntentStart
	IntentCancel
	IntentAppointment
	IntentOverbooking
	IntentQuery
	IntentAffirmative
	IntentNegative
)

var (
	helpKeywords   = []string{"ayuda", "help", "menu", "opciones"}
	startKeywords  = []string{"hola", "inicio", "empezar", "start", "comenzar"}
	cancelKeywords = []string{"cancelar", "cancel", "salir", "exit", "stop"}

	appointmentKeywords = []string{"cita", "turno", "consulta", "reservar", "appointment"}
	overbookingKeywords = []string{"sobreturno", "sobreturnos", "urgente", "emergencia"}
	queryKeywords       = []string{"ver", "consultar", "mostrar", "listar", "mis turnos", "mis citas"}

	affirmativeKeywords = []string{"si", "yes", "confirmar"}
	negativeKeywords    = []string{"no", "cancelar"}
)

// ClassifyGlobal recognizes the commands that work from any step. Help wins
// over start so "ayuda para empezar" shows the help text.
func ClassifyGlobal(text string) Intent {
	switch {
	case containsAny(text, helpKeywords):
		return IntentHelp
	case containsAny(text, startKeywords):
		return IntentStart
	case containsAny(text, cancelKeywords):
		return IntentCancel
	}
	return IntentNone
}

// ClassifyService recognizes which of the three services the user is asking
// for. Appointment keywords are checked first; "consultar" therefore lands on
// appointment via "consulta", matching the historical dispatch order.
func ClassifyService(text string) Intent {
	switch {
	case containsAny(text, appointmentKeywords):
		return IntentAppointment
	case containsAny(text, overbookingKeywords):
		return IntentOverbooking
	case containsAny(text, queryKeywords):
		return IntentQuery
	}
	return IntentNone
}

// ClassifyMenuChoice maps a numbered menu reply ("1", "2", "3") or service
// words to a service intent.
func ClassifyMenuChoice(text string) Intent {
	switch {
	case strings.Contains(text, "1"), strings.Contains(text, "cita"), strings.Contains(text, "turno"):
		return IntentAppointment
	case strings.Contains(text, "2"), strings.Contains(text, "sobreturno"):
		return IntentOverbooking
	case strings.Contains(text, "3"), strings.Contains(text, "consultar"):
		return IntentQuery
	}
	return IntentNone
}

// ClassifyConfirmation recognizes yes/no at the confirmation step. Negative is
// checked first so "no confirmar" cancels instead of booking.
func ClassifyConfirmation(text string) Intent {
	switch {
	case containsAny(text, negativeKeywords):
		return IntentNegative
	case containsAny(text, affirmativeKeywords):
		return IntentAffirmative
	}
	return IntentNone
}

// ParseSelection extracts a leading integer from the message, the number the
// user echoes back when picking from a list. "2 por favor" parses as 2.
func ParseSelection(text string) (int, bool) {
	text = strings.TrimSpace(text)
	end := 0
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(text[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
