package bot

import (
	"fmt"
	"strings"

	"github.com/citamedica/evolution-bridge/internal/schedule"
)

func welcomeMessage(botName string) string {
	return fmt.Sprintf("🏥 *%s*\n\n", botName) +
		"¡Hola! Soy tu asistente virtual para gestionar citas médicas.\n\n" +
		"¿En qué puedo ayudarte hoy?\n\n" +
		"1️⃣ Agendar una cita médica\n" +
		"2️⃣ Solicitar un sobreturno\n" +
		"3️⃣ Consultar mis citas\n\n" +
		"Escribe el número de la opción que necesites o describe lo que buscas."
}

func helpMessage() string {
	return "📋 *AYUDA - COMANDOS DISPONIBLES*\n\n" +
		"🏥 *Para agendar citas:*\n" +
		"• \"cita\" o \"turno\" - Nueva cita médica\n" +
		"• \"sobreturno\" - Turno urgente\n\n" +
		"🔍 *Para consultas:*\n" +
		"• \"ver citas\" - Consultar mis turnos\n" +
		"• \"ayuda\" - Mostrar esta ayuda\n\n" +
		"⚙️ *Comandos generales:*\n" +
		"• \"hola\" - Volver al menú principal\n" +
		"• \"cancelar\" - Cancelar operación actual\n\n" +
		"*Horarios de atención:*\n" +
		"🌅 Mañana: 10:00 - 12:00\n" +
		"🌆 Tarde: 17:00 - 20:00\n\n" +
		"¿En qué puedo ayudarte?"
}

const (
	msgCancelled = "Conversación cancelada. Si necesitas ayuda, escribe \"ayuda\" o \"hola\" para comenzar de nuevo."

	msgAskNameAppointment = "📅 *SOLICITUD DE CITA MÉDICA*\n\nPerfecto, voy a ayudarte a agendar una cita.\n\nPor favor, indícame tu *NOMBRE COMPLETO*:"
	msgAskNameOverbooking = "🔄 *SOLICITUD DE SOBRETURNO*\n\nEntiendo que necesitas un sobreturno. Estos son turnos especiales fuera del horario normal.\n\nPor favor, indícame tu *NOMBRE COMPLETO*:"
	msgAskNameQuery       = "🔍 *CONSULTAR CITAS*\n\nPara consultar tus citas, por favor proporciona tu *NOMBRE COMPLETO* tal como fue registrado:"
	msgAskNameShort       = "📅 *CITA MÉDICA*\n\nPor favor, indícame tu *NOMBRE COMPLETO*:"
	msgAskNameShortOver   = "🔄 *SOBRETURNO*\n\nPor favor, indícame tu *NOMBRE COMPLETO*:"
	msgAskNameShortQuery  = "🔍 *CONSULTAR CITAS*\n\nPor favor, proporciona tu *NOMBRE COMPLETO*:"

	msgInvalidMenuChoice = "Por favor, selecciona una opción válida:\n\n1️⃣ Agendar cita\n2️⃣ Solicitar sobreturno\n3️⃣ Consultar mis citas\n\nEscribe el número o la opción que necesites."
	msgInvalidName       = "Por favor, proporciona un nombre válido (mínimo 3 caracteres):"
	msgTooManyAttempts   = "Demasiados intentos fallidos. Por favor, comienza de nuevo escribiendo \"hola\"."
	msgInvalidSocialWork = "Por favor, proporciona una obra social válida:"

	msgConfirmReprompt = "Por favor, escribe \"SI\" para confirmar o \"NO\" para cancelar:"
	msgBookingDropped  = "Cita cancelada. Si necesitas ayuda, escribe \"hola\" para comenzar de nuevo."

	msgNoOverbookingsToday = "No hay sobreturnos disponibles para hoy. Los sobreturnos solo están disponibles el mismo día."
	msgDatesFetchError     = "Error obteniendo fechas disponibles. Por favor, intenta más tarde."
	msgSlotsFetchError     = "Error obteniendo horarios disponibles. Por favor, intenta más tarde."
	msgOverbookingsError   = "Error obteniendo sobreturnos disponibles. Por favor, intenta más tarde."
	msgSlotTaken           = "Ese horario acaba de ocuparse y ya no está disponible. Por favor, escribe \"hola\" para elegir otro."

	msgQueryNotImplemented = "Esta funcionalidad está en desarrollo. Por favor, contacta directamente con la clínica para consultar tus citas."
)

func greetName(name string) string {
	return fmt.Sprintf("Hola %s 👋\n\nAhora necesito saber tu *OBRA SOCIAL*.\n\nEjemplos: OSDE, Swiss Medical, PAMI, Particular, etc.", name)
}

func dateMenu(dates []string) string {
	var b strings.Builder
	b.WriteString("📅 *FECHAS DISPONIBLES*\n\nSelecciona la fecha que prefieres:\n\n")
	for i, d := range dates {
		fmt.Fprintf(&b, "%d️⃣ %s\n", i+1, schedule.FormatSpanish(d))
	}
	b.WriteString("\nEscribe el número de la fecha que deseas:")
	return b.String()
}

func timeMenu(date string, slots []schedule.Slot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ *HORARIOS DISPONIBLES*\n*%s*\n\n", schedule.FormatSpanish(date))

	// Partition guarantees morning slots precede afternoon slots.
	i := 0
	if i < len(slots) && slots[i].Bucket == schedule.BucketMorning {
		b.WriteString("*🌅 MAÑANA:*\n")
		for ; i < len(slots) && slots[i].Bucket == schedule.BucketMorning; i++ {
			fmt.Fprintf(&b, "%d️⃣ %s\n", i+1, slots[i].Time)
		}
	}
	if i < len(slots) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("*🌆 TARDE:*\n")
		for ; i < len(slots); i++ {
			fmt.Fprintf(&b, "%d️⃣ %s\n", i+1, slots[i].Time)
		}
	}

	b.WriteString("\nEscribe el número del horario que prefieres:")
	return b.String()
}

func noSlotsForDate(date string) string {
	return fmt.Sprintf("No hay horarios disponibles para %s.\n\nPor favor, selecciona otra fecha:", schedule.FormatSpanish(date))
}

func overbookingMenu(entries []Overbooking) string {
	var b strings.Builder
	b.WriteString("🔄 *SOBRETURNOS DISPONIBLES PARA HOY*\n\n")
	for i, ob := range entries {
		fmt.Fprintf(&b, "%d️⃣ %s - Turno %d (%s)\n", i+1, ob.Time, ob.Number, ob.Period)
	}
	b.WriteString("\n*Nota:* Los sobreturnos son turnos especiales fuera del horario normal.\n\nEscribe el número del sobreturno que deseas:")
	return b.String()
}

func invalidSelection(max int) string {
	return fmt.Sprintf("Por favor, selecciona un número válido (1-%d):", max)
}

func confirmationSummary(sess *Session) string {
	d := sess.Draft
	overbooking := sess.Service == ServiceOverbooking

	kind := "CITA"
	if overbooking {
		kind = "SOBRETURNO"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ *CONFIRMACIÓN DE %s*\n\n", kind)
	fmt.Fprintf(&b, "👤 *Paciente:* %s\n", d.ClientName)
	fmt.Fprintf(&b, "🏥 *Obra Social:* %s\n", d.SocialWork)
	fmt.Fprintf(&b, "📅 *Fecha:* %s\n", schedule.FormatSpanish(d.SelectedDate))
	fmt.Fprintf(&b, "⏰ *Horario:* %s\n", d.SelectedTime)
	if overbooking && d.SelectedOverbooking != nil {
		fmt.Fprintf(&b, "🔄 *Sobreturno:* Nº %d (%s)\n", d.SelectedOverbooking.Number, d.SelectedOverbooking.Period)
	}
	b.WriteString("\n¿Confirmas esta cita?\n\n✅ Escribe \"SI\" para confirmar\n❌ Escribe \"NO\" para cancelar")
	return b.String()
}

func appointmentConfirmed(r Reservation) string {
	return "🎉 *CITA CONFIRMADA*\n\n" +
		"✅ Tu cita médica ha sido agendada exitosamente:\n\n" +
		fmt.Sprintf("👤 *Paciente:* %s\n", r.ClientName) +
		fmt.Sprintf("📅 *Fecha:* %s\n", schedule.FormatSpanish(r.Date)) +
		fmt.Sprintf("⏰ *Horario:* %s\n\n", r.Time) +
		"*Recordatorio:* Llega 10 minutos antes de tu cita.\n\n" +
		"¡Te esperamos! 🏥"
}

func overbookingConfirmed(r Reservation) string {
	return "🎉 *SOBRETURNO CONFIRMADO*\n\n" +
		"✅ Tu sobreturno ha sido agendado exitosamente:\n\n" +
		fmt.Sprintf("👤 *Paciente:* %s\n", r.ClientName) +
		fmt.Sprintf("📅 *Fecha:* %s\n", schedule.FormatSpanish(r.Date)) +
		fmt.Sprintf("⏰ *Horario:* %s\n", r.Time) +
		fmt.Sprintf("🔄 *Sobreturno:* Nº %d\n\n", r.OverbookingNumber) +
		"*Importante:* Los sobreturnos son atendidos según orden de llegada después de las citas regulares.\n\n" +
		"¡Te esperamos! 🏥"
}

func bookingFailed(detail string) string {
	return fmt.Sprintf("❌ Error al agendar la cita: %s\n\nPor favor, intenta de nuevo escribiendo \"hola\".", detail)
}
