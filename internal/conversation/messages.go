package conversation

import (
	"fmt"
	"strings"

	"shrimpquote_backend/internal/pricing"
)

// pick returns the text for the session language. Spanish is the default
// because most buyers write in Spanish.
func pick(lang, es, en string) string {
	if lang == "en" {
		return en
	}
	return es
}

func greetingMessage(lang string) string {
	return pick(lang,
		"🦐 ¡Hola! Soy el asistente de cotizaciones de camarón.\n\n"+
			"Puedes pedirme precios directamente, por ejemplo:\n"+
			"• \"precio HLSO 16/20\"\n"+
			"• \"HOSO 30/40 con 20% glaseo CFR Houston\"\n\n"+
			"O escribe *menu* para ver las opciones.",
		"🦐 Hello! I am the shrimp quotation assistant.\n\n"+
			"You can ask for prices directly, for example:\n"+
			"• \"price HLSO 16/20\"\n"+
			"• \"HOSO 30/40 with 20% glazing CFR Houston\"\n\n"+
			"Or type *menu* to see the options.")
}

func menuMessage(lang string) string {
	return pick(lang,
		"📋 *Menú principal*\n\n"+
			"1. Cotizar un producto (escribe producto y talla)\n"+
			"2. Ver productos disponibles (escribe *productos*)\n"+
			"3. Ver tallas disponibles (escribe *tallas*)\n"+
			"4. Cambiar idioma (escribe *idioma*)\n"+
			"5. Ayuda (escribe *ayuda*)\n\n"+
			"💡 Ejemplo: \"precio HLSO 16/20 con 10% glaseo\"",
		"📋 *Main menu*\n\n"+
			"1. Quote a product (type product and size)\n"+
			"2. See available products (type *products*)\n"+
			"3. See available sizes (type *sizes*)\n"+
			"4. Change language (type *language*)\n"+
			"5. Help (type *help*)\n\n"+
			"💡 Example: \"price HLSO 16/20 with 10% glazing\"")
}

func helpMessage(lang string) string {
	return pick(lang,
		"ℹ️ Para cotizar necesito como mínimo el producto y la talla.\n\n"+
			"También puedo entender:\n"+
			"• Glaseo: \"con 20% glaseo\" o \"sin glaseo\"\n"+
			"• Flete: \"flete 0.25\" o \"25 cents\"\n"+
			"• Destino: \"CFR Houston\", \"para Miami\"\n"+
			"• Varias tallas en un mismo mensaje\n\n"+
			"Escribe *menu* en cualquier momento para volver al inicio.",
		"ℹ️ To quote I need at least the product and the size.\n\n"+
			"I also understand:\n"+
			"• Glazing: \"with 20% glazing\" or \"no glazing\"\n"+
			"• Freight: \"freight 0.25\" or \"25 cents\"\n"+
			"• Destination: \"CFR Houston\", \"for Miami\"\n"+
			"• Several sizes in one message\n\n"+
			"Type *menu* at any time to start over.")
}

func askProductMessage(lang string, size string) string {
	return pick(lang,
		fmt.Sprintf("🏷️ ¿Qué producto necesitas para la talla %s?\n\n"+
			"Por ejemplo: HOSO, HLSO, P&D IQF, COOKED.\n"+
			"Escribe *productos* para ver la lista completa.", size),
		fmt.Sprintf("🏷️ Which product do you need for size %s?\n\n"+
			"For example: HOSO, HLSO, P&D IQF, COOKED.\n"+
			"Type *products* to see the full list.", size))
}

func askSizeMessage(lang string, product string) string {
	return pick(lang,
		fmt.Sprintf("📏 ¿Qué talla necesitas para %s?\n\n"+
			"Por ejemplo: 16/20, 21/25, 30/40.\n"+
			"Escribe *tallas* para ver las opciones.", product),
		fmt.Sprintf("📏 Which size do you need for %s?\n\n"+
			"For example: 16/20, 21/25, 30/40.\n"+
			"Type *sizes* to see the options.", product))
}

func askProductAndSizeMessage(lang string) string {
	return pick(lang,
		"🦐 Para cotizar indícame el producto y la talla.\n\n"+
			"💡 Ejemplo: \"precio HLSO 16/20\"",
		"🦐 To quote, tell me the product and the size.\n\n"+
			"💡 Example: \"price HLSO 16/20\"")
}

func askGlazingMessage(lang string, product, size string) string {
	return pick(lang,
		fmt.Sprintf("❄️ ¿Qué porcentaje de glaseo necesitas para %s %s?\n\n"+
			"• *10* para 10%% glaseo\n"+
			"• *20* para 20%% glaseo\n"+
			"• *30* para 30%% glaseo\n"+
			"• *0* o \"sin glaseo\" para peso neto\n\n"+
			"O escribe *menu* para volver al inicio.", product, size),
		fmt.Sprintf("❄️ What glazing percentage do you need for %s %s?\n\n"+
			"• *10* for 10%% glazing\n"+
			"• *20* for 20%% glazing\n"+
			"• *30* for 30%% glazing\n"+
			"• *0* or \"no glazing\" for net weight\n\n"+
			"Or type *menu* to start over.", product, size))
}

func askMultiGlazingMessage(lang string, items []string) string {
	var b strings.Builder
	b.WriteString(pick(lang,
		fmt.Sprintf("✅ *Solicitud detectada: %d tallas*\n\n", len(items)),
		fmt.Sprintf("✅ *Request detected: %d sizes*\n\n", len(items))))
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	b.WriteString(pick(lang,
		"\n❄️ ¿Qué porcentaje de glaseo aplico a todas las tallas?\n\n"+
			"• *10*, *20* o *30* para glaseo\n"+
			"• *0* o \"sin glaseo\" para peso neto",
		"\n❄️ What glazing percentage do I apply to all sizes?\n\n"+
			"• *10*, *20* or *30* for glazing\n"+
			"• *0* or \"no glazing\" for net weight"))
	return b.String()
}

func invalidGlazingMessage(lang string) string {
	return pick(lang,
		"🤔 Porcentaje no válido. Responde con un número entre 0 y 100:\n\n"+
			"• *10* para 10% glaseo\n"+
			"• *20* para 20% glaseo\n"+
			"• *30* para 30% glaseo\n\n"+
			"O escribe *menu* para volver al inicio.",
		"🤔 Invalid percentage. Reply with a number between 0 and 100:\n\n"+
			"• *10* for 10% glazing\n"+
			"• *20* for 20% glazing\n"+
			"• *30* for 30% glazing\n\n"+
			"Or type *menu* to start over.")
}

func askFreightMessage(lang string, destination string) string {
	where := destination
	if where == "" {
		where = pick(lang, "destino", "destination")
	}
	return pick(lang,
		fmt.Sprintf("🚢 Para calcular el precio CFR necesito el valor del flete a %s.\n\n"+
			"💡 Ejemplos:\n"+
			"• \"flete 0.20\"\n"+
			"• \"25 cents\"\n\n"+
			"¿Cuál es el valor del flete por kilo? 💰", where),
		fmt.Sprintf("🚢 To compute the CFR price I need the freight to %s.\n\n"+
			"💡 Examples:\n"+
			"• \"freight 0.20\"\n"+
			"• \"25 cents\"\n\n"+
			"What is the freight per kilo? 💰", where))
}

func invalidFreightMessage(lang string) string {
	return pick(lang,
		"🤔 No pude leer el valor del flete. Responde con un número:\n\n"+
			"• \"0.25\"\n"+
			"• \"flete 0.20\"\n"+
			"• \"18 cents\"\n\n"+
			"O escribe *menu* para volver al inicio.",
		"🤔 I could not read the freight value. Reply with a number:\n\n"+
			"• \"0.25\"\n"+
			"• \"freight 0.20\"\n"+
			"• \"18 cents\"\n\n"+
			"Or type *menu* to start over.")
}

func clarificationMessage(lang string, wholeSizes, tailSizes []string) string {
	var b strings.Builder
	if lang == "en" {
		b.WriteString("🦐 *Request detected:*\n\n")
		if len(wholeSizes) > 0 {
			b.WriteString("📏 *Whole:* " + strings.Join(wholeSizes, ", ") + "\n")
		}
		if len(tailSizes) > 0 {
			b.WriteString("📏 *Tails:* " + strings.Join(tailSizes, ", ") + "\n")
		}
		b.WriteString("\n💡 *Which products do you need?*\n\n")
		b.WriteString("*For whole:*\n• HOSO (head-on)\n• HLSO (headless)\n\n")
		b.WriteString("*For tails:*\n• COOKED (cooked tails)\n• P&D IQF (raw peeled tails)\n\n")
		b.WriteString("📝 Example: \"HOSO for whole and COOKED for tails\"")
		return b.String()
	}
	b.WriteString("🦐 *Solicitud detectada:*\n\n")
	if len(wholeSizes) > 0 {
		b.WriteString("📏 *Entero:* " + strings.Join(wholeSizes, ", ") + "\n")
	}
	if len(tailSizes) > 0 {
		b.WriteString("📏 *Colas:* " + strings.Join(tailSizes, ", ") + "\n")
	}
	b.WriteString("\n💡 *¿Qué productos necesitas?*\n\n")
	b.WriteString("*Para entero:*\n• HOSO (con cabeza)\n• HLSO (sin cabeza)\n\n")
	b.WriteString("*Para colas:*\n• COOKED (colas cocidas)\n• P&D IQF (colas peladas crudas)\n\n")
	b.WriteString("📝 Ejemplo: \"HOSO para entero y COOKED para colas\"")
	return b.String()
}

func invalidClarificationMessage(lang string) string {
	return pick(lang,
		"🤔 No pude identificar los productos. Especifica un producto por grupo:\n\n"+
			"📝 Ejemplo: \"HOSO para entero y COOKED para colas\"",
		"🤔 I could not identify the products. Name one product per group:\n\n"+
			"📝 Example: \"HOSO for whole and COOKED for tails\"")
}

func confirmPromptMessage(lang string) string {
	return pick(lang,
		"✅ *Para generar el PDF:* escribe \"confirmar\"",
		"✅ *To generate the PDF:* type \"confirm\"")
}

func languagePromptMessage() string {
	// The buyer has not picked a language yet, so this one is bilingual.
	return "🌐 ¿En qué idioma deseas la proforma? / In which language do you want the proforma?\n\n" +
		"1. Español 🇪🇨\n" +
		"2. English 🇺🇸"
}

func invalidLanguageMessage() string {
	return "🤔 Responde *1* para Español o *2* para English.\n" +
		"Reply *1* for Spanish or *2* for English."
}

func languageSavedMessage(lang string) string {
	return pick(lang,
		"✅ Idioma guardado: Español. ¿En qué puedo ayudarte?",
		"✅ Language saved: English. How can I help you?")
}

func proformaOnItsWayMessage(lang string) string {
	return pick(lang,
		"📄 ¡Perfecto! Estoy generando tu proforma, te la envío en un momento. 🦐",
		"📄 Great! I am generating your proforma, it will arrive shortly. 🦐")
}

func documentFallbackMessage(lang, link string) string {
	if link == "" {
		return pick(lang,
			"⚠️ No pude generar el documento, pero tu cotización sigue arriba. Escribe *pdf* para intentarlo de nuevo.",
			"⚠️ I could not generate the document, but your quote is above. Type *pdf* to try again.")
	}
	return pick(lang,
		"⚠️ No pude enviarte el documento directamente. Puedes descargarlo aquí:\n"+link,
		"⚠️ I could not send the document directly. You can download it here:\n"+link)
}

func noQuoteYetMessage(lang string) string {
	return pick(lang,
		"🤔 Aún no tengo una cotización tuya en esta conversación.\n\n"+
			"💡 Pídeme un precio primero, por ejemplo: \"precio HLSO 16/20\"",
		"🤔 I do not have a quote from you in this conversation yet.\n\n"+
			"💡 Ask me for a price first, for example: \"price HLSO 16/20\"")
}

func askNewFreightMessage(lang string) string {
	return pick(lang,
		"🚢 ¿Cuál es el nuevo valor del flete? Por ejemplo: \"flete 0.30\"",
		"🚢 What is the new freight value? For example: \"freight 0.30\"")
}

func sessionResetMessage(lang string) string {
	return pick(lang,
		"🔄 Listo, empezamos de nuevo. Escribe *menu* para ver las opciones.",
		"🔄 Done, starting over. Type *menu* to see the options.")
}

func genericErrorMessage(lang string) string {
	return pick(lang,
		"❌ Algo salió mal procesando tu solicitud. Por favor intenta nuevamente o escribe *menu* para volver al inicio.",
		"❌ Something went wrong processing your request. Please try again or type *menu* to start over.")
}

func sizeNotFoundMessage(lang, product, size string, available []string) string {
	list := strings.Join(available, ", ")
	if list == "" {
		return pick(lang,
			fmt.Sprintf("😕 No tengo precio para %s %s en este momento.", product, size),
			fmt.Sprintf("😕 I have no price for %s %s at the moment.", product, size))
	}
	return pick(lang,
		fmt.Sprintf("😕 No tengo precio para %s %s.\n\n📏 Tallas disponibles para %s: %s", product, size, product, list),
		fmt.Sprintf("😕 I have no price for %s %s.\n\n📏 Available sizes for %s: %s", product, size, product, list))
}

func productListMessage(lang string, products []string) string {
	var b strings.Builder
	b.WriteString(pick(lang, "🏷️ *Productos disponibles:*\n\n", "🏷️ *Available products:*\n\n"))
	for i, p := range products {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	b.WriteString(pick(lang,
		fmt.Sprintf("\n📝 Responde con el número de tu opción (1-%d)", len(products)),
		fmt.Sprintf("\n📝 Reply with the number of your option (1-%d)", len(products))))
	return b.String()
}

func sizeListMessage(lang, product string, sizes []string) string {
	var b strings.Builder
	b.WriteString(pick(lang,
		fmt.Sprintf("🦐 *Tallas disponibles para %s:*\n\n", product),
		fmt.Sprintf("🦐 *Available sizes for %s:*\n\n", product)))
	for i, s := range sizes {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString(pick(lang,
		fmt.Sprintf("\n📝 Responde con el número de tu opción (1-%d)\n💡 O escribe directamente: \"precio %s 16/20\"", len(sizes), product),
		fmt.Sprintf("\n📝 Reply with the number of your option (1-%d)\n💡 Or type directly: \"price %s 16/20\"", len(sizes), product)))
	return b.String()
}

func invalidSelectionMessage(lang string, max int) string {
	return pick(lang,
		fmt.Sprintf("🤔 Opción no válida. Responde con un número del 1 al %d, o escribe *menu*.", max),
		fmt.Sprintf("🤔 Invalid option. Reply with a number from 1 to %d, or type *menu*.", max))
}

func conversationalFallbackMessage(lang string) string {
	return pick(lang,
		"🤔 No estoy seguro de haber entendido. Puedo cotizarte camarón si me indicas producto y talla.\n\n"+
			"💡 Ejemplo: \"precio HLSO 16/20\"\n"+
			"📋 O escribe *menu* para ver las opciones.",
		"🤔 I am not sure I understood. I can quote shrimp if you tell me the product and size.\n\n"+
			"💡 Example: \"price HLSO 16/20\"\n"+
			"📋 Or type *menu* to see the options.")
}

func escalatedMessage(lang string) string {
	return pick(lang,
		"🧑‍💼 He pasado tu mensaje a nuestro equipo comercial; te contactarán pronto.\n\n"+
			"Mientras tanto puedo cotizarte si me indicas producto y talla.",
		"🧑‍💼 I have passed your message to our sales team; they will contact you soon.\n\n"+
			"Meanwhile I can quote for you if you tell me the product and size.")
}

// unitSuffix is the per-unit label for a quote's published series.
func unitSuffix(q pricing.Quote) string {
	if q.UsesPounds {
		return "lb"
	}
	return "kg"
}

func glazingPercent(q pricing.Quote) int {
	return int(pricing.Round2(1-q.GlazingFactor) * 100)
}

// formatQuote renders one priced quote as chat text.
func formatQuote(lang string, q pricing.Quote, destination, quantity string) string {
	series := q.Published()
	unit := unitSuffix(q)

	var b strings.Builder
	fmt.Fprintf(&b, "🦐 *%s %s*\n\n", q.Product, q.Size)
	if quantity != "" {
		fmt.Fprintf(&b, pick(lang, "📦 Cantidad: %s\n", "📦 Quantity: %s\n"), quantity)
	}
	fmt.Fprintf(&b, pick(lang, "❄️ Glaseo: %d%%\n", "❄️ Glazing: %d%%\n"), glazingPercent(q))
	fmt.Fprintf(&b, "💰 FOB: $%.2f/%s\n", series.FOBWithGlazing, unit)

	if q.FreightIncluded {
		fmt.Fprintf(&b, pick(lang, "🚢 Flete: $%.2f/%s\n", "🚢 Freight: $%.2f/%s\n"), q.PublishedFreight(), unit)
		label := string(q.Term)
		if destination != "" {
			fmt.Fprintf(&b, "💵 *%s %s: $%.2f/%s*\n", label, destination, series.Final, unit)
		} else {
			fmt.Fprintf(&b, "💵 *%s: $%.2f/%s*\n", label, series.Final, unit)
		}
	} else {
		fmt.Fprintf(&b, pick(lang,
			"💵 *Precio final FOB: $%.2f/%s*\n",
			"💵 *Final FOB price: $%.2f/%s*\n"), series.Final, unit)
	}
	return b.String()
}

// formatQuotes renders a consolidated multi-item summary, appending one
// line per failed item.
func formatQuotes(lang string, quotes []pricing.Quote, destination string, failures []string) string {
	var b strings.Builder
	b.WriteString(pick(lang,
		fmt.Sprintf("✅ *Cotización consolidada: %d productos*\n\n", len(quotes)),
		fmt.Sprintf("✅ *Consolidated quote: %d products*\n\n", len(quotes))))
	for _, q := range quotes {
		series := q.Published()
		fmt.Fprintf(&b, "• %s %s → $%.2f/%s\n", q.Product, q.Size, series.Final, unitSuffix(q))
	}
	if len(quotes) > 0 {
		q := quotes[0]
		fmt.Fprintf(&b, pick(lang, "\n❄️ Glaseo: %d%%\n", "\n❄️ Glazing: %d%%\n"), glazingPercent(q))
		if q.FreightIncluded {
			fmt.Fprintf(&b, pick(lang, "🚢 Flete: $%.2f/%s\n", "🚢 Freight: $%.2f/%s\n"), q.PublishedFreight(), unitSuffix(q))
		}
		if destination != "" {
			fmt.Fprintf(&b, pick(lang, "🌍 Destino: %s\n", "🌍 Destination: %s\n"), destination)
		}
	}
	for _, f := range failures {
		b.WriteString("⚠️ " + f + "\n")
	}
	return b.String()
}
