package main

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/charmbracelet/lipgloss"
)

// ANSI color constants for one-shot command output (no lipgloss outside the
// greeting).
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiItalic = "\033[3m"
	ansiRed    = "\033[38;2;192;57;43m"
	ansiGreen  = "\033[38;2;34;160;75m"
	ansiGold   = "\033[38;2;218;165;32m"
	ansiSlate  = "\033[38;2;136;144;160m"
)

var greetings = [...]string{
	"Tontut odottavat jo pajassa. Asetukset vain puuttuvat.",
	"Poro on valjastettu, mutta reittiä ei ole vielä merkitty.",
	"Joulupukki tarkisti listan kahdesti. Asetustiedostoa ei löytynyt kummallakaan kerralla.",
	"Piparit ovat uunissa. Kioski odottaa asetuksiaan.",
	"Revontulet loistavat, kunhan kioski tietää minne todistukset tallennetaan.",
}

// printLogo prints the spaced wordmark in alternating red and green.
func printLogo(w io.Writer) {
	letters := "JOULUKIOSKI"
	colors := [2]string{ansiRed, ansiGreen}
	fmt.Fprint(w, "\n  ")
	for i, ch := range letters {
		fmt.Fprintf(w, "%s%s%c%s", colors[i%2], ansiBold, ch, ansiReset)
		if i < len(letters)-1 {
			fmt.Fprint(w, " ")
		}
	}
	fmt.Fprintln(w)
}

// printGreeting is shown instead of the kiosk when no settings file exists.
func printGreeting(w io.Writer, path string) {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#daa520")).
		Bold(true).
		Render("Eduro Pikkujoulukioski")
	quote := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render(greetings[rand.Intn(len(greetings))])

	printLogo(w)
	fmt.Fprintf(w, "\n  %s\n\n  %s\n\n", title, quote)
	fmt.Fprintf(w, "  Asetustiedostoa ei löytynyt: %s%s%s\n", ansiSlate, path, ansiReset)
	fmt.Fprintf(w, "  Luo se komennolla %sjoulukioski config init%s\n\n", ansiBold, ansiReset)
}

func printRenderSuccess(w io.Writer, path string, fallback bool) {
	printLogo(w)
	fmt.Fprintf(w, "\n  %s%s✦%s Todistus tallennettu\n", ansiGold, ansiBold, ansiReset)
	fmt.Fprintf(w, "  %s%s%s\n", ansiGreen, path, ansiReset)
	if fallback {
		fmt.Fprintf(w, "  %s%svaratulos: personointipalvelua ei käytetty%s\n", ansiSlate, ansiItalic, ansiReset)
	}
	fmt.Fprintln(w)
}

func printBadgeSuccess(w io.Writer, email, templateID string) {
	printLogo(w)
	fmt.Fprintf(w, "\n  %s%s✦%s Osaamismerkki lähetetty: %s%s%s\n", ansiGold, ansiBold, ansiReset, ansiGreen, email, ansiReset)
	fmt.Fprintf(w, "  %spohja %s%s\n\n", ansiSlate, templateID, ansiReset)
}
