package models

import (
	"regexp"
	"strings"
)

// del primer "(" al último ")"
var modificadoresRegex = regexp.MustCompile(`\((.*)\)`)

// ParseModificadores extrae los tokens entre paréntesis de un nombre renderizado.
// "Boneless (BBQ, Extra Ranch)" -> ["BBQ", "Extra Ranch"]
func ParseModificadores(nombre string) []string {
	match := modificadoresRegex.FindStringSubmatch(nombre)
	if len(match) < 2 {
		return nil
	}

	var tokens []string
	for _, parte := range strings.Split(match[1], ",") {
		if token := strings.TrimSpace(parte); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// NormalizarToken clave de búsqueda de un modificador
func NormalizarToken(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}
