package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Símbolos aceptados por la política de contraseñas.
const Symbols = "!?*.-"

// CheckStrength devuelve los incumplimientos de la política (vacío si la contraseña es válida):
// entre 8 y 16 caracteres, al menos una mayúscula, una minúscula, un número y un símbolo.
func CheckStrength(pw string) []string {
	var problems []string
	n := utf8.RuneCountInString(pw)
	if n < 8 {
		problems = append(problems, "La contraseña debe tener al menos 8 caracteres.")
	}
	if n > 16 {
		problems = append(problems, "La longitud de la contraseña no puede exceder 16 caracteres.")
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		problems = append(problems, "La contraseña debe contener al menos una letra mayúscula.")
	}
	if !lower {
		problems = append(problems, "La contraseña debe contener al menos una letra minúscula.")
	}
	if !digit {
		problems = append(problems, "La contraseña debe contener al menos un número.")
	}
	if !strings.ContainsAny(pw, Symbols) {
		problems = append(problems, "La contraseña debe contener al menos un símbolo (!?*.-).")
	}
	return problems
}
