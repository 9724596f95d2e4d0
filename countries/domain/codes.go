package domain

import "strings"

// DefaultAlpha3Aliases é a tabela estática alpha-3 -> alpha-2 conhecida.
func DefaultAlpha3Aliases() map[string]string {
	return map[string]string{
		"KEN": "KE",
		"NGA": "NG",
		"ZAF": "ZA",
		"EGY": "EG",
		"GHA": "GH",
	}
}

// ResolveCode normaliza um código de país para alpha-2.
//
// Códigos de 3 letras fora da tabela caem para os dois primeiros caracteres.
// Essa heurística é sabidamente incorreta para vários países (ex.: "AGO" -> "AG")
// e é mantida como comportamento documentado.
func ResolveCode(code string, aliases map[string]string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return code
	}
	if alpha2, ok := aliases[code]; ok {
		return alpha2
	}
	return code[:2]
}
