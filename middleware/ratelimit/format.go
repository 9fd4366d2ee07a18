// utilitário pequeno para formatação de valores numéricos em headers.
// Padroniza a formatação do float (strconv.FormatFloat) sem notação científica.

package ratelimit

import "strconv"

func formatInt(v int) string { return strconv.Itoa(v) }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
