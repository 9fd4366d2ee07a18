package contact

import (
	"net/http"
	"strings"
)

// Origins é a allowlist de origens, montada uma vez na inicialização.
// Vazia significa modo aberto: qualquer origem passa e o CORS responde "*".
type Origins struct {
	set map[string]struct{}
}

// ParseOrigins lê a lista separada por vírgula (ex: ALLOWED_ORIGINS).
func ParseOrigins(raw string) Origins {
	var list []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			list = append(list, o)
		}
	}
	return NewOrigins(list...)
}

func NewOrigins(list ...string) Origins {
	set := make(map[string]struct{}, len(list))
	for _, o := range list {
		if o != "" {
			set[o] = struct{}{}
		}
	}
	return Origins{set: set}
}

func (o Origins) Open() bool { return len(o.set) == 0 }

func (o Origins) Len() int { return len(o.set) }

// Allows diz se a origem declarada pode usar o endpoint.
func (o Origins) Allows(origin string) bool {
	if o.Open() {
		return true
	}
	if origin == "" {
		return false
	}
	_, ok := o.set[origin]
	return ok
}

// AllowOrigin resolve o valor de Access-Control-Allow-Origin:
// "*" em modo aberto, a própria origem se estiver na lista, senão "null".
func (o Origins) AllowOrigin(origin string) string {
	if o.Open() {
		return "*"
	}
	if _, ok := o.set[origin]; ok && origin != "" {
		return origin
	}
	return "null"
}

func (o Origins) setHeaders(h http.Header, origin string) {
	h.Set("Access-Control-Allow-Origin", o.AllowOrigin(origin))
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Vary", "Origin")
}
