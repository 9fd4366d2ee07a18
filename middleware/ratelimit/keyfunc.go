package ratelimit

import (
	"net"
	"net/http"
	"strings"

	"contact-relay/middleware/ratelimit/domain"

	"github.com/seancfoley/ipaddress-go/ipaddr"
)

// DefaultClientIPHeader é o header que o proxy confiável (Cloudflare) preenche
// com o IP real do cliente.
const DefaultClientIPHeader = "CF-Connecting-IP"

type KeyFunc func(r *http.Request) string

// ClientIPKeyFunc lê o IP do cliente do header do proxy confiável.
//
// Se o valor for um IP válido, devolve a forma canônica (ex: IPv6 comprimido);
// senão usa o valor cru. Sem header: RemoteAddr quando fallbackRemote, senão
// domain.UnknownKey (isento de limite no relay).
func ClientIPKeyFunc(header string, fallbackRemote bool) KeyFunc {
	if header == "" {
		header = DefaultClientIPHeader
	}
	return func(r *http.Request) string {
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			return normalizeIP(v)
		}

		if fallbackRemote {
			host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
			if err == nil && host != "" {
				return normalizeIP(host)
			}
			if r.RemoteAddr != "" {
				return r.RemoteAddr
			}
		}
		return string(domain.UnknownKey)
	}
}

func normalizeIP(raw string) string {
	addr, err := ipaddr.NewIPAddressString(raw).ToAddress()
	if err != nil || addr == nil {
		return raw
	}
	return addr.String()
}
