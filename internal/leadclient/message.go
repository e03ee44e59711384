package leadclient

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/parisxmas/leadsite/internal/models"
)

const deepLinkBase = "https://wa.me/"

// NormalizePhone keeps only the digits of phone.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DeepLink builds a wa.me link that opens a chat with phone, prefilled with
// message. Spaces are encoded as %20, never as '+'.
func DeepLink(phone, message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return deepLinkBase + NormalizePhone(phone) + "?text=" + text
}

// FullMessage is sent to the operator when the lead reached the backend.
func FullMessage(f models.LeadFields) string {
	var b strings.Builder
	b.WriteString("Olá! Gostaria de solicitar um orçamento.\n\n")
	b.WriteString("*Dados de contato*\n")
	line(&b, "Nome", f.Nome)
	line(&b, "WhatsApp", f.WhatsApp)
	line(&b, "Email", f.Email)
	line(&b, "Empresa", f.Empresa)
	b.WriteString("\n*Projeto*\n")
	line(&b, "Serviço", f.TipoServico)
	line(&b, "Descrição", f.DescricaoProjeto)
	line(&b, "Orçamento", f.Orcamento)
	line(&b, "Prazo", f.Prazo)

	var extra strings.Builder
	line(&extra, "Tem site", f.TemSite)
	line(&extra, "Tem logo", f.TemLogo)
	line(&extra, "Objetivo", f.ObjetivoPrincipal)
	line(&extra, "Como conheceu", f.ComoConheceu)
	line(&extra, "Urgência", f.Urgencia)
	line(&extra, "Decisor", f.Decisor)
	if extra.Len() > 0 {
		b.WriteString("\n*Detalhes*\n")
		b.WriteString(extra.String())
	}
	return b.String()
}

// FallbackMessage is the short form used when the backend could not be reached.
func FallbackMessage(f models.LeadFields) string {
	return fmt.Sprintf("Olá! Sou %s e gostaria de um orçamento de %s.\nEmail: %s\nWhatsApp: %s",
		f.Nome, f.TipoServico, f.Email, f.WhatsApp)
}

func line(b *strings.Builder, label, value string) {
	if v := strings.TrimSpace(value); v != "" {
		fmt.Fprintf(b, "*%s:* %s\n", label, v)
	}
}
