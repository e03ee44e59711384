package notify

import (
	"fmt"
	"strings"

	"github.com/parisxmas/leadsite/internal/models"
)

var fieldLabels = map[string]string{
	models.FieldNome:              "Nome",
	models.FieldWhatsApp:          "WhatsApp",
	models.FieldEmail:             "Email",
	models.FieldEmpresa:           "Empresa",
	models.FieldTipoServico:       "Serviço",
	models.FieldDescricaoProjeto:  "Projeto",
	models.FieldOrcamento:         "Orçamento",
	models.FieldPrazo:             "Prazo",
	models.FieldTemSite:           "Tem site",
	models.FieldTemLogo:           "Tem logo",
	models.FieldObjetivoPrincipal: "Objetivo",
	models.FieldComoConheceu:      "Como conheceu",
	models.FieldUrgencia:          "Urgência",
	models.FieldDecisor:           "Decisor",
}

// Subject is the one-line summary used for email subjects.
func Subject(lead models.Lead) string {
	return fmt.Sprintf("Novo lead: %s (%s)", lead.Nome, lead.TipoServico)
}

// OperatorMessage renders the plain-text notification sent to the operator.
// Empty optional fields are omitted.
func OperatorMessage(lead models.Lead) string {
	var b strings.Builder
	b.WriteString("Novo lead recebido\n")
	fmt.Fprintf(&b, "ID: %s\n", lead.ID)
	fmt.Fprintf(&b, "Recebido em: %s\n", lead.CreatedAt)
	fmt.Fprintf(&b, "Origem: %s\n\n", lead.Source)
	for _, name := range models.AllFields {
		v := strings.TrimSpace(lead.Get(name))
		if v == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", fieldLabels[name], v)
	}
	return b.String()
}
