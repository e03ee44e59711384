package models

import "strings"

// Wire names of the lead fields. They are the public JSON contract of /api/leads.
const (
	FieldNome              = "nome"
	FieldWhatsApp          = "whatsapp"
	FieldEmail             = "email"
	FieldEmpresa           = "empresa"
	FieldTipoServico       = "tipoServico"
	FieldDescricaoProjeto  = "descricaoProjeto"
	FieldOrcamento         = "orcamento"
	FieldPrazo             = "prazo"
	FieldTemSite           = "temSite"
	FieldTemLogo           = "temLogo"
	FieldObjetivoPrincipal = "objetivoPrincipal"
	FieldComoConheceu      = "comoConheceu"
	FieldUrgencia          = "urgencia"
	FieldDecisor           = "decisor"
)

// RequiredFields lists the keys checked at intake, in reporting order.
var RequiredFields = []string{FieldNome, FieldWhatsApp, FieldEmail, FieldTipoServico}

// AllFields lists every lead field in column order.
var AllFields = []string{
	FieldNome, FieldWhatsApp, FieldEmail, FieldEmpresa,
	FieldTipoServico, FieldDescricaoProjeto, FieldOrcamento, FieldPrazo,
	FieldTemSite, FieldTemLogo, FieldObjetivoPrincipal, FieldComoConheceu,
	FieldUrgencia, FieldDecisor,
}

// LeadFields holds the values a visitor fills in across the wizard steps.
type LeadFields struct {
	Nome              string `json:"nome"`
	WhatsApp          string `json:"whatsapp"`
	Email             string `json:"email"`
	Empresa           string `json:"empresa"`
	TipoServico       string `json:"tipoServico"`
	DescricaoProjeto  string `json:"descricaoProjeto"`
	Orcamento         string `json:"orcamento"`
	Prazo             string `json:"prazo"`
	TemSite           string `json:"temSite"`
	TemLogo           string `json:"temLogo"`
	ObjetivoPrincipal string `json:"objetivoPrincipal"`
	ComoConheceu      string `json:"comoConheceu"`
	Urgencia          string `json:"urgencia"`
	Decisor           string `json:"decisor"`
}

// LeadInput is the request body of POST /api/leads. Source and Timestamp are
// informational; intake stamps its own provenance and keeps the claimed
// source only as Lead.ClientSource.
type LeadInput struct {
	LeadFields
	Source    string `json:"source,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Lead is an accepted submission. It is never modified after intake.
type Lead struct {
	ID string `json:"id"`
	LeadFields
	Source    string `json:"source"`
	CreatedAt string `json:"createdAt"`
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`

	// ClientSource is the source the submitter claimed. Untrusted.
	ClientSource string `json:"clientSource,omitempty"`
}

// Get returns the value of the field with the given wire name.
func (f LeadFields) Get(name string) string {
	if p := f.ptr(name); p != nil {
		return *p
	}
	return ""
}

// Set assigns a field by wire name. Unknown names are ignored.
func (f *LeadFields) Set(name, value string) {
	if p := f.ptr(name); p != nil {
		*p = value
	}
}

func (f *LeadFields) ptr(name string) *string {
	switch name {
	case FieldNome:
		return &f.Nome
	case FieldWhatsApp:
		return &f.WhatsApp
	case FieldEmail:
		return &f.Email
	case FieldEmpresa:
		return &f.Empresa
	case FieldTipoServico:
		return &f.TipoServico
	case FieldDescricaoProjeto:
		return &f.DescricaoProjeto
	case FieldOrcamento:
		return &f.Orcamento
	case FieldPrazo:
		return &f.Prazo
	case FieldTemSite:
		return &f.TemSite
	case FieldTemLogo:
		return &f.TemLogo
	case FieldObjetivoPrincipal:
		return &f.ObjetivoPrincipal
	case FieldComoConheceu:
		return &f.ComoConheceu
	case FieldUrgencia:
		return &f.Urgencia
	case FieldDecisor:
		return &f.Decisor
	}
	return nil
}

// Missing returns the required fields that are empty or whitespace-only,
// in the order of RequiredFields.
func (f LeadFields) Missing() []string {
	var missing []string
	for _, name := range RequiredFields {
		if strings.TrimSpace(f.Get(name)) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Map returns the non-empty fields keyed by wire name.
func (f LeadFields) Map() map[string]string {
	m := make(map[string]string, len(AllFields))
	for _, name := range AllFields {
		if v := f.Get(name); v != "" {
			m[name] = v
		}
	}
	return m
}

// FieldsFromMap builds LeadFields from a wire-name map.
func FieldsFromMap(m map[string]string) LeadFields {
	var f LeadFields
	for k, v := range m {
		f.Set(k, v)
	}
	return f
}

// LeadColumns is the header row used by tabular sinks.
var LeadColumns = append([]string{"id", "createdAt", "source"}, append(AllFields, "ip", "userAgent")...)

// Row flattens the lead in LeadColumns order.
func (l Lead) Row() []string {
	row := make([]string, 0, len(LeadColumns))
	row = append(row, l.ID, l.CreatedAt, l.Source)
	for _, name := range AllFields {
		row = append(row, l.Get(name))
	}
	return append(row, l.IP, l.UserAgent)
}
