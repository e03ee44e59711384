package web

import (
	g "maragu.dev/gomponents"
	c "maragu.dev/gomponents/components"
	. "maragu.dev/gomponents/html"

	"github.com/parisxmas/leadsite/internal/leadclient"
	"github.com/parisxmas/leadsite/internal/models"
	"github.com/parisxmas/leadsite/internal/wizard"
)

const siteName = "Estúdio Web"

type option struct {
	Value, Label string
}

type formInput struct {
	Name     string
	Label    string
	Kind     string // text, tel, email, textarea, select
	Options  []option
	Optional bool
}

var yesNo = []option{{"sim", "Sim"}, {"nao", "Não"}}

var stepForms = map[int][]formInput{
	1: {
		{Name: models.FieldNome, Label: "Nome", Kind: "text"},
		{Name: models.FieldWhatsApp, Label: "WhatsApp", Kind: "tel"},
		{Name: models.FieldEmail, Label: "Email", Kind: "email"},
		{Name: models.FieldEmpresa, Label: "Empresa", Kind: "text", Optional: true},
	},
	2: {
		{Name: models.FieldTipoServico, Label: "Tipo de serviço", Kind: "select", Options: []option{
			{"landing", "Landing page"}, {"site", "Site institucional"}, {"ecommerce", "Loja virtual"},
			{"sistema", "Sistema web"}, {"identidade", "Identidade visual"},
		}},
		{Name: models.FieldDescricaoProjeto, Label: "Conte sobre o projeto", Kind: "textarea"},
		{Name: models.FieldObjetivoPrincipal, Label: "Objetivo principal", Kind: "text", Optional: true},
		{Name: models.FieldTemSite, Label: "Já tem site?", Kind: "select", Options: yesNo, Optional: true},
		{Name: models.FieldTemLogo, Label: "Já tem logo?", Kind: "select", Options: yesNo, Optional: true},
	},
	3: {
		{Name: models.FieldOrcamento, Label: "Orçamento", Kind: "select", Options: []option{
			{"ate-2k", "Até R$ 2 mil"}, {"2k-5k", "R$ 2 a 5 mil"}, {"5k-10k", "R$ 5 a 10 mil"}, {"10k+", "Acima de R$ 10 mil"},
		}},
		{Name: models.FieldPrazo, Label: "Prazo", Kind: "select", Options: []option{
			{"15-dias", "Até 15 dias"}, {"30-dias", "Até 30 dias"}, {"60-dias", "Até 60 dias"}, {"sem-pressa", "Sem pressa"},
		}},
		{Name: models.FieldUrgencia, Label: "Urgência", Kind: "select", Optional: true, Options: []option{
			{"alta", "Alta"}, {"media", "Média"}, {"baixa", "Baixa"},
		}},
		{Name: models.FieldDecisor, Label: "Você decide a contratação?", Kind: "select", Options: yesNo, Optional: true},
		{Name: models.FieldComoConheceu, Label: "Como nos conheceu?", Kind: "text", Optional: true},
	},
}

var stepTitles = map[int]string{1: "Seus dados", 2: "Seu projeto", 3: "Investimento e prazo"}

type headline struct {
	Title, Subtitle string
}

var headlines = map[Audience]headline{
	AudienceGeral:         {"Sites que trazem clientes", "Landing pages, sites e lojas virtuais sob medida."},
	AudienceEmpresas:      {"Presença digital para sua empresa", "Projetos com prazo, escopo e suporte definidos em contrato."},
	AudienceProfissionais: {"Seu trabalho merece um site à altura", "Portfólios e páginas de captação para profissionais autônomos."},
}

func layout(title, description string, body ...g.Node) g.Node {
	children := make(g.Group, 0, len(body))
	for _, n := range body {
		if n != nil {
			children = append(children, n)
		}
	}
	return c.HTML5(c.HTML5Props{
		Title:       title + " | " + siteName,
		Description: description,
		Language:    "pt-BR",
		Head: []g.Node{
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
		},
		Body: []g.Node{Main(Class("container"), children)},
	})
}

func landingPage(a Audience) g.Node {
	h := headlines[a]
	return layout(h.Title, h.Subtitle,
		H1(g.Text(h.Title)),
		P(Class("lead"), g.Text(h.Subtitle)),
		A(Href("/orcamento"), Class("btn btn-primary"), g.Text("Pedir orçamento")),
	)
}

func wizardPage(ctrl *wizard.Controller, errs map[string]string) g.Node {
	step := ctrl.Step()
	return layout("Orçamento", "Peça um orçamento em três passos.",
		H1(g.Text("Orçamento")),
		P(Class("steps"), g.Textf("Passo %d de %d: %s", step, wizard.MaxStep, stepTitles[step])),
		Form(Method("post"), Action("/orcamento"), Class("wizard"),
			g.Map(stepForms[step], func(f formInput) g.Node {
				return formField(f, ctrl.Value(f.Name), errs[f.Name])
			}),
			Div(Class("actions"),
				g.If(step > 1, Button(Type("submit"), Name("action"), Value("back"), Class("btn"), g.Text("Voltar"))),
				Button(Type("submit"), Name("action"), Value("next"), Class("btn btn-primary"),
					g.If(step < wizard.MaxStep, g.Text("Continuar")),
					g.If(step == wizard.MaxStep, g.Text("Enviar")),
				),
			),
		),
	)
}

func formField(f formInput, value, errMsg string) g.Node {
	id := "f-" + f.Name
	var input g.Node
	switch f.Kind {
	case "textarea":
		input = Textarea(ID(id), Name(f.Name), Rows("4"), g.If(!f.Optional, Required()), g.Text(value))
	case "select":
		input = Select(ID(id), Name(f.Name), g.If(!f.Optional, Required()),
			Option(Value(""), g.Text("Selecione")),
			g.Map(f.Options, func(o option) g.Node {
				return Option(Value(o.Value), g.If(o.Value == value, Selected()), g.Text(o.Label))
			}),
		)
	default:
		input = Input(ID(id), Type(f.Kind), Name(f.Name), Value(value), g.If(!f.Optional, Required()))
	}
	return Div(Class("field"),
		Label(For(id), g.Text(f.Label), g.If(f.Optional, Span(Class("optional"), g.Text(" (opcional)")))),
		input,
		g.If(errMsg != "", P(Class("error"), g.Text(errMsg))),
	)
}

func successPage(out *leadclient.Outcome) g.Node {
	title := "Pedido enviado!"
	text := "Recebemos seu pedido e vamos responder em breve."
	var protocol, link g.Node
	if out == nil || !out.Persisted {
		text = "Não conseguimos registrar seu pedido agora. Fale com a gente pelo WhatsApp para não perder o contato."
	}
	if out != nil && out.LeadID != "" {
		protocol = P(Class("protocol"), g.Textf("Protocolo: %s", out.LeadID))
	}
	if out != nil && out.DeepLink != "" {
		link = A(Href(out.DeepLink), Target("_blank"), Rel("noopener"), Class("btn btn-whatsapp"), g.Text("Abrir WhatsApp"))
	}
	return layout(title, text,
		H1(g.Text(title)),
		P(g.Text(text)),
		protocol,
		link,
		Form(Method("post"), Action("/orcamento"),
			Button(Type("submit"), Name("action"), Value("reset"), Class("btn"), g.Text("Novo orçamento")),
		),
	)
}
