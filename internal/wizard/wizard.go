// Package wizard holds the state of one multi-step lead form: the values
// entered so far, the current step and the submit/success phases.
package wizard

import (
	"strings"

	"github.com/parisxmas/leadsite/internal/models"
)

const MaxStep = 3

type Phase string

const (
	PhaseStep       Phase = "step"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
)

// Transition is what Advance did.
type Transition int

const (
	Blocked Transition = iota
	Advanced
	Submit
)

// StepFields lists the required fields of each step, in display order.
var StepFields = map[int][]string{
	1: {models.FieldNome, models.FieldWhatsApp, models.FieldEmail},
	2: {models.FieldTipoServico, models.FieldDescricaoProjeto},
	3: {models.FieldOrcamento, models.FieldPrazo},
}

var fieldMessages = map[string]string{
	models.FieldNome:             "Informe seu nome",
	models.FieldWhatsApp:         "Informe seu WhatsApp",
	models.FieldEmail:            "Informe seu email",
	models.FieldTipoServico:      "Escolha o tipo de serviço",
	models.FieldDescricaoProjeto: "Descreva seu projeto",
	models.FieldOrcamento:        "Escolha uma faixa de orçamento",
	models.FieldPrazo:            "Escolha um prazo",
}

// Controller is single-writer: one visitor drives one instance. Callers
// sharing it across goroutines must serialize access.
type Controller struct {
	fields map[string]string
	step   int
	phase  Phase
}

func New() *Controller {
	return &Controller{fields: map[string]string{}, step: 1, phase: PhaseStep}
}

func (c *Controller) Step() int    { return c.step }
func (c *Controller) Phase() Phase { return c.phase }

// Fields returns a copy of the current values.
func (c *Controller) Fields() map[string]string {
	out := make(map[string]string, len(c.fields))
	for k, v := range c.fields {
		out[k] = v
	}
	return out
}

func (c *Controller) Value(name string) string { return c.fields[name] }

// LeadFields converts the current values into the wire shape.
func (c *Controller) LeadFields() models.LeadFields {
	return models.FieldsFromMap(c.fields)
}

// Update shallow-merges partial into the current values.
func (c *Controller) Update(partial map[string]string) {
	for k, v := range partial {
		c.fields[k] = v
	}
}

// ValidateStep maps each empty or whitespace-only required field of step to
// a message. Valid or unknown steps yield an empty map.
func (c *Controller) ValidateStep(step int) map[string]string {
	errs := map[string]string{}
	for _, name := range StepFields[step] {
		if strings.TrimSpace(c.fields[name]) == "" {
			errs[name] = fieldMessages[name]
		}
	}
	return errs
}

// Advance moves to the next step, or into the submitting phase from the last
// step. An invalid current step leaves the state untouched and returns its
// errors.
func (c *Controller) Advance() (Transition, map[string]string) {
	if c.phase != PhaseStep {
		return Blocked, map[string]string{}
	}
	if errs := c.ValidateStep(c.step); len(errs) > 0 {
		return Blocked, errs
	}
	if c.step < MaxStep {
		c.step++
		return Advanced, map[string]string{}
	}
	c.phase = PhaseSubmitting
	return Submit, map[string]string{}
}

// Retreat moves back one step, never below 1.
func (c *Controller) Retreat() {
	if c.phase != PhaseStep {
		return
	}
	if c.step > 1 {
		c.step--
	}
}

// Settle ends the submitting phase. Success is reached whatever the
// submission outcome was.
func (c *Controller) Settle() {
	if c.phase == PhaseSubmitting {
		c.phase = PhaseSuccess
	}
}
