package wizard

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/leadsite/internal/models"
)

func fill(c *Controller, step int) {
	for _, f := range StepFields[step] {
		c.Update(map[string]string{f: "x"})
	}
}

func TestValidateStepReportsExactlyEmptyFields(t *testing.T) {
	values := []string{"", " ", "\t\n", "ok", " ok "}
	rng := rand.New(rand.NewSource(1))

	for step := 1; step <= MaxStep; step++ {
		for i := 0; i < 200; i++ {
			c := New()
			want := map[string]bool{}
			for _, f := range StepFields[step] {
				v := values[rng.Intn(len(values))]
				c.Update(map[string]string{f: v})
				if v == "" || v == " " || v == "\t\n" {
					want[f] = true
				}
			}
			errs := c.ValidateStep(step)
			assert.Len(t, errs, len(want))
			for f := range want {
				assert.NotEmpty(t, errs[f], "step %d field %s", step, f)
			}
		}
	}
}

func TestValidateUnknownStep(t *testing.T) {
	assert.Empty(t, New().ValidateStep(7))
}

func TestAdvanceBlockedWhenInvalid(t *testing.T) {
	c := New()
	c.Update(map[string]string{models.FieldNome: "Ana", models.FieldEmail: "a@b.com"})

	tr, errs := c.Advance()
	assert.Equal(t, Blocked, tr)
	assert.Equal(t, 1, c.Step())
	assert.Contains(t, errs, models.FieldWhatsApp)

	c.Update(map[string]string{models.FieldWhatsApp: "71999999999"})
	tr, errs = c.Advance()
	assert.Equal(t, Advanced, tr)
	assert.Empty(t, errs)
	assert.Equal(t, 2, c.Step())

	tr, _ = c.Advance()
	assert.Equal(t, Blocked, tr)
	assert.Equal(t, 2, c.Step())
}

func TestAdvanceFromLastStepSubmits(t *testing.T) {
	c := New()
	for step := 1; step <= MaxStep; step++ {
		fill(c, step)
		tr, _ := c.Advance()
		if step < MaxStep {
			require.Equal(t, Advanced, tr)
		} else {
			require.Equal(t, Submit, tr)
		}
	}
	assert.Equal(t, PhaseSubmitting, c.Phase())
	assert.Equal(t, MaxStep, c.Step())

	tr, _ := c.Advance()
	assert.Equal(t, Blocked, tr)

	c.Settle()
	assert.Equal(t, PhaseSuccess, c.Phase())
}

func TestRetreatFloorsAtOne(t *testing.T) {
	c := New()
	c.Retreat()
	assert.Equal(t, 1, c.Step())

	fill(c, 1)
	c.Advance()
	fill(c, 2)
	c.Advance()
	require.Equal(t, 3, c.Step())
	for i := 0; i < 5; i++ {
		c.Retreat()
		assert.GreaterOrEqual(t, c.Step(), 1)
	}
	assert.Equal(t, 1, c.Step())
}

func TestRetreatDoesNotValidate(t *testing.T) {
	c := New()
	fill(c, 1)
	c.Advance()
	c.Update(map[string]string{models.FieldNome: ""})
	c.Retreat()
	assert.Equal(t, 1, c.Step())
}

func TestSettleOnlyFromSubmitting(t *testing.T) {
	c := New()
	c.Settle()
	assert.Equal(t, PhaseStep, c.Phase())
}

func TestUpdateMergesAndLeadFields(t *testing.T) {
	c := New()
	c.Update(map[string]string{models.FieldNome: "Ana", models.FieldEmpresa: "ACME"})
	c.Update(map[string]string{models.FieldNome: "Ana Paula"})

	f := c.LeadFields()
	assert.Equal(t, "Ana Paula", f.Nome)
	assert.Equal(t, "ACME", f.Empresa)

	snapshot := c.Fields()
	snapshot[models.FieldNome] = "mutated"
	assert.Equal(t, "Ana Paula", c.Value(models.FieldNome))
}
