package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/parisxmas/leadsite/internal/leadclient"
	"github.com/parisxmas/leadsite/internal/models"
)

var errNotPersisted = errors.New("lead was not persisted")

// printOpener writes the deep link instead of launching a browser.
func printOpener(w io.Writer) leadclient.Opener {
	return leadclient.OpenerFunc(func(_ context.Context, link string) error {
		_, err := fmt.Fprintf(w, "WhatsApp: %s\n", link)
		return err
	})
}

func newSubmitCmd(opts *rootOptions) *cobra.Command {
	var (
		fields models.LeadFields
		url    string
		source string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Post a lead to a running intake endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if url == "" {
				url = cfg.IntakeBaseURL()
			}
			out := cmd.OutOrStdout()
			client := leadclient.New(url, cfg.DestinationPhone, printOpener(out), leadclient.WithSource(source))

			res := client.Submit(cmd.Context(), fields)
			if !res.Persisted {
				if res.Err != nil {
					return fmt.Errorf("%w: %v", errNotPersisted, res.Err)
				}
				return errNotPersisted
			}
			fmt.Fprintf(out, "Lead %s recebido\n", res.LeadID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&url, "url", "", "intake base URL (default from config)")
	f.StringVar(&source, "source", "cli", "source recorded on the lead")
	f.StringVar(&fields.Nome, "nome", "", "contact name")
	f.StringVar(&fields.WhatsApp, "whatsapp", "", "contact WhatsApp number")
	f.StringVar(&fields.Email, "email", "", "contact email")
	f.StringVar(&fields.Empresa, "empresa", "", "company")
	f.StringVar(&fields.TipoServico, "tipo-servico", "", "service type")
	f.StringVar(&fields.DescricaoProjeto, "descricao", "", "project description")
	f.StringVar(&fields.Orcamento, "orcamento", "", "budget range")
	f.StringVar(&fields.Prazo, "prazo", "", "deadline")
	f.StringVar(&fields.TemSite, "tem-site", "", "already has a site")
	f.StringVar(&fields.TemLogo, "tem-logo", "", "already has a logo")
	f.StringVar(&fields.ObjetivoPrincipal, "objetivo", "", "main goal")
	f.StringVar(&fields.ComoConheceu, "como-conheceu", "", "how they found us")
	f.StringVar(&fields.Urgencia, "urgencia", "", "urgency")
	f.StringVar(&fields.Decisor, "decisor", "", "decision maker")
	return cmd
}
