package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/parisxmas/leadsite/internal/config"
	"github.com/parisxmas/leadsite/internal/db"
	"github.com/parisxmas/leadsite/internal/notify"
	"github.com/parisxmas/leadsite/internal/notify/email"
	"github.com/parisxmas/leadsite/internal/notify/sheets"
	"github.com/parisxmas/leadsite/internal/notify/telegram"
	"github.com/parisxmas/leadsite/internal/notify/whatsapp"
	"github.com/parisxmas/leadsite/internal/repository"
)

// sinkSet is the storage, email and messaging sinks plus what they hold open.
type sinkSet struct {
	sinks   []notify.Sink
	leads   *repository.LeadRepo
	closers []func()
}

func buildSinks(ctx context.Context, cfg *config.Config, log *zap.Logger) (*sinkSet, error) {
	set := &sinkSet{}

	storage, err := set.storageSink(ctx, cfg, log)
	if err != nil {
		set.close()
		return nil, err
	}
	mail, err := emailSink(cfg, log)
	if err != nil {
		set.close()
		return nil, err
	}
	msg, err := messagingSink(cfg, log)
	if err != nil {
		set.close()
		return nil, err
	}
	set.sinks = []notify.Sink{storage, mail, msg}

	names := make([]string, len(set.sinks))
	for i, s := range set.sinks {
		names[i] = s.Name()
	}
	log.Info("notification sinks ready", zap.Strings("sinks", names))
	return set, nil
}

func (s *sinkSet) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func (s *sinkSet) storageSink(ctx context.Context, cfg *config.Config, log *zap.Logger) (notify.Sink, error) {
	st := cfg.Storage
	switch st.Backend {
	case "sheets":
		if st.SheetsSpreadsheetID == "" || st.SheetsCredentialsFile == "" {
			return nil, fmt.Errorf("storage: sheets backend needs spreadsheet id and credentials file")
		}
		return sheets.New(ctx, st.SheetsSpreadsheetID, st.SheetsRange, st.SheetsCredentialsFile)

	case "oxidb":
		pool, err := db.NewPool(st.OxiDBHost, st.OxiDBPort, st.PoolSize, log)
		if err != nil {
			return nil, fmt.Errorf("storage: connect to OxiDB: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		log.Info("connected to OxiDB",
			zap.String("host", st.OxiDBHost),
			zap.Int("port", st.OxiDBPort),
			zap.Int("pool_size", st.PoolSize))

		repo := repository.NewLeadRepo(pool)
		s.leads = repo
		// Index builds can be slow on a large collection; do not hold up startup.
		go func() {
			ictx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := repo.EnsureIndexes(ictx); err != nil {
				log.Warn("lead index creation failed", zap.Error(err))
				return
			}
			log.Info("lead indexes ready")
		}()
		return notify.NewStoreSink("oxidb", repo), nil

	case "":
		return notify.NewLogSink("sheets", log), nil
	}
	return nil, fmt.Errorf("storage: unknown backend %q", st.Backend)
}

func emailSink(cfg *config.Config, log *zap.Logger) (notify.Sink, error) {
	if !cfg.EmailEnabled() {
		return notify.NewLogSink("email", log), nil
	}
	return email.New(email.Config{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		To:       cfg.Email.To,
	})
}

func messagingSink(cfg *config.Config, log *zap.Logger) (notify.Sink, error) {
	m := cfg.Messaging
	switch m.Provider {
	case "whatsapp":
		if m.WhatsAppToken == "" || m.WhatsAppPhoneNumberID == "" {
			return nil, fmt.Errorf("messaging: whatsapp provider needs token and phone number id")
		}
		return whatsapp.New(m.WhatsAppAPIBase, m.WhatsAppPhoneNumberID, m.WhatsAppToken, cfg.DestinationPhone), nil
	case "telegram":
		if m.TelegramToken == "" || m.TelegramChatID == 0 {
			return nil, fmt.Errorf("messaging: telegram provider needs token and chat id")
		}
		return telegram.New(m.TelegramToken, "", m.TelegramChatID)
	case "":
		return notify.NewLogSink("whatsapp", log), nil
	}
	return nil, fmt.Errorf("messaging: unknown provider %q", m.Provider)
}
