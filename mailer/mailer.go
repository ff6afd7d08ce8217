package mailer

import (
	"context"

	"github.com/wneessen/go-mail"
	"go.ule.co/platform/config"
	"go.ule.co/platform/core"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var _ core.MailerService = (*Mailer)(nil)

var Module = fx.Module("mailer",
	fx.Options(
		fx.Provide(NewTemplateRegistry),
		fx.Provide(fx.Annotate(NewMailer, fx.As(new(core.MailerService)))),
	),
)

type MailerParams struct {
	fx.In
	Config    config.Manager
	Logger    *core.Logger
	Templates *TemplateRegistry
}

type Mailer struct {
	config    config.MailConfig
	logger    *core.Logger
	client    *mail.Client
	templates *TemplateRegistry
}

func NewMailer(lc fx.Lifecycle, params MailerParams) *Mailer {
	m := &Mailer{
		config:    params.Config.Config().Core.Mail,
		logger:    params.Logger,
		templates: params.Templates,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return m.connect()
		},
	})

	return m
}

func (m *Mailer) connect() error {
	if !m.config.Enabled() {
		m.logger.Info("mail host not configured, notifications will only be logged")
		return nil
	}

	var options []mail.Option

	if m.config.Port != 0 {
		options = append(options, mail.WithPort(m.config.Port))
	}

	if m.config.AuthType != "" {
		options = append(options, mail.WithSMTPAuth(mail.SMTPAuthType(m.config.AuthType)))
	}

	if m.config.SSL {
		options = append(options, mail.WithSSLPort(true))
	}

	options = append(options, mail.WithUsername(m.config.Username))
	options = append(options, mail.WithPassword(m.config.Password))

	client, err := mail.NewClient(m.config.Host, options...)
	if err != nil {
		return err
	}

	m.client = client
	return nil
}

func (m *Mailer) TemplateSend(template string, subjectVars core.MailerTemplateData, bodyVars core.MailerTemplateData, to string) error {
	email, err := m.templates.RenderTemplate(template, subjectVars, bodyVars)
	if err != nil {
		return err
	}

	email.SetTo(to)
	email.SetFrom(m.config.From)

	if m.client == nil {
		m.logger.Info("mail not sent, no mail host", zap.String("template", template), zap.String("to", to), zap.String("subject", email.Subject()))
		return nil
	}

	msg, err := email.ToMessage()
	if err != nil {
		return err
	}

	return m.client.DialAndSend(msg)
}
