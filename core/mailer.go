package core

const (
	MAILER_TPL_DELETION_REQUESTED = "deletion_requested"
	MAILER_TPL_DELETION_CONFIRMED = "deletion_confirmed"
	MAILER_TPL_DELETION_CANCELLED = "deletion_cancelled"
	MAILER_TPL_DELETION_EXECUTED  = "deletion_executed"
)

type MailerTemplateData = map[string]any

type MailerService interface {
	TemplateSend(template string, subjectVars MailerTemplateData, bodyVars MailerTemplateData, to string) error
}
