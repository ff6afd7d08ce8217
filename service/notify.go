package service

import (
	"fmt"
	"net/url"

	gevent "github.com/gookit/event"
	"go.ule.co/platform/config"
	"go.ule.co/platform/core"
	"go.ule.co/platform/event"
	"go.uber.org/fx"
)

const executionDateLayout = "02/01/2006"

const confirmDeletionPath = "/privacy/delete-account/confirm"

type DeletionNotifierParams struct {
	fx.In
	Config config.Manager
	Mailer core.MailerService
	Events *gevent.Manager
}

// DeletionNotifier emails the account owner at each step of the deletion flow.
type DeletionNotifier struct {
	appName string
	domain  string
	mailer  core.MailerService
}

func NewDeletionNotifier(params DeletionNotifierParams) *DeletionNotifier {
	cfg := params.Config.Config().Core

	n := &DeletionNotifier{
		appName: cfg.AppName,
		domain:  cfg.Domain,
		mailer:  params.Mailer,
	}

	event.OnDeletion(params.Events, event.EVENT_DELETION_REQUESTED, n.onRequested)
	event.OnDeletion(params.Events, event.EVENT_DELETION_CONFIRMED, n.onConfirmed)
	event.OnDeletion(params.Events, event.EVENT_DELETION_CANCELLED, n.onCancelled)
	event.OnDeletion(params.Events, event.EVENT_DELETION_EXECUTED, n.onExecuted)

	return n
}

func (n *DeletionNotifier) onRequested(evt *event.DeletionEvent) error {
	request := evt.Request()

	return n.send(evt, core.MAILER_TPL_DELETION_REQUESTED, core.MailerTemplateData{
		"ConfirmURL": n.ConfirmURL(request.Token),
	})
}

func (n *DeletionNotifier) onConfirmed(evt *event.DeletionEvent) error {
	request := evt.Request()

	vars := core.MailerTemplateData{}
	if request.ExecutionDate != nil {
		vars["ExecutionDate"] = request.ExecutionDate.UTC().Format(executionDateLayout)
	}

	return n.send(evt, core.MAILER_TPL_DELETION_CONFIRMED, vars)
}

func (n *DeletionNotifier) onCancelled(evt *event.DeletionEvent) error {
	return n.send(evt, core.MAILER_TPL_DELETION_CANCELLED, core.MailerTemplateData{})
}

func (n *DeletionNotifier) onExecuted(evt *event.DeletionEvent) error {
	return n.send(evt, core.MAILER_TPL_DELETION_EXECUTED, core.MailerTemplateData{})
}

func (n *DeletionNotifier) send(evt *event.DeletionEvent, template string, vars core.MailerTemplateData) error {
	user := evt.User()
	if user == nil || user.Email == "" {
		return nil
	}

	vars["AppName"] = n.appName
	vars["FirstName"] = user.FirstName

	if err := n.mailer.TemplateSend(template, vars, vars, user.Email); err != nil {
		return fmt.Errorf("notify %s: %w", user.Email, err)
	}

	return nil
}

// ConfirmURL is the link mailed with a fresh deletion request.
func (n *DeletionNotifier) ConfirmURL(token string) string {
	u := url.URL{
		Scheme:   "https",
		Host:     n.domain,
		Path:     confirmDeletionPath,
		RawQuery: url.Values{"token": []string{token}}.Encode(),
	}

	return u.String()
}
