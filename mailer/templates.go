package mailer

import (
	"embed"
	"errors"
	"io/fs"
	"path"
	"strings"
	"sync"
	"text/template"

	"go.ule.co/platform/core"
)

const EMAIL_FS_PREFIX = "templates/"

const (
	subjectSuffix = "_subject.tpl"
	bodySuffix    = "_body.tpl"
)

//go:embed templates/*.tpl
var templateFS embed.FS

var ErrTemplateNotFound = errors.New("template not found")

type EmailTemplate struct {
	subject *template.Template
	body    *template.Template
}

type TemplateRegistry struct {
	templates   map[string]EmailTemplate
	templatesMu sync.RWMutex
}

func NewTemplateRegistry() (*TemplateRegistry, error) {
	tr := &TemplateRegistry{
		templates: make(map[string]EmailTemplate),
	}

	if err := tr.loadTemplates(templateFS); err != nil {
		return nil, err
	}

	return tr, nil
}

// loadTemplates pairs every <name>_subject.tpl with its <name>_body.tpl.
func (tr *TemplateRegistry) loadTemplates(fsys fs.FS) error {
	subjectTemplates, err := fs.Glob(fsys, EMAIL_FS_PREFIX+"*"+subjectSuffix)
	if err != nil {
		return err
	}

	for _, subjectFile := range subjectTemplates {
		name := strings.TrimSuffix(path.Base(subjectFile), subjectSuffix)

		subjectContent, err := fs.ReadFile(fsys, subjectFile)
		if err != nil {
			return err
		}

		subjectTmpl, err := template.New(name).Parse(strings.TrimSpace(string(subjectContent)))
		if err != nil {
			return err
		}

		bodyContent, err := fs.ReadFile(fsys, EMAIL_FS_PREFIX+name+bodySuffix)
		if err != nil {
			return err
		}

		bodyTmpl, err := template.New(name).Parse(string(bodyContent))
		if err != nil {
			return err
		}

		tr.RegisterTemplate(name, EmailTemplate{subject: subjectTmpl, body: bodyTmpl})
	}

	return nil
}

func (tr *TemplateRegistry) RegisterTemplate(name string, tpl EmailTemplate) {
	tr.templatesMu.Lock()
	defer tr.templatesMu.Unlock()
	tr.templates[name] = tpl
}

func (tr *TemplateRegistry) RenderTemplate(templateName string, subjectVars core.MailerTemplateData, bodyVars core.MailerTemplateData) (*Email, error) {
	tr.templatesMu.RLock()
	tmpl, ok := tr.templates[templateName]
	tr.templatesMu.RUnlock()

	if !ok {
		return nil, ErrTemplateNotFound
	}

	var subjectBuilder strings.Builder
	if err := tmpl.subject.Execute(&subjectBuilder, subjectVars); err != nil {
		return nil, err
	}

	var bodyBuilder strings.Builder
	if err := tmpl.body.Execute(&bodyBuilder, bodyVars); err != nil {
		return nil, err
	}

	return NewEmail(subjectBuilder.String(), bodyBuilder.String()), nil
}
