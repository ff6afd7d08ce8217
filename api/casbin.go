package api

import (
	"strings"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	"go.ule.co/platform/core"
	"go.ule.co/platform/db/models"
	"go.uber.org/zap"
)

// NewCasbin builds the route policy for role protected endpoints. Policies
// are fixed at startup and held in memory.
func NewCasbin(logger *core.Logger) (*casbin.Enforcer, error) {
	m := model.NewModel()
	m.AddDef("r", "r", "sub, obj, act")
	m.AddDef("p", "p", "sub, obj, act")
	m.AddDef("e", "e", "some(where (p.eft == allow))")
	m.AddDef("m", "m", "r.sub == p.sub && keyMatch2(r.obj, p.obj) && r.act == p.act")

	a := NewPolicyAdapter(logger.Logger)

	_ = a.AddPolicy("p", "p", []string{models.RoleAdmin, "/admin/*", "GET"})

	return casbin.NewEnforcer(m, a)
}

var _ persist.Adapter = (*PolicyAdapter)(nil)

type PolicyAdapter struct {
	policy []string
	lock   sync.RWMutex
	logger *zap.Logger
}

func NewPolicyAdapter(logger *zap.Logger) *PolicyAdapter {
	return &PolicyAdapter{
		policy: make([]string, 0),
		logger: logger,
	}
}

func (a *PolicyAdapter) LoadPolicy(model model.Model) error {
	a.lock.RLock()
	defer a.lock.RUnlock()

	for _, line := range a.policy {
		if err := persist.LoadPolicyLine(line, model); err != nil {
			a.logger.Error("Failed to load policy line", zap.String("line", line), zap.Error(err))
			return err
		}
	}

	return nil
}

// SavePolicy is a no-op: policies only live in memory.
func (a *PolicyAdapter) SavePolicy(model model.Model) error {
	return nil
}

func (a *PolicyAdapter) AddPolicy(sec string, ptype string, rule []string) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	line := ptype + ", " + strings.Join(rule, ", ")

	for _, existingLine := range a.policy {
		if line == existingLine {
			return nil
		}
	}

	a.policy = append(a.policy, line)
	return nil
}

func (a *PolicyAdapter) RemovePolicy(sec string, ptype string, rule []string) error {
	return nil
}

func (a *PolicyAdapter) RemoveFilteredPolicy(sec string, ptype string, fieldIndex int, fieldValues ...string) error {
	return nil
}
