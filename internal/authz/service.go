package authz

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	routePrefix   = "/api/v1"
	ruleTable     = "casbin_rule"
	subjectPrefix = "admin:"
	rolePrefix    = "role:"
	// roleRegistry 作为所有角色的挂载点，使未授予任何人的角色也能被列出
	roleRegistry = "role:__registry__"
)

var (
	ErrUnavailable    = errors.New("authz service unavailable")
	ErrRoleRequired   = errors.New("role is required")
	ErrReservedRole   = errors.New("reserved role is not allowed")
	ErrActionRequired = errors.New("action is required")
	ErrAdminRequired  = errors.New("admin id is required")
)

// 主体可以是操作员或角色；对象是 gin 路由模板，按 keyMatch2 匹配
const routeModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy 角色对某个路由模板的授权
type Policy struct {
	Object string `json:"object"`
	Action string `json:"action"`
}

// Service 后台路由授权，策略落库到 casbin_rule
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务并加载已有策略
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, ErrUnavailable
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", ruleTable)
	if err != nil {
		return nil, fmt.Errorf("authz adapter: %w", err)
	}
	m, err := model.NewModelFromString(routeModel)
	if err != nil {
		return nil, fmt.Errorf("authz model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("authz enforcer: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("authz load policy: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() bool {
	return s != nil && s.enforcer != nil
}

// CanAccess 判定操作员能否以 method 访问 route
func (s *Service) CanAccess(adminID uint, method, route string) (bool, error) {
	if !s.ready() {
		return false, ErrUnavailable
	}
	return s.enforcer.Enforce(adminSubject(adminID), NormalizeObject(route), NormalizeAction(method))
}

// Grant 为角色授予路由权限，角色不存在时自动登记
func (s *Service) Grant(role string, policy Policy) error {
	name, err := s.registerRole(role)
	if err != nil {
		return err
	}
	action := NormalizeAction(policy.Action)
	if action == "" {
		return ErrActionRequired
	}
	if _, err := s.enforcer.AddPolicy(name, NormalizeObject(policy.Object), action); err != nil {
		return fmt.Errorf("grant %s %s to %s: %w", action, policy.Object, name, err)
	}
	return nil
}

// Inherit 让 child 角色继承 parent 的全部权限
func (s *Service) Inherit(child, parent string) error {
	childName, err := s.registerRole(child)
	if err != nil {
		return err
	}
	parentName, err := s.registerRole(parent)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", childName, parentName); err != nil {
		return fmt.Errorf("link %s -> %s: %w", childName, parentName, err)
	}
	return nil
}

// Roles 列出已登记的角色
func (s *Service) Roles() ([]string, error) {
	if !s.ready() {
		return nil, ErrUnavailable
	}
	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 1, roleRegistry)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	roles := make([]string, 0, len(rules))
	for _, rule := range rules {
		roles = append(roles, rule[0])
	}
	slices.Sort(roles)
	return slices.Compact(roles), nil
}

// AssignRoles 用给定角色集合覆盖操作员原有角色
func (s *Service) AssignRoles(adminID uint, roles []string) error {
	if adminID == 0 {
		return ErrAdminRequired
	}
	if !s.ready() {
		return ErrUnavailable
	}
	subject := adminSubject(adminID)
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, subject); err != nil {
		return fmt.Errorf("clear roles of %s: %w", subject, err)
	}
	for _, role := range roles {
		name, err := s.registerRole(role)
		if err != nil {
			return err
		}
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, name); err != nil {
			return fmt.Errorf("assign %s to %s: %w", name, subject, err)
		}
	}
	return nil
}

// RolesOf 操作员直接持有的角色
func (s *Service) RolesOf(adminID uint) ([]string, error) {
	if adminID == 0 {
		return nil, ErrAdminRequired
	}
	if !s.ready() {
		return nil, ErrUnavailable
	}
	roles, err := s.enforcer.GetRolesForUser(adminSubject(adminID))
	if err != nil {
		return nil, fmt.Errorf("roles of admin %d: %w", adminID, err)
	}
	roles = slices.DeleteFunc(roles, func(role string) bool {
		return !strings.HasPrefix(role, rolePrefix) || role == roleRegistry
	})
	slices.Sort(roles)
	return roles, nil
}

func (s *Service) registerRole(role string) (string, error) {
	if !s.ready() {
		return "", ErrUnavailable
	}
	name, err := NormalizeRole(role)
	if err != nil {
		return "", err
	}
	if name == roleRegistry {
		return "", ErrReservedRole
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", name, roleRegistry); err != nil {
		return "", fmt.Errorf("register role %s: %w", name, err)
	}
	return name, nil
}

func adminSubject(adminID uint) string {
	return subjectPrefix + strconv.FormatUint(uint64(adminID), 10)
}

// NormalizeRole 补齐 role: 前缀，空白替换为下划线
func NormalizeRole(role string) (string, error) {
	name := strings.Join(strings.Fields(role), "_")
	name = strings.TrimPrefix(name, rolePrefix)
	if name == "" {
		return "", ErrRoleRequired
	}
	return rolePrefix + name, nil
}

// NormalizeObject 去掉 /api/v1 前缀，使策略与路由模板对齐
func NormalizeObject(object string) string {
	object = strings.TrimSpace(object)
	if !strings.HasPrefix(object, "/") {
		object = "/" + object
	}
	object = strings.TrimPrefix(object, routePrefix)
	if object == "" {
		return "/"
	}
	return object
}

// NormalizeAction 统一为大写 HTTP 方法
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
