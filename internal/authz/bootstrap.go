package authz

const (
	// RoleDonationAuditor 只读查看捐赠与追踪
	RoleDonationAuditor = "donation_auditor"
	// RoleDonationOperator 推进捐赠状态并代发取件码
	RoleDonationOperator = "donation_operator"
)

type builtinRole struct {
	name     string
	inherits []string
	policies []Policy
}

var builtinRoles = []builtinRole{
	{
		name:     RoleDonationAuditor,
		policies: []Policy{{Object: "/admin/*", Action: "GET"}},
	},
	{
		name:     RoleDonationOperator,
		inherits: []string{RoleDonationAuditor},
		policies: []Policy{
			{Object: "/admin/donations/:id/status", Action: "PATCH"},
			{Object: "/admin/donations/:id/otp", Action: "POST"},
		},
	},
}

// SeedBuiltinRoles 幂等写入预置角色、继承关系与策略
func (s *Service) SeedBuiltinRoles() error {
	if !s.ready() {
		return ErrUnavailable
	}
	for _, role := range builtinRoles {
		if _, err := s.registerRole(role.name); err != nil {
			return err
		}
		for _, parent := range role.inherits {
			if err := s.Inherit(role.name, parent); err != nil {
				return err
			}
		}
		for _, policy := range role.policies {
			if err := s.Grant(role.name, policy); err != nil {
				return err
			}
		}
	}
	return nil
}
