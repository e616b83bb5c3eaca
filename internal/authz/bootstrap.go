package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 店面预置角色矩阵。
// 后台管理员在店面只有访客权限，不能访问个人中心
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "guest",
			Policies: []Policy{
				{Object: "/session", Action: "POST"},
				{Object: "/catalog/*", Action: "GET"},
				{Object: "/search/*", Action: "*"},
				{Object: "/cart", Action: "GET"},
				{Object: "/cart/*", Action: "*"},
				{Object: "/wishlist", Action: "GET"},
				{Object: "/wishlist/*", Action: "POST"},
				{Object: "/checkout", Action: "GET"},
				{Object: "/checkout/*", Action: "POST"},
				{Object: "/auth/*", Action: "POST"},
				{Object: "/captcha/*", Action: "GET"},
				{Object: "/newsletter", Action: "POST"},
				{Object: "/contacts", Action: "POST"},
			},
		},
		{
			Role:     "admin",
			Inherits: []string{"guest"},
		},
		{
			Role:     "customer",
			Inherits: []string{"guest"},
			Policies: []Policy{
				{Object: "/me", Action: "GET"},
				{Object: "/me/profile", Action: "PUT"},
				{Object: "/me/password", Action: "PUT"},
				{Object: "/me/orders", Action: "GET"},
			},
		},
	}
}

// BootstrapBuiltinRoles 按预置矩阵同步角色策略：补齐缺失策略并撤销矩阵中已不存在的策略。
// 策略持久化在 casbin_rule 表，路由调整后重启即可收敛
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return fmt.Errorf("create builtin role failed: %w", err)
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		wanted := make(map[string]struct{}, len(seed.Policies))
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
			wanted[policyKey(policy.Object, policy.Action)] = struct{}{}
		}

		current, err := s.GetRolePolicies(role)
		if err != nil {
			return err
		}
		for _, policy := range current {
			if _, ok := wanted[policyKey(policy.Object, policy.Action)]; ok {
				continue
			}
			if err := s.RevokeRolePolicy(role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("revoke stale policy failed: %w", err)
			}
		}
	}
	return nil
}

func policyKey(object, action string) string {
	return NormalizeObject(object) + " " + NormalizeAction(action)
}
