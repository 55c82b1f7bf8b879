package auth

// Role 调用者角色
type Role string

const (
	// RoleAdmin 管理员,可创建全局标准模板
	RoleAdmin Role = "admin"
	// RoleMember 普通成员
	RoleMember Role = "member"
)

// Principal 已认证的调用者
// 每个入口都收到一个带公司、角色和权限集的主体,
// 认证本身由外部完成
type Principal struct {
	UserID      string
	Name        string // 显示名,清单项 completed_by 的快照来源
	CompanyID   string
	Role        Role
	Permissions []string
}

// IsAdmin 判断调用者是否为管理员
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Can 判断调用者是否持有指定权限
func (p *Principal) Can(permission string) bool {
	if p == nil {
		return false
	}
	for _, perm := range p.Permissions {
		if perm == permission {
			return true
		}
	}
	return false
}
