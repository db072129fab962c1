package models

// TargetConfig 描述身份组强制维护的目标用户。
// 用户名和用户 ID 必须同时匹配才会执行分配。
type TargetConfig struct {
	Username       string `json:"username" mapstructure:"username"`
	UserID         string `json:"user_id" mapstructure:"user_id"`
	HelperRoleName string `json:"helper_role_name" mapstructure:"helper_role_name"`
}

// GuardConfig represents the structure of the guard_config.json file.
type GuardConfig struct {
	Target TargetConfig `json:"target" mapstructure:"target"`
	// RoleAssignments 固定身份组映射：guild_id -> role_id。
	// 在此映射中的服务器直接分配指定身份组，不创建后备身份组。
	RoleAssignments map[string]string `json:"role_assignments" mapstructure:"role_assignments"`
}

// CommandsConfig holds the command authorization lists from config.yaml.
type CommandsConfig struct {
	Auth AuthConfig `json:"auth" mapstructure:"auth"`
}

// AuthConfig lists who may run privileged commands.
type AuthConfig struct {
	Developers  []string `json:"developers" mapstructure:"developers"`
	AdminsRoles []string `json:"admins_roles" mapstructure:"admins_roles"`
	Guest       []string `json:"guest" mapstructure:"guest"`
}
