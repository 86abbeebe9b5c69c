package model

// Role はアカウントに付与される権限ロール。
// 閉じた列挙として定義し、認可判定は文字列の部分照合ではなく
// ケイパビリティ述語（CanViewAllTransfers等）を通して行う。
type Role string

const (
	// RoleUser は一般参加者。自分が関与する送金のみ閲覧できる。
	RoleUser Role = "user"
	// RoleManager は管理者。全送金の閲覧とモデレーションができる。
	RoleManager Role = "manager"
)

// ParseRole は文字列をRoleに変換する。未知のロールはfalseを返す。
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleManager:
		return Role(s), true
	default:
		return "", false
	}
}

// ParseRoles は文字列スライスを検証済みのRoleスライスに変換する。
// 未知のロールはスキップし、既知のもののみ返す。
func ParseRoles(ss []string) []Role {
	roles := make([]Role, 0, len(ss))
	for _, s := range ss {
		if r, ok := ParseRole(s); ok {
			roles = append(roles, r)
		}
	}
	return roles
}

// RoleStrings はRoleスライスを文字列スライスに変換する。永続化用。
func RoleStrings(roles []Role) []string {
	ss := make([]string, len(roles))
	for i, r := range roles {
		ss[i] = string(r)
	}
	return ss
}

// Principal は操作を試みる認証済みの主体を表す。
// 認証サブシステムが生成し、コアは読み取り専用で扱う。
type Principal struct {
	ID    string
	Roles []Role
}

// hasRole はロールの完全一致による所持判定。述語の内部実装専用。
func (p *Principal) hasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanViewAllTransfers は全送金を無制限に閲覧できるかを返す。
func (p *Principal) CanViewAllTransfers() bool {
	return p.hasRole(RoleManager)
}

// CanModerateTransfers は任意の送金を更新・削除できるかを返す。
func (p *Principal) CanModerateTransfers() bool {
	return p.hasRole(RoleManager)
}

// CanEditProfiles は他アカウントのプロフィールを編集できるかを返す。
func (p *Principal) CanEditProfiles() bool {
	return p.hasRole(RoleManager)
}
