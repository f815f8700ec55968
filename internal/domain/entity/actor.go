package entity

// Actor is the authenticated caller as seen by the engine: id, role and
// department, supplied by the auth middleware. The engine never authenticates,
// it only authorizes against this value.
type Actor struct {
	ID           string
	Role         string
	DepartmentID string
}

// CanManage is the single authorization capability used by every catalog and
// state-machine operation: admins manage everything, managers their own
// department, staff nothing.
func (a Actor) CanManage(departmentID string) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		return a.DepartmentID == departmentID
	default:
		return false
	}
}
