package auth

// Operation names an action guarded by the access policy.
type Operation string

const (
	OpViewProfile       Operation = "profile:view"
	OpListUsers         Operation = "users:list"
	OpManageProducts    Operation = "products:manage"
	OpPlaceOrder        Operation = "orders:place"
	OpViewOrders        Operation = "orders:view"
	OpViewAllOrders     Operation = "orders:view_all"
	OpUpdateOrderStatus Operation = "orders:update_status"
	OpManageCart        Operation = "cart:manage"
	OpViewReports       Operation = "reports:view"
)

func (o Operation) String() string {
	return string(o)
}

type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

var policy = map[Operation]map[Role]bool{
	OpViewProfile:       {RoleCustomer: true, RoleAdmin: true},
	OpPlaceOrder:        {RoleCustomer: true, RoleAdmin: true},
	OpViewOrders:        {RoleCustomer: true, RoleAdmin: true},
	OpManageCart:        {RoleCustomer: true, RoleAdmin: true},
	OpListUsers:         {RoleAdmin: true},
	OpManageProducts:    {RoleAdmin: true},
	OpViewAllOrders:     {RoleAdmin: true},
	OpUpdateOrderStatus: {RoleAdmin: true},
	OpViewReports:       {RoleAdmin: true},
}

// Authorize decides whether role may perform op. Unknown roles and operations are denied.
func Authorize(role Role, op Operation) Decision {
	if policy[op][role] {
		return Allow
	}
	return Deny
}
