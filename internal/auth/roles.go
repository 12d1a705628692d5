package auth

import "github.com/fjod/go_cart/shop-service/internal/domain"

type Permission string

const (
	ReadOwnOrders       Permission = "read_own_orders"
	ManageOwnOrders     Permission = "manage_own_orders"
	ReadAllOrders       Permission = "read_all_orders"
	ManageAllOrders     Permission = "manage_all_orders"
	ManageOwnOrderItems Permission = "manage_own_order_items"
	ReadAllUsers        Permission = "read_all_users"
	ManageUsers         Permission = "manage_users"
	ManageCatalog       Permission = "manage_catalog"
)

// RoleTable maps roles to granted permissions. It is built once and never
// mutated, so it is safe to share between requests.
type RoleTable struct {
	grants map[domain.Role]map[Permission]struct{}
}

func NewRoleTable(grants map[domain.Role][]Permission) RoleTable {
	t := RoleTable{grants: make(map[domain.Role]map[Permission]struct{}, len(grants))}
	for role, perms := range grants {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		t.grants[role] = set
	}
	return t
}

func DefaultRoleTable() RoleTable {
	own := []Permission{ReadOwnOrders, ManageOwnOrders, ManageOwnOrderItems}
	all := append(append([]Permission{}, own...),
		ReadAllOrders, ManageAllOrders, ReadAllUsers, ManageUsers, ManageCatalog)

	return NewRoleTable(map[domain.Role][]Permission{
		domain.RoleUser:  own,
		domain.RoleAdmin: all,
	})
}

// Allows reports whether role holds every one of perms. Unknown roles hold nothing.
func (t RoleTable) Allows(role domain.Role, perms ...Permission) bool {
	set, ok := t.grants[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}
