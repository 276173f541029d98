package auth

import (
	"errors"

	"github.com/payledger/apiserver/types"
)

// ErrDenied is returned when the caller's role is not in the operation's
// required role set.
var ErrDenied = errors.New("access denied")

// Operation names guarded by the access gate.
const (
	OpUserCreate    = "users.create"
	OpUserList      = "users.list"
	OpPaymentCreate = "payments.create"
	OpPaymentList   = "payments.list"
	OpPaymentGet    = "payments.get"
	OpPaymentUpdate = "payments.update"
	OpPaymentDelete = "payments.delete"
	OpReceiptAttach = "payments.receipt.attach"
	OpReceiptOpen   = "payments.receipt.open"
)

// policy maps each guarded operation to the roles allowed to perform it.
// Keeping the table in one place avoids scattering role logic across handlers.
var policy = map[string][]types.Role{
	OpUserCreate:    {types.RoleAdmin},
	OpUserList:      {types.RoleAdmin},
	OpPaymentCreate: {types.RoleAdmin, types.RoleFinanceManager},
	OpPaymentList:   {types.RoleAdmin, types.RoleFinanceManager, types.RoleViewer},
	OpPaymentGet:    {types.RoleAdmin, types.RoleFinanceManager, types.RoleViewer},
	OpPaymentUpdate: {types.RoleAdmin, types.RoleFinanceManager},
	OpPaymentDelete: {types.RoleAdmin},
	OpReceiptAttach: {types.RoleAdmin, types.RoleFinanceManager},
	OpReceiptOpen:   {types.RoleAdmin, types.RoleFinanceManager, types.RoleViewer},
}

// RolesFor returns the required role set for an operation. Unknown
// operations return nil, which denies every caller.
func RolesFor(operation string) []types.Role {
	return policy[operation]
}

// Identity is the authenticated caller extracted from a validated token.
type Identity struct {
	Email string
	Role  types.Role
}

// Gate authorizes callers against the operation policy table.
type Gate struct {
	issuer *TokenIssuer
}

// NewGate constructs a Gate that validates tokens with the given issuer.
func NewGate(issuer *TokenIssuer) *Gate {
	return &Gate{issuer: issuer}
}

// Authorize validates the token and checks the embedded role against the
// operation's required role set. On success it returns the caller's identity
// for downstream use (e.g. attributing created-by).
func (g *Gate) Authorize(tokenString, operation string) (Identity, error) {
	email, role, err := g.issuer.Validate(tokenString)
	if err != nil {
		return Identity{}, err
	}

	for _, allowed := range RolesFor(operation) {
		if role == allowed {
			return Identity{Email: email, Role: role}, nil
		}
	}
	return Identity{}, ErrDenied
}
