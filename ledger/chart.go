/*
chart.go - Chart of accounts registry

PURPOSE:
  Maintains the account forest that every other component treats as
  read-mostly reference data. Accounts are created at setup time and
  soft-deactivated once referenced; hard deletion is only possible while
  nothing points at them.

INVARIANTS:
  - An account's normal balance matches its type's conventional polarity
    (assets/expenses debit; liabilities/equity/revenue credit; contra inverts).
  - Account numbers are unique within the chart.
  - Parent links never form a cycle and never point at an inactive account
    at creation time.
  - Deleting an account with children or journal lines is a conflict.

SEE ALSO:
  - defaults.go: The standard retail chart used by bootstrap
  - statement.go: Consumes the tree for hierarchical rollups
*/
package ledger

import (
	"context"
	"sort"
	"time"
)

// AccountSpec is the input for creating an account.
type AccountSpec struct {
	Number        string
	Name          string
	Type          AccountType
	Subtype       AccountSubtype
	NormalBalance NormalBalance
	ParentID      string
	Description   string
}

// AccountNode is one node of the materialized account tree.
type AccountNode struct {
	Account  Account
	Children []*AccountNode
}

// ChartService manages the chart of accounts.
type ChartService struct {
	store Store
}

func NewChartService(store Store) *ChartService {
	return &ChartService{store: store}
}

// CreateAccount validates and persists a new account.
func (s *ChartService) CreateAccount(ctx context.Context, spec AccountSpec) (*Account, error) {
	if spec.Number == "" {
		return nil, validationf("missing_number", "account number is required")
	}
	if spec.Name == "" {
		return nil, validationf("missing_name", "account name is required")
	}
	if !spec.Type.Valid() {
		return nil, validationf("bad_account_type", "unknown account type %q", spec.Type)
	}
	if !spec.Subtype.Valid() {
		return nil, validationf("bad_subtype", "unknown account subtype %q", spec.Subtype)
	}
	if want := spec.Type.ConventionalBalance(); spec.NormalBalance != want {
		return nil, validationf("bad_normal_balance",
			"%s accounts carry a %s normal balance, got %s", spec.Type, want, spec.NormalBalance)
	}

	if existing, err := s.store.GetAccountByNumber(ctx, spec.Number); err == nil && existing != nil {
		return nil, validationf("duplicate_number", "account number %s already exists", spec.Number)
	} else if err != nil && !IsNotFound(err) {
		return nil, err
	}

	if spec.ParentID != "" {
		parent, err := s.store.GetAccount(ctx, spec.ParentID)
		if err != nil {
			if IsNotFound(err) {
				return nil, validationf("bad_parent", "parent account %s does not exist", spec.ParentID)
			}
			return nil, err
		}
		if !parent.Active {
			return nil, validationf("inactive_parent", "parent account %s is inactive", parent.Number)
		}
	}

	a := Account{
		ID:            NewID("acct"),
		Number:        spec.Number,
		Name:          spec.Name,
		Type:          spec.Type,
		Subtype:       spec.Subtype,
		NormalBalance: spec.NormalBalance,
		ParentID:      spec.ParentID,
		Description:   spec.Description,
		Active:        true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.InsertAccount(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAccount returns an account by ID.
func (s *ChartService) GetAccount(ctx context.Context, id string) (*Account, error) {
	return s.store.GetAccount(ctx, id)
}

// GetAccountByNumber returns an account by its display number.
func (s *ChartService) GetAccountByNumber(ctx context.Context, number string) (*Account, error) {
	return s.store.GetAccountByNumber(ctx, number)
}

// ListAccounts returns every account ordered by number.
func (s *ChartService) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.store.ListAccounts(ctx)
}

// Reparent moves an account under a new parent (empty = top-level),
// rejecting any assignment that would create a cycle.
func (s *ChartService) Reparent(ctx context.Context, id, newParentID string) error {
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	if newParentID != "" {
		if newParentID == id {
			return validationf("parent_cycle", "account cannot be its own parent")
		}
		accounts, err := s.store.ListAccounts(ctx)
		if err != nil {
			return err
		}
		byID := make(map[string]Account, len(accounts))
		for _, acc := range accounts {
			byID[acc.ID] = acc
		}
		if _, ok := byID[newParentID]; !ok {
			return validationf("bad_parent", "parent account %s does not exist", newParentID)
		}
		// Walk up from the new parent; hitting the account means a cycle.
		for cur := newParentID; cur != ""; {
			if cur == id {
				return validationf("parent_cycle",
					"moving %s under %s would create a cycle", a.Number, byID[newParentID].Number)
			}
			cur = byID[cur].ParentID
		}
	}
	a.ParentID = newParentID
	return s.store.UpdateAccount(ctx, *a)
}

// DeactivateAccount soft-deletes an account. Always allowed; balances of an
// inactive account remain queryable for history.
func (s *ChartService) DeactivateAccount(ctx context.Context, id string) error {
	return s.setActive(ctx, id, false)
}

// ReactivateAccount undoes a soft delete.
func (s *ChartService) ReactivateAccount(ctx context.Context, id string) error {
	return s.setActive(ctx, id, true)
}

func (s *ChartService) setActive(ctx context.Context, id string, active bool) error {
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	if a.Active == active {
		return nil
	}
	a.Active = active
	return s.store.UpdateAccount(ctx, *a)
}

// DeleteAccount hard-deletes an account. Fails with a conflict if any journal
// line (draft or posted) references it or if it has child accounts.
func (s *ChartService) DeleteAccount(ctx context.Context, id string) error {
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return err
	}

	referenced, err := s.store.AccountHasLines(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return conflictf("account_referenced",
			"account %s is referenced by journal lines; deactivate it instead", a.Number)
	}

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return err
	}
	for _, child := range accounts {
		if child.ParentID == id {
			return conflictf("account_has_children",
				"account %s has child accounts", a.Number)
		}
	}

	return s.store.DeleteAccount(ctx, id)
}

// AccountTree materializes the subtree rooted at rootID, or the full forest
// when rootID is empty. Children are ordered by account number at every level.
func (s *ChartService) AccountTree(ctx context.Context, rootID string) ([]*AccountNode, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*AccountNode, len(accounts))
	for _, a := range accounts {
		nodes[a.ID] = &AccountNode{Account: a}
	}

	var roots []*AccountNode
	for _, a := range accounts {
		n := nodes[a.ID]
		if a.ParentID != "" {
			if parent, ok := nodes[a.ParentID]; ok {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	sortNodes := func(ns []*AccountNode) {
		sort.Slice(ns, func(i, j int) bool {
			return ns[i].Account.Number < ns[j].Account.Number
		})
	}
	var sortTree func(ns []*AccountNode)
	sortTree = func(ns []*AccountNode) {
		sortNodes(ns)
		for _, n := range ns {
			sortTree(n.Children)
		}
	}
	sortTree(roots)

	if rootID == "" {
		return roots, nil
	}
	root, ok := nodes[rootID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return []*AccountNode{root}, nil
}
