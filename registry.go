package bankledger

import (
	"strings"
	"sync"
)

type registryEntry struct {
	userID  string
	name    string
	account *Account
}

// Registry maps user IDs, names and account numbers to accounts.
// User IDs and names compare case-insensitively. Several customers may share a
// name; name lookups resolve to whoever registered first.
type Registry struct {
	mu        sync.RWMutex
	byUserID  map[string]*registryEntry
	byAccount map[string]*registryEntry
	ordered   []*registryEntry
}

func NewRegistry() *Registry {
	return &Registry{
		byUserID:  make(map[string]*registryEntry),
		byAccount: make(map[string]*registryEntry),
	}
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (r *Registry) Register(userID, name string, acct *Account) error {
	key := foldKey(userID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUserID[key]; ok {
		return ErrDuplicateUserID{UserID: userID}
	}
	ent := &registryEntry{
		userID:  userID,
		name:    name,
		account: acct,
	}
	r.byUserID[key] = ent
	r.byAccount[acct.Number()] = ent
	r.ordered = append(r.ordered, ent)
	return nil
}

// Unregister removes userID and reports whether it was present.
func (r *Registry) Unregister(userID string) bool {
	key := foldKey(userID)
	r.mu.Lock()
	defer r.mu.Unlock()
	ent, ok := r.byUserID[key]
	if !ok {
		return false
	}
	delete(r.byUserID, key)
	delete(r.byAccount, ent.account.Number())
	for i, e := range r.ordered {
		if e == ent {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) FindByUserID(userID string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ent, ok := r.byUserID[foldKey(userID)]
	if !ok {
		return nil, ErrAccountNotFound{Key: userID}
	}
	return ent.account, nil
}

func (r *Registry) FindByAccountNumber(number string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ent, ok := r.byAccount[number]
	if !ok {
		return nil, ErrAccountNotFound{Key: number}
	}
	return ent.account, nil
}

// FindByUserIDOrName tries token as a user ID, then as a name.
func (r *Registry) FindByUserIDOrName(token string) (*Account, error) {
	key := foldKey(token)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ent, ok := r.byUserID[key]; ok {
		return ent.account, nil
	}
	for _, ent := range r.ordered {
		if strings.EqualFold(ent.name, strings.TrimSpace(token)) {
			return ent.account, nil
		}
	}
	return nil, ErrAccountNotFound{Key: token}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUserID)
}
