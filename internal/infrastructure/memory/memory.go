// Package memory provides in-memory implementations of the provider
// ports for tests and for running the admin service without a cloud
// account.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fomomon/admin/internal/domain"
)

// Directory is an in-memory identity directory.
type Directory struct {
	mu      sync.Mutex
	seq     int
	pools   map[string]string             // poolID -> name
	clients map[string]map[string]string  // poolID -> clientID -> name
	flows   map[string]int                // clientID -> times auth flows were asserted
	users   map[string]map[string]*dbUser // poolID -> username -> user

	Policy domain.PasswordPolicy
}

type dbUser struct {
	name     string
	email    string
	password string
	enabled  bool
}

func NewDirectory() *Directory {
	return &Directory{
		pools:   map[string]string{},
		clients: map[string]map[string]string{},
		flows:   map[string]int{},
		users:   map[string]map[string]*dbUser{},
		Policy:  domain.PasswordPolicy{MinimumLength: 8, RequireLowercase: true, RequireNumbers: true},
	}
}

func (d *Directory) nextID(prefix string) string {
	d.seq++
	return fmt.Sprintf("%s-%04d", prefix, d.seq)
}

func (d *Directory) FindUserPool(_ context.Context, name string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, n := range d.pools {
		if n == name {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (d *Directory) CreateUserPool(_ context.Context, name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID("pool")
	d.pools[id] = name
	d.clients[id] = map[string]string{}
	d.users[id] = map[string]*dbUser{}
	return id, nil
}

func (d *Directory) FindClient(_ context.Context, poolID, name string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, n := range d.clients[poolID] {
		if n == name {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (d *Directory) CreateClient(_ context.Context, poolID, name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pools[poolID]; !ok {
		return "", domain.ErrNotFound
	}
	id := d.nextID("client")
	d.clients[poolID][id] = name
	d.flows[id] = 1
	return id, nil
}

func (d *Directory) SetClientAuthFlows(_ context.Context, poolID, clientID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.clients[poolID][clientID]; !ok {
		return domain.ErrNotFound
	}
	d.flows[clientID]++
	return nil
}

func (d *Directory) ListUsers(_ context.Context, poolID string) ([]domain.DirectoryUser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []domain.DirectoryUser
	for username, u := range d.users[poolID] {
		out = append(out, domain.DirectoryUser{
			Username:          username,
			Email:             u.email,
			Name:              u.name,
			PreferredUsername: username,
			Status:            "CONFIRMED",
			Enabled:           u.enabled,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (d *Directory) CreateUser(_ context.Context, poolID, username, name, email, password string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	pool, ok := d.users[poolID]
	if !ok {
		return domain.ErrNotFound
	}
	if _, taken := pool[username]; taken {
		return domain.ErrAlreadyExists
	}
	if d.Policy.MinimumLength > 0 && len(password) < d.Policy.MinimumLength {
		return &domain.RejectedError{
			Code:    "InvalidPasswordException",
			Message: fmt.Sprintf("password does not satisfy minimum length %d", d.Policy.MinimumLength),
		}
	}
	pool[username] = &dbUser{name: name, email: email, password: password, enabled: true}
	return nil
}

func (d *Directory) SetPassword(_ context.Context, poolID, username, password string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[poolID][username]
	if !ok {
		return domain.ErrNotFound
	}
	if d.Policy.MinimumLength > 0 && len(password) < d.Policy.MinimumLength {
		return &domain.RejectedError{
			Code:    "InvalidPasswordException",
			Message: fmt.Sprintf("password does not satisfy minimum length %d", d.Policy.MinimumLength),
		}
	}
	u.password = password
	return nil
}

func (d *Directory) DeleteUser(_ context.Context, poolID, username string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.users[poolID][username]; !ok {
		return domain.ErrNotFound
	}
	delete(d.users[poolID], username)
	return nil
}

func (d *Directory) PasswordPolicy(_ context.Context, _ string) (domain.PasswordPolicy, error) {
	return d.Policy, nil
}

// PoolCount reports how many user pools exist.
func (d *Directory) PoolCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pools)
}

// Password returns the stored credential for a user.
func (d *Directory) Password(poolID, username string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[poolID][username]
	if !ok {
		return "", false
	}
	return u.password, true
}

// FlowAsserts reports how many times a client's auth flows were set,
// including the initial create.
func (d *Directory) FlowAsserts(clientID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flows[clientID]
}

// Federation is an in-memory federated identity broker.
type Federation struct {
	mu    sync.Mutex
	seq   int
	pools map[string]*fedPool
	roles map[string]map[string]string // poolID -> category -> roleARN
}

type fedPool struct {
	name     string
	provider string
	clientID string
}

func NewFederation() *Federation {
	return &Federation{
		pools: map[string]*fedPool{},
		roles: map[string]map[string]string{},
	}
}

func (f *Federation) FindIdentityPool(_ context.Context, name string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, p := range f.pools {
		if p.name == name {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (f *Federation) CreateIdentityPool(_ context.Context, name, providerName, clientID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("idpool-%04d", f.seq)
	f.pools[id] = &fedPool{name: name, provider: providerName, clientID: clientID}
	return id, nil
}

func (f *Federation) SetAuthenticatedRole(_ context.Context, poolID, roleARN string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pools[poolID]; !ok {
		return domain.ErrNotFound
	}
	f.roles[poolID] = map[string]string{"authenticated": roleARN}
	return nil
}

// Wiring returns the directory provider and client the pool trusts.
func (f *Federation) Wiring(poolID string) (provider, clientID string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pools[poolID]
	if !ok {
		return "", "", false
	}
	return p.provider, p.clientID, true
}

// AuthenticatedRole returns the role currently bound for authenticated
// principals.
func (f *Federation) AuthenticatedRole(poolID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	arn, ok := f.roles[poolID]["authenticated"]
	return arn, ok
}

// Roles is an in-memory role policy service.
type Roles struct {
	mu       sync.Mutex
	trust    map[string]string            // roleName -> trust document
	arns     map[string]string            // roleName -> ARN
	policies map[string]map[string]string // roleName -> policyName -> document
}

func NewRoles() *Roles {
	return &Roles{
		trust:    map[string]string{},
		arns:     map[string]string{},
		policies: map[string]map[string]string{},
	}
}

func (r *Roles) FindRole(_ context.Context, name string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	arn, ok := r.arns[name]
	return arn, ok, nil
}

func (r *Roles) CreateRole(_ context.Context, name, trustJSON string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.arns[name]; ok {
		return "", domain.ErrAlreadyExists
	}
	arn := "arn:aws:iam::000000000000:role/" + name
	r.arns[name] = arn
	r.trust[name] = trustJSON
	r.policies[name] = map[string]string{}
	return arn, nil
}

func (r *Roles) PutRolePolicy(_ context.Context, roleName, policyName, policyJSON string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.arns[roleName]; !ok {
		return domain.ErrNotFound
	}
	r.policies[roleName][policyName] = policyJSON
	return nil
}

// Policy returns the current inline policy document of a role.
func (r *Roles) Policy(roleName, policyName string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.policies[roleName][policyName]
	return doc, ok
}

// Trust returns the trust document the role was created with.
func (r *Roles) Trust(roleName string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.trust[roleName]
	return doc, ok
}

// Store is an in-memory object store.
type Store struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewStore() *Store {
	return &Store{objects: map[string][]byte{}}
}

func (s *Store) GetDocument(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(body))
	copy(out, body)
	return out, true, nil
}

func (s *Store) PutDocument(_ context.Context, key string, body []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(body))
	copy(stored, body)
	s.objects[key] = stored
	return nil
}

func (s *Store) ListKeys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) ListTopPrefixes(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	for k := range s.objects {
		if i := strings.Index(k, "/"); i > 0 {
			seen[k[:i]] = struct{}{}
		}
	}
	orgs := make([]string, 0, len(seen))
	for org := range seen {
		orgs = append(orgs, org)
	}
	sort.Strings(orgs)
	return orgs, nil
}
