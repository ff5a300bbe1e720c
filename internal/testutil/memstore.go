package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	workspacestore "github.com/dalemusser/familyhub/internal/app/store/workspaces"
	userstore "github.com/dalemusser/familyhub/internal/app/store/users"
	"github.com/dalemusser/familyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore is an in-memory stand-in for the workspace and user stores.
// It mirrors their single-document update semantics closely enough for
// service and handler tests. Methods return deep copies so callers cannot
// mutate stored state.
type MemStore struct {
	mu         sync.Mutex
	workspaces map[primitive.ObjectID]models.Workspace
	users      map[primitive.ObjectID]models.User

	// Writes counts successful mutating calls.
	Writes int
	// FailUsers makes GetByID/GetByIDs on users fail for these IDs.
	FailUsers map[primitive.ObjectID]error
	// Err, when set, is returned by every method.
	Err error
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		workspaces: make(map[primitive.ObjectID]models.Workspace),
		users:      make(map[primitive.ObjectID]models.User),
		FailUsers:  make(map[primitive.ObjectID]error),
	}
}

// Users returns a view of the store that satisfies user-store interfaces.
func (m *MemStore) Users() *MemUsers { return &MemUsers{m: m} }

func cloneWorkspace(ws models.Workspace) models.Workspace {
	ws.Members = append([]models.Member(nil), ws.Members...)
	if ws.Members == nil {
		ws.Members = []models.Member{}
	}
	if ws.InviteLink != nil {
		l := *ws.InviteLink
		ws.InviteLink = &l
	}
	return ws
}

// Put stores ws as-is (assigning an ID if missing) and returns it.
func (m *MemStore) Put(ws models.Workspace) models.Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ws.ID.IsZero() {
		ws.ID = primitive.NewObjectID()
	}
	m.workspaces[ws.ID] = cloneWorkspace(ws)
	return cloneWorkspace(ws)
}

// PutUser stores u as-is (assigning an ID if missing) and returns it.
func (m *MemStore) PutUser(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users[u.ID] = u
	return u
}

// Create mirrors workspacestore.Store.Create.
func (m *MemStore) Create(_ context.Context, ws models.Workspace) (models.Workspace, error) {
	if m.Err != nil {
		return models.Workspace{}, m.Err
	}
	now := time.Now().UTC()
	ws.ID = primitive.NewObjectID()
	ws.NameCI = text.Fold(ws.Name)
	ws.CreatedAt = now
	ws.UpdatedAt = now
	m.mu.Lock()
	m.workspaces[ws.ID] = cloneWorkspace(ws)
	m.Writes++
	m.mu.Unlock()
	return cloneWorkspace(ws), nil
}

func (m *MemStore) GetByID(_ context.Context, id primitive.ObjectID) (models.Workspace, error) {
	if m.Err != nil {
		return models.Workspace{}, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	if !ok {
		return models.Workspace{}, workspacestore.ErrNotFound
	}
	return cloneWorkspace(ws), nil
}

func (m *MemStore) GetByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Workspace, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[primitive.ObjectID]models.Workspace)
	for _, id := range ids {
		if ws, ok := m.workspaces[id]; ok {
			out[id] = cloneWorkspace(ws)
		}
	}
	return out, nil
}

func (m *MemStore) FindByInviteCode(_ context.Context, code string) (models.Workspace, error) {
	if m.Err != nil {
		return models.Workspace{}, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ws := range m.workspaces {
		if code != "" && ws.InviteLink != nil && ws.InviteLink.Code == code {
			return cloneWorkspace(ws), nil
		}
	}
	return models.Workspace{}, workspacestore.ErrNotFound
}

func (m *MemStore) ListForUser(_ context.Context, userID primitive.ObjectID, includeArchived bool) ([]models.Workspace, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Workspace{}
	for _, ws := range m.workspaces {
		if ws.Archived && !includeArchived {
			continue
		}
		if ws.HasMember(userID) {
			out = append(out, cloneWorkspace(ws))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameCI < out[j].NameCI })
	return out, nil
}

func (m *MemStore) SetInviteLink(_ context.Context, id primitive.ObjectID, link models.InviteLink) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	if !ok || ws.Kind != models.KindShared {
		return workspacestore.ErrNotShared
	}
	for otherID, other := range m.workspaces {
		if otherID != id && other.InviteLink != nil && other.InviteLink.Code == link.Code {
			return workspacestore.ErrDuplicateCode
		}
	}
	ws.InviteLink = &link
	m.workspaces[id] = ws
	m.Writes++
	return nil
}

func (m *MemStore) AddMemberViaInvite(_ context.Context, id primitive.ObjectID, code string, member models.Member) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	if !ok || ws.InviteLink == nil || ws.InviteLink.Code != code || ws.HasMember(member.UserID) {
		return false, nil
	}
	ws = cloneWorkspace(ws)
	ws.Members = append(ws.Members, member)
	ws.InviteLink.UsageCount++
	m.workspaces[id] = ws
	m.Writes++
	return true, nil
}

func (m *MemStore) RemoveMember(_ context.Context, id, userID primitive.ObjectID) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	if !ok || ws.OwnerID == userID {
		return false, nil
	}
	kept := make([]models.Member, 0, len(ws.Members))
	for _, mem := range ws.Members {
		if mem.UserID != userID {
			kept = append(kept, mem)
		}
	}
	if len(kept) == len(ws.Members) {
		return false, nil
	}
	ws.Members = kept
	m.workspaces[id] = ws
	m.Writes++
	return true, nil
}

func (m *MemStore) updateMember(id, userID primitive.ObjectID, fn func(*models.Member)) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	if !ok {
		return workspacestore.ErrNotFound
	}
	ws = cloneWorkspace(ws)
	for i := range ws.Members {
		if ws.Members[i].UserID == userID {
			fn(&ws.Members[i])
			m.workspaces[id] = ws
			m.Writes++
			return nil
		}
	}
	return workspacestore.ErrNotFound
}

func (m *MemStore) SetMemberRole(_ context.Context, id, userID primitive.ObjectID, role models.Role, perms models.PermissionSet) error {
	return m.updateMember(id, userID, func(mem *models.Member) {
		mem.Role = role
		mem.Permissions = perms
	})
}

func (m *MemStore) SetMemberColor(_ context.Context, id, userID primitive.ObjectID, color string) error {
	return m.updateMember(id, userID, func(mem *models.Member) {
		mem.CustomColor = color
	})
}

func (m *MemStore) SetArchived(_ context.Context, id primitive.ObjectID, archived bool) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	if !ok {
		return workspacestore.ErrNotFound
	}
	ws.Archived = archived
	m.workspaces[id] = ws
	m.Writes++
	return nil
}

// MemUsers is the user-store view of a MemStore.
type MemUsers struct {
	m *MemStore
}

func (u *MemUsers) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.m.Err != nil {
		return models.User{}, u.m.Err
	}
	if err := u.m.FailUsers[id]; err != nil {
		return models.User{}, err
	}
	usr, ok := u.m.users[id]
	if !ok {
		return models.User{}, userstore.ErrNotFound
	}
	return usr, nil
}

func (u *MemUsers) GetByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.m.Err != nil {
		return nil, u.m.Err
	}
	out := make(map[primitive.ObjectID]models.User, len(ids))
	for _, id := range ids {
		if usr, ok := u.m.users[id]; ok {
			out[id] = usr
		}
	}
	return out, nil
}

func (u *MemUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.m.Err != nil {
		return models.User{}, u.m.Err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, usr := range u.m.users {
		if usr.Email != "" && strings.ToLower(usr.Email) == email {
			return usr, nil
		}
	}
	return models.User{}, userstore.ErrNotFound
}

func (u *MemUsers) SetPersonalColor(_ context.Context, id primitive.ObjectID, color string) error {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if u.m.Err != nil {
		return u.m.Err
	}
	usr, ok := u.m.users[id]
	if !ok {
		return userstore.ErrNotFound
	}
	usr.PersonalColor = color
	u.m.users[id] = usr
	u.m.Writes++
	return nil
}

// ErrInjected is a convenience error for failure-injection tests.
var ErrInjected = errors.New("injected failure")
