// Copyright (C) 2025 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/objectstore"
	"github.com/inkvault-dev/inkvault/shared"
	"gorm.io/gorm"
)

// errDuplicateKey mimics the postgres error text the duplicate-key
// helper looks for.
var errDuplicateKey = errors.New("ERROR: duplicate key value violates unique constraint (fake)")

type fakeBase struct{}

func (f *fakeBase) Transaction(fn func(tx *gorm.DB) error) error { return fn(nil) }
func (f *fakeBase) GetDB(tx *gorm.DB) *gorm.DB                   { return tx }

type fakeProjectRepo struct {
	fakeBase
	mu       sync.Mutex
	projects map[uuid.UUID]models.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: map[uuid.UUID]models.Project{}}
}

func (f *fakeProjectRepo) Create(tx *gorm.DB, p *models.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.projects {
		if existing.ProjectID == p.ProjectID {
			return errDuplicateKey
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.projects[p.ID] = *p
	return nil
}

func (f *fakeProjectRepo) Read(id uuid.UUID) (models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return models.Project{}, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeProjectRepo) Update(tx *gorm.DB, p *models.Project) error { return f.Save(tx, p) }

func (f *fakeProjectRepo) Save(tx *gorm.DB, p *models.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[p.ID] = *p
	return nil
}

func (f *fakeProjectRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.projects, id)
	return nil
}

func (f *fakeProjectRepo) All() ([]models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Project
	for _, p := range f.projects {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProjectRepo) ReadByProjectID(projectID string) (models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p.ProjectID == projectID {
			return p, nil
		}
	}
	return models.Project{}, gorm.ErrRecordNotFound
}

func (f *fakeProjectRepo) ListByMember(userID string) ([]models.Project, error) {
	return f.All()
}

type fakeBranchRepo struct {
	fakeBase
	mu       sync.Mutex
	branches map[uuid.UUID]models.Branch
}

func newFakeBranchRepo() *fakeBranchRepo {
	return &fakeBranchRepo{branches: map[uuid.UUID]models.Branch{}}
}

func (f *fakeBranchRepo) Create(tx *gorm.DB, b *models.Branch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// mirrors the partial unique index over active branch names
	if b.Status == models.BranchStatusActive {
		for _, existing := range f.branches {
			if existing.ProjectID == b.ProjectID && existing.Name == b.Name && existing.Status == models.BranchStatusActive {
				return errors.New("ERROR: duplicate key value violates unique constraint \"idx_branch_name_active\"")
			}
		}
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	f.branches[b.ID] = *b
	return nil
}

func (f *fakeBranchRepo) Read(id uuid.UUID) (models.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.branches[id]
	if !ok {
		return models.Branch{}, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (f *fakeBranchRepo) Update(tx *gorm.DB, b *models.Branch) error { return f.Save(tx, b) }

func (f *fakeBranchRepo) Save(tx *gorm.DB, b *models.Branch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.branches[b.ID] = *b
	return nil
}

func (f *fakeBranchRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.branches, id)
	return nil
}

func (f *fakeBranchRepo) All() ([]models.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Branch
	for _, b := range f.branches {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBranchRepo) FindActiveByName(projectID uuid.UUID, name string) (models.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.branches {
		if b.ProjectID == projectID && b.Name == name && b.Status != models.BranchStatusDeleted {
			return b, nil
		}
	}
	return models.Branch{}, gorm.ErrRecordNotFound
}

func (f *fakeBranchRepo) FindPrimary(projectID uuid.UUID) (models.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.branches {
		if b.ProjectID == projectID && b.IsPrimary {
			return b, nil
		}
	}
	return models.Branch{}, gorm.ErrRecordNotFound
}

func (f *fakeBranchRepo) ListByProject(projectID uuid.UUID) ([]models.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Branch
	for _, b := range f.branches {
		if b.ProjectID == projectID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeCommitRepo struct {
	fakeBase
	mu      sync.Mutex
	commits map[uuid.UUID]models.Commit
	order   []uuid.UUID
}

func newFakeCommitRepo() *fakeCommitRepo {
	return &fakeCommitRepo{commits: map[uuid.UUID]models.Commit{}}
}

func (f *fakeCommitRepo) Create(tx *gorm.DB, c *models.Commit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.commits {
		if existing.Hash == c.Hash {
			return errDuplicateKey
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.commits[c.ID] = *c
	f.order = append(f.order, c.ID)
	return nil
}

func (f *fakeCommitRepo) Read(id uuid.UUID) (models.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.commits[id]
	if !ok {
		return models.Commit{}, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeCommitRepo) Update(tx *gorm.DB, c *models.Commit) error { return f.Save(tx, c) }

func (f *fakeCommitRepo) Save(tx *gorm.DB, c *models.Commit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits[c.ID] = *c
	return nil
}

func (f *fakeCommitRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.commits, id)
	return nil
}

func (f *fakeCommitRepo) All() ([]models.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Commit
	for _, c := range f.commits {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCommitRepo) FindByHash(hash string) (models.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.commits {
		if c.Hash == hash {
			return c, nil
		}
	}
	return models.Commit{}, gorm.ErrRecordNotFound
}

// newestFirst orders by timestamp, falling back to reverse insertion
// order when two commits land in the same millisecond.
func (f *fakeCommitRepo) newestFirst(match func(models.Commit) bool, limit int) []models.Commit {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Commit
	for i := len(f.order) - 1; i >= 0; i-- {
		c := f.commits[f.order[i]]
		if match(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeCommitRepo) ListByBranch(branchID uuid.UUID, limit int) ([]models.Commit, error) {
	return f.newestFirst(func(c models.Commit) bool { return c.BranchID == branchID }, limit), nil
}

func (f *fakeCommitRepo) ListByProject(projectID uuid.UUID, limit int) ([]models.Commit, error) {
	return f.newestFirst(func(c models.Commit) bool { return c.ProjectID == projectID }, limit), nil
}

type fakeMergeRequestRepo struct {
	fakeBase
	mu  sync.Mutex
	mrs map[uuid.UUID]models.MergeRequest
}

func newFakeMergeRequestRepo() *fakeMergeRequestRepo {
	return &fakeMergeRequestRepo{mrs: map[uuid.UUID]models.MergeRequest{}}
}

func (f *fakeMergeRequestRepo) Create(tx *gorm.DB, m *models.MergeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.mrs {
		if existing.ProjectID == m.ProjectID && existing.MergeRequestID == m.MergeRequestID {
			return errDuplicateKey
		}
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	f.mrs[m.ID] = *m
	return nil
}

func (f *fakeMergeRequestRepo) Read(id uuid.UUID) (models.MergeRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.mrs[id]
	if !ok {
		return models.MergeRequest{}, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (f *fakeMergeRequestRepo) Update(tx *gorm.DB, m *models.MergeRequest) error { return f.Save(tx, m) }

func (f *fakeMergeRequestRepo) Save(tx *gorm.DB, m *models.MergeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mrs[m.ID] = *m
	return nil
}

func (f *fakeMergeRequestRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.mrs, id)
	return nil
}

func (f *fakeMergeRequestRepo) All() ([]models.MergeRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MergeRequest
	for _, m := range f.mrs {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMergeRequestRepo) NextSequence(projectID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	maxSeq := 0
	for _, m := range f.mrs {
		if m.ProjectID == projectID && m.MergeRequestID > maxSeq {
			maxSeq = m.MergeRequestID
		}
	}
	return maxSeq + 1, nil
}

func (f *fakeMergeRequestRepo) FindBySequence(projectID uuid.UUID, mergeRequestID int) (models.MergeRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.mrs {
		if m.ProjectID == projectID && m.MergeRequestID == mergeRequestID {
			return m, nil
		}
	}
	return models.MergeRequest{}, gorm.ErrRecordNotFound
}

func (f *fakeMergeRequestRepo) ListByProject(projectID uuid.UUID, status *models.MergeRequestStatus) ([]models.MergeRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MergeRequest
	for _, m := range f.mrs {
		if m.ProjectID != projectID {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MergeRequestID < out[j].MergeRequestID })
	return out, nil
}

func (f *fakeMergeRequestRepo) ExistsOpenForSource(projectID uuid.UUID, sourceBranch string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.mrs {
		if m.ProjectID == projectID && m.SourceBranch == sourceBranch &&
			(m.Status == models.MergeRequestStatusOpen || m.Status == models.MergeRequestStatusApproved) {
			return true, nil
		}
	}
	return false, nil
}

type fakeTeamMemberRepo struct {
	fakeBase
	mu      sync.Mutex
	members map[uuid.UUID]models.TeamMember
	order   []uuid.UUID
}

func newFakeTeamMemberRepo() *fakeTeamMemberRepo {
	return &fakeTeamMemberRepo{members: map[uuid.UUID]models.TeamMember{}}
}

func (f *fakeTeamMemberRepo) Create(tx *gorm.DB, m *models.TeamMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.members {
		if existing.ProjectID == m.ProjectID && existing.UserID == m.UserID {
			return errDuplicateKey
		}
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	f.members[m.ID] = *m
	f.order = append(f.order, m.ID)
	return nil
}

func (f *fakeTeamMemberRepo) Read(id uuid.UUID) (models.TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[id]
	if !ok {
		return models.TeamMember{}, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (f *fakeTeamMemberRepo) Update(tx *gorm.DB, m *models.TeamMember) error { return f.Save(tx, m) }

func (f *fakeTeamMemberRepo) Save(tx *gorm.DB, m *models.TeamMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[m.ID] = *m
	return nil
}

func (f *fakeTeamMemberRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members, id)
	return nil
}

func (f *fakeTeamMemberRepo) All() ([]models.TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TeamMember
	for _, m := range f.members {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeTeamMemberRepo) FindMember(projectID uuid.UUID, userID string) (models.TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members {
		if m.ProjectID == projectID && m.UserID == userID {
			return m, nil
		}
	}
	return models.TeamMember{}, gorm.ErrRecordNotFound
}

func (f *fakeTeamMemberRepo) ListByProject(projectID uuid.UUID) ([]models.TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TeamMember
	for _, id := range f.order {
		m := f.members[id]
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeTeamMemberRepo) ListActive(projectID uuid.UUID) ([]models.TeamMember, error) {
	all, _ := f.ListByProject(projectID)
	var out []models.TeamMember
	for _, m := range all {
		if m.Status == models.MemberStatusActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeTeamMemberRepo) FindByInvitationToken(token string) (models.TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members {
		if m.InvitationToken != nil && *m.InvitationToken == token {
			return m, nil
		}
	}
	return models.TeamMember{}, gorm.ErrRecordNotFound
}

func (f *fakeTeamMemberRepo) CountActiveManagers(projectID uuid.UUID) (int64, error) {
	active, _ := f.ListActive(projectID)
	var count int64
	for _, m := range active {
		if models.NormalizeRole(m.Role) == models.RoleManager {
			count++
		}
	}
	return count, nil
}

type fakeUserRepo struct {
	fakeBase
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]models.User{}}
}

func (f *fakeUserRepo) Create(tx *gorm.DB, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.UserID == u.UserID || existing.Email == u.Email {
			return errDuplicateKey
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUserRepo) Read(id uuid.UUID) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) Update(tx *gorm.DB, u *models.User) error { return f.Save(tx, u) }

func (f *fakeUserRepo) Save(tx *gorm.DB, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUserRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) All() ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserRepo) FindByUserID(userID string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.UserID == userID {
			return u, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByEmail(email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpsertByUserID(tx *gorm.DB, user *models.User) error {
	existing, err := f.FindByUserID(user.UserID)
	if err == nil {
		user.ID = existing.ID
		return f.Save(tx, user)
	}
	return f.Create(tx, user)
}

// fakeNotifier records outgoing mail.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) record(kind, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, kind+":"+to)
	return nil
}

func (f *fakeNotifier) SendInvitation(ctx context.Context, to, projectName, token string) error {
	return f.record("invitation", to)
}

func (f *fakeNotifier) SendMergeRequestCreated(ctx context.Context, to, projectName, title string) error {
	return f.record("mr_created", to)
}

func (f *fakeNotifier) SendMergeRequestApproved(ctx context.Context, to, projectName, title string) error {
	return f.record("mr_approved", to)
}

func (f *fakeNotifier) SendChangesRequested(ctx context.Context, to, projectName, title, comment string) error {
	return f.record("changes_requested", to)
}

// capturingBroker records every published message for assertions.
type capturingBroker struct {
	mu       sync.Mutex
	messages []shared.PubSubMessage
}

func (b *capturingBroker) Publish(ctx context.Context, message shared.PubSubMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, message)
	return nil
}

func (b *capturingBroker) Subscribe(topic shared.PubSubChannel) (<-chan map[string]any, error) {
	ch := make(chan map[string]any)
	close(ch)
	return ch, nil
}

func (b *capturingBroker) Unsubscribe(topic shared.PubSubChannel, ch <-chan map[string]any) {}

func (b *capturingBroker) eventKinds() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var kinds []string
	for _, msg := range b.messages {
		if kind, ok := msg.GetPayload()["event"].(string); ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

var _ shared.ProjectRepository = (*fakeProjectRepo)(nil)
var _ shared.BranchRepository = (*fakeBranchRepo)(nil)
var _ shared.CommitRepository = (*fakeCommitRepo)(nil)
var _ shared.MergeRequestRepository = (*fakeMergeRequestRepo)(nil)
var _ shared.TeamMemberRepository = (*fakeTeamMemberRepo)(nil)
var _ shared.UserRepository = (*fakeUserRepo)(nil)
var _ shared.Notifier = (*fakeNotifier)(nil)
var _ shared.PubSubBroker = (*capturingBroker)(nil)

// testEnv wires every service against in-memory repositories and a
// filesystem-backed object store rooted in a test temp dir.
type testEnv struct {
	projects *fakeProjectRepo
	branches *fakeBranchRepo
	commits  *fakeCommitRepo
	mrs      *fakeMergeRequestRepo
	members  *fakeTeamMemberRepo
	users    *fakeUserRepo
	broker   *capturingBroker
	notifier *fakeNotifier
	store    *objectstore.Store

	projectService *ProjectService
	branchService  *BranchService
	commitService  *CommitService
	mrService      *MergeRequestService
	teamService    *TeamService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend, err := objectstore.NewFSBackend(t.TempDir())
	if err != nil {
		t.Fatalf("fs backend: %v", err)
	}

	env := &testEnv{
		projects: newFakeProjectRepo(),
		branches: newFakeBranchRepo(),
		commits:  newFakeCommitRepo(),
		mrs:      newFakeMergeRequestRepo(),
		members:  newFakeTeamMemberRepo(),
		users:    newFakeUserRepo(),
		broker:   &capturingBroker{},
		notifier: &fakeNotifier{},
		store:    objectstore.NewStore(backend, 10<<20, 5*time.Second),
	}

	events := NewEventPublisher(env.broker)
	locks := NewProjectLocks()

	env.projectService = NewProjectService(env.projects, env.branches, env.members, events)
	env.branchService = NewBranchService(env.branches, env.commits, env.mrs, env.store, events, locks)
	env.commitService = NewCommitService(env.branches, env.commits, env.store, events, locks)
	env.mrService = NewMergeRequestService(env.mrs, env.branches, env.commits, env.members, env.store, events, env.notifier, locks)
	env.teamService = NewTeamService(env.members, env.users, env.projects, events, env.notifier, locks)
	return env
}

// seedProject creates a project as the given manager and returns it with
// its primary branch.
func (env *testEnv) seedProject(t *testing.T, manager Actor) (models.Project, models.Branch) {
	t.Helper()

	project, err := env.projectService.CreateProject(context.Background(), manager, "acme-design", "Acme Design", "")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	primary, err := env.branches.FindPrimary(project.ID)
	if err != nil {
		t.Fatalf("find primary: %v", err)
	}
	return project, primary
}

// addActiveMember registers an active member directly, bypassing the
// invitation round trip.
func (env *testEnv) addActiveMember(t *testing.T, project models.Project, userID, email string, role models.Role) {
	t.Helper()

	now := time.Now()
	member := models.TeamMember{
		ProjectID: project.ID,
		UserID:    userID,
		Email:     email,
		Role:      role,
		Status:    models.MemberStatusActive,
		InvitedAt: now,
		JoinedAt:  &now,
	}
	if err := env.members.Create(nil, &member); err != nil {
		t.Fatalf("add member: %v", err)
	}
}
