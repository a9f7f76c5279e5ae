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
	"log/slog"
	"strings"
	"time"

	"github.com/inkvault-dev/inkvault/config"
	"github.com/inkvault-dev/inkvault/database"
	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/shared"
	"gorm.io/gorm"
)

type TeamService struct {
	memberRepo  shared.TeamMemberRepository
	userRepo    shared.UserRepository
	projectRepo shared.ProjectRepository
	events      *EventPublisher
	notifier    shared.Notifier
	locks       *ProjectLocks
}

func NewTeamService(memberRepo shared.TeamMemberRepository, userRepo shared.UserRepository, projectRepo shared.ProjectRepository, events *EventPublisher, notifier shared.Notifier, locks *ProjectLocks) *TeamService {
	return &TeamService{
		memberRepo:  memberRepo,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		events:      events,
		notifier:    notifier,
		locks:       locks,
	}
}

func (s *TeamService) List(project models.Project) ([]models.TeamMember, error) {
	members, err := s.memberRepo.ListByProject(project.ID)
	if err != nil {
		return nil, shared.WrapAPIError(shared.ErrorKindInternal, "could not list team members", err)
	}
	return members, nil
}

// Invite adds a pending member and mails them an invitation token. A
// user record is created as a placeholder when the email is unknown.
func (s *TeamService) Invite(ctx context.Context, project models.Project, actor Actor, email string, role models.Role) (models.TeamMember, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	unlock := s.locks.Lock(project.ID)
	defer unlock()

	user, err := s.userRepo.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			UserID: NewPlaceholderUserID(),
			Email:  email,
		}
		if err := s.userRepo.Create(nil, &user); err != nil {
			return models.TeamMember{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not create placeholder user", err)
		}
	} else if err != nil {
		return models.TeamMember{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not look up user", err)
	}

	token := NewInvitationToken()
	member := models.TeamMember{
		ProjectID:       project.ID,
		UserID:          user.UserID,
		Email:           email,
		Role:            models.NormalizeRole(role),
		Status:          models.MemberStatusPending,
		InvitationToken: &token,
		InvitedAt:       time.Now(),
	}
	if err := s.memberRepo.Create(nil, &member); err != nil {
		if database.IsDuplicateKeyError(err) {
			return models.TeamMember{}, shared.NewAPIError(shared.ErrorKindConflict, "user is already a member of this project")
		}
		return models.TeamMember{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not create team member", err)
	}

	s.events.Emit(project.ID, shared.EventMemberAdded, member)
	if project.Settings.Notifications {
		go func() {
			mailCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.notifier.SendInvitation(mailCtx, email, project.Name, token); err != nil {
				slog.Warn("could not send invitation mail", "to", email, "err", err)
			}
		}()
	}

	slog.Info("member invited", "project", project.ProjectID, "email", email, "role", member.Role, "actor", actor.UserID)
	return member, nil
}

// AcceptInvitation activates a pending membership and binds it to the
// accepting identity. Invitations expire after seven days.
func (s *TeamService) AcceptInvitation(ctx context.Context, actor Actor, token string) (models.TeamMember, error) {
	member, err := s.memberRepo.FindByInvitationToken(token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.TeamMember{}, shared.NewAPIError(shared.ErrorKindNotFound, "invitation not found")
	}
	if err != nil {
		return models.TeamMember{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not look up invitation", err)
	}

	if time.Since(member.InvitedAt) > config.InvitationTTL() {
		return models.TeamMember{}, shared.NewAPIError(shared.ErrorKindExpired, "invitation has expired")
	}

	unlock := s.locks.Lock(member.ProjectID)
	defer unlock()

	now := time.Now()
	member.UserID = actor.UserID
	member.Status = models.MemberStatusActive
	member.InvitationToken = nil
	member.JoinedAt = &now
	if err := s.memberRepo.Save(nil, &member); err != nil {
		if database.IsDuplicateKeyError(err) {
			return models.TeamMember{}, shared.NewAPIError(shared.ErrorKindConflict, "you are already a member of this project")
		}
		return models.TeamMember{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not accept invitation", err)
	}

	s.events.Emit(member.ProjectID, shared.EventMemberUpdated, member)
	slog.Info("invitation accepted", "project", member.ProjectID, "userID", actor.UserID)
	return member, nil
}

// UpdateMemberRole changes a member's role. Demoting the last active
// manager would orphan the project and is refused.
func (s *TeamService) UpdateMemberRole(ctx context.Context, project models.Project, actor Actor, memberUserID string, role models.Role) (models.TeamMember, error) {
	unlock := s.locks.Lock(project.ID)
	defer unlock()

	member, err := s.findMember(project, memberUserID)
	if err != nil {
		return models.TeamMember{}, err
	}

	role = models.NormalizeRole(role)
	if member.Role == models.RoleManager && role != models.RoleManager {
		if err := s.ensureNotLastManager(project, member); err != nil {
			return models.TeamMember{}, err
		}
	}

	member.Role = role
	if err := s.memberRepo.Save(nil, &member); err != nil {
		return models.TeamMember{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not update member role", err)
	}

	s.events.Emit(project.ID, shared.EventMemberUpdated, member)
	slog.Info("member role updated", "project", project.ProjectID, "member", memberUserID, "role", role, "actor", actor.UserID)
	return member, nil
}

// RemoveMember removes a member from the project entirely.
func (s *TeamService) RemoveMember(ctx context.Context, project models.Project, actor Actor, memberUserID string) error {
	unlock := s.locks.Lock(project.ID)
	defer unlock()

	member, err := s.findMember(project, memberUserID)
	if err != nil {
		return err
	}

	if member.Role == models.RoleManager && member.Status == models.MemberStatusActive {
		if err := s.ensureNotLastManager(project, member); err != nil {
			return err
		}
	}

	if err := s.memberRepo.Delete(nil, member.ID); err != nil {
		return shared.WrapAPIError(shared.ErrorKindInternal, "could not remove member", err)
	}

	s.events.Emit(project.ID, shared.EventMemberRemoved, member)
	slog.Info("member removed", "project", project.ProjectID, "member", memberUserID, "actor", actor.UserID)
	return nil
}

// AddDesigner is the direct-add shortcut: an active designer without the
// invitation round trip. Meant for demo setups.
func (s *TeamService) AddDesigner(ctx context.Context, project models.Project, actor Actor, name, email string) (models.TeamMember, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@placeholder.local"
	}

	unlock := s.locks.Lock(project.ID)
	defer unlock()

	user, err := s.userRepo.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			UserID: NewPlaceholderUserID(),
			Email:  email,
			Name:   name,
		}
		if err := s.userRepo.Create(nil, &user); err != nil {
			return models.TeamMember{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not create user", err)
		}
	} else if err != nil {
		return models.TeamMember{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not look up user", err)
	}

	now := time.Now()
	member := models.TeamMember{
		ProjectID: project.ID,
		UserID:    user.UserID,
		Email:     email,
		Role:      models.RoleDesigner,
		Status:    models.MemberStatusActive,
		InvitedAt: now,
		JoinedAt:  &now,
	}
	if err := s.memberRepo.Create(nil, &member); err != nil {
		if database.IsDuplicateKeyError(err) {
			return models.TeamMember{}, shared.NewAPIError(shared.ErrorKindConflict, "user is already a member of this project")
		}
		return models.TeamMember{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not add designer", err)
	}

	s.events.Emit(project.ID, shared.EventMemberAdded, member)
	return member, nil
}

func (s *TeamService) findMember(project models.Project, userID string) (models.TeamMember, error) {
	member, err := s.memberRepo.FindMember(project.ID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.TeamMember{}, shared.NewAPIError(shared.ErrorKindNotFound, "team member not found")
	}
	if err != nil {
		return models.TeamMember{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not read team member", err)
	}
	return member, nil
}

func (s *TeamService) ensureNotLastManager(project models.Project, member models.TeamMember) error {
	count, err := s.memberRepo.CountActiveManagers(project.ID)
	if err != nil {
		return shared.WrapAPIError(shared.ErrorKindInternal, "could not count managers", err)
	}
	if count <= 1 {
		return shared.NewAPIError(shared.ErrorKindConflict, "cannot remove the last active manager")
	}
	return nil
}
