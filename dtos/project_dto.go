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

package dtos

import "github.com/inkvault-dev/inkvault/database/models"

type ProjectCreateRequest struct {
	ProjectID   string `json:"projectId" validate:"required,min=3,max=64"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type ProjectSettingsPatchRequest struct {
	RequireApproval  *bool `json:"requireApproval"`
	MinReviews       *int  `json:"minReviews"`
	AutoDeleteMerged *bool `json:"autoDeleteMerged"`
	Notifications    *bool `json:"notifications"`
}

// Apply overlays the patch onto settings and reports whether anything
// changed.
func (r ProjectSettingsPatchRequest) Apply(settings *models.ProjectSettings) bool {
	updated := false
	if r.RequireApproval != nil && settings.BranchProtection.RequireApproval != *r.RequireApproval {
		settings.BranchProtection.RequireApproval = *r.RequireApproval
		updated = true
	}
	if r.MinReviews != nil && settings.BranchProtection.MinReviews != *r.MinReviews {
		settings.BranchProtection.MinReviews = *r.MinReviews
		updated = true
	}
	if r.AutoDeleteMerged != nil && settings.BranchProtection.AutoDeleteMerged != *r.AutoDeleteMerged {
		settings.BranchProtection.AutoDeleteMerged = *r.AutoDeleteMerged
		updated = true
	}
	if r.Notifications != nil && settings.Notifications != *r.Notifications {
		settings.Notifications = *r.Notifications
		updated = true
	}
	return updated
}
