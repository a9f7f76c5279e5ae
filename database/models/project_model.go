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
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package models

// DefaultMinReviews is the approval threshold a project starts with.
const DefaultMinReviews = 2

type BranchProtection struct {
	RequireApproval  bool `json:"requireApproval"`
	MinReviews       int  `json:"minReviews"`
	AutoDeleteMerged bool `json:"autoDeleteMerged"`
}

type ProjectSettings struct {
	BranchProtection BranchProtection `json:"branchProtection"`
	Notifications    bool             `json:"notifications"`
}

func DefaultProjectSettings() ProjectSettings {
	return ProjectSettings{
		BranchProtection: BranchProtection{
			RequireApproval:  true,
			MinReviews:       DefaultMinReviews,
			AutoDeleteMerged: false,
		},
		Notifications: true,
	}
}

type Project struct {
	Model
	// ProjectID is the external stable identifier clients address the project by.
	ProjectID   string          `json:"projectId" gorm:"type:text;uniqueIndex;not null"`
	Name        string          `json:"name" gorm:"type:text;not null"`
	Description string          `json:"description" gorm:"type:text"`
	OwnerID     string          `json:"ownerId" gorm:"type:text;not null"`
	Settings    ProjectSettings `json:"settings" gorm:"type:jsonb;serializer:json"`
}

func (m Project) TableName() string {
	return "projects"
}
