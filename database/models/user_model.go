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

import databasetypes "github.com/inkvault-dev/inkvault/database/types"

type User struct {
	Model
	// UserID is the external identity the client authenticated with.
	UserID string `json:"userId" gorm:"type:text;uniqueIndex;not null"`
	// Email is always stored lowercase.
	Email       string              `json:"email" gorm:"type:text;uniqueIndex;not null"`
	Name        string              `json:"name" gorm:"type:text"`
	AvatarURL   *string             `json:"avatarUrl"`
	Preferences databasetypes.JSONB `json:"preferences" gorm:"type:jsonb;default:'{}'"`
}

func (m User) TableName() string {
	return "users"
}
