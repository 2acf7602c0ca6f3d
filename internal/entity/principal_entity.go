package entity

import (
	"soulscript-chat-be/internal/constant"

	"github.com/google/uuid"
)

// Principal is the caller of a chat operation: an authenticated user or an
// anonymous device.
type Principal struct {
	UserId     *uuid.UUID
	DeviceId   string
	Role       string
	GroupScope string
}

func NewUserPrincipal(userId uuid.UUID, role, groupScope string) Principal {
	return Principal{UserId: &userId, Role: role, GroupScope: groupScope}
}

func NewDevicePrincipal(deviceId, groupScope string) Principal {
	return Principal{DeviceId: deviceId, Role: constant.PrincipalRoleAnonymous, GroupScope: groupScope}
}

func (p Principal) IsAnonymous() bool {
	return p.UserId == nil
}

func (p Principal) IsAdmin() bool {
	return p.Role == constant.PrincipalRoleAdmin
}

// Ref is the identifier written to moderation logs.
func (p Principal) Ref() string {
	if p.UserId != nil {
		return p.UserId.String()
	}
	return "anon:" + p.DeviceId
}
