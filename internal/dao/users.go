package dao

import (
	"context"
	"errors"

	gormModel "github.com/Malowking/ragchat/internal/model/gorm"
	"github.com/gogf/gf/v2/frame/g"
	"gorm.io/gorm"
)

// UserDAO 用户数据访问对象
type UserDAO struct{}

var User = &UserDAO{}

// GetAdminID 获取内置管理员的用户ID，不存在时返回空字符串
func (d *UserDAO) GetAdminID(ctx context.Context) (string, error) {
	var user gormModel.User
	err := GetDB().WithContext(ctx).Where("email = ?", gormModel.AdminEmail).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		g.Log().Errorf(ctx, "查询管理员失败: %v", err)
		return "", err
	}
	return user.ID, nil
}
