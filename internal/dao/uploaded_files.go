package dao

import (
	"context"
	"errors"

	gormModel "github.com/Malowking/ragchat/internal/model/gorm"
	"github.com/gogf/gf/v2/frame/g"
	"gorm.io/gorm"
)

// FileDAO 上传文件数据访问对象
type FileDAO struct{}

var File = &FileDAO{}

// Create 登记上传文件，写入后 file.ID 可用
func (d *FileDAO) Create(ctx context.Context, file *gormModel.UploadedFile) error {
	if err := GetDB().WithContext(ctx).Create(file).Error; err != nil {
		g.Log().Errorf(ctx, "登记文件失败: %v", err)
		return err
	}
	return nil
}

// UpdateStoragePath 更新文件的存储位置
func (d *FileDAO) UpdateStoragePath(ctx context.Context, id uint64, storagePath string) error {
	err := GetDB().WithContext(ctx).Model(&gormModel.UploadedFile{}).Where("id = ?", id).Update("storage_path", storagePath).Error
	if err != nil {
		g.Log().Errorf(ctx, "更新文件存储位置失败: %v", err)
		return err
	}
	return nil
}

// Get 根据ID获取文件，不存在时返回 nil
func (d *FileDAO) Get(ctx context.Context, id uint64) (*gormModel.UploadedFile, error) {
	var file gormModel.UploadedFile
	if err := GetDB().WithContext(ctx).Where("id = ?", id).First(&file).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		g.Log().Errorf(ctx, "查询文件失败: %v", err)
		return nil, err
	}
	return &file, nil
}

// ListBySession 会话下的全部文件
func (d *FileDAO) ListBySession(ctx context.Context, sessionID string) ([]*gormModel.UploadedFile, error) {
	var files []*gormModel.UploadedFile
	if err := GetDB().WithContext(ctx).Where("session_id = ?", sessionID).Order("id ASC").Find(&files).Error; err != nil {
		g.Log().Errorf(ctx, "查询文件列表失败: %v", err)
		return nil, err
	}
	return files, nil
}

// Delete 删除文件登记，返回是否有记录被删除
func (d *FileDAO) Delete(ctx context.Context, id uint64) (bool, error) {
	result := GetDB().WithContext(ctx).Where("id = ?", id).Delete(&gormModel.UploadedFile{})
	if result.Error != nil {
		g.Log().Errorf(ctx, "删除文件登记失败: %v", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
