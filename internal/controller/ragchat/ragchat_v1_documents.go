package ragchat

import (
	"context"
	"fmt"

	v1 "github.com/Malowking/ragchat/api/ragchat/v1"
	apperrors "github.com/Malowking/ragchat/core/errors"
	gormModel "github.com/Malowking/ragchat/internal/model/gorm"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/net/ghttp"
	"github.com/gogf/gf/v2/os/gtime"
)

// UploadDoc 上传并入库文档
func (c *ControllerV1) UploadDoc(ctx context.Context, req *v1.UploadDocReq) (res *v1.UploadDocRes, err error) {
	g.Log().Infof(ctx, "UploadDoc request received - SessionId: %s", req.SessionId)

	file, err := c.uploadFile(ctx, req.SessionId, req.File)
	if err != nil {
		return nil, err
	}
	return &v1.UploadDocRes{
		FileId:  file.ID,
		Message: fmt.Sprintf("File %s has been successfully uploaded and indexed.", file.Name),
	}, nil
}

func (c *ControllerV1) uploadFile(ctx context.Context, sessionID string, upload *ghttp.UploadFile) (*gormModel.UploadedFile, error) {
	if upload == nil {
		return nil, apperrors.New(apperrors.ErrInvalidParameter, "file is required")
	}
	f, err := upload.Open()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFileReadFailed, err, "failed to open uploaded file")
	}
	defer f.Close()

	return c.documents.Upload(ctx, sessionID, upload.Filename, f)
}

func (c *ControllerV1) ListDocs(ctx context.Context, req *v1.ListDocsReq) (res *v1.ListDocsRes, err error) {
	files, err := c.documents.List(ctx, req.SessionId)
	if err != nil {
		return nil, err
	}
	res = &v1.ListDocsRes{Data: make([]*v1.DocumentInfo, 0, len(files))}
	for _, f := range files {
		res.Data = append(res.Data, &v1.DocumentInfo{
			Id:        f.ID,
			SessionId: f.SessionID,
			Filename:  f.Name,
			CreatedAt: gtime.NewFromTime(f.CreatedAt),
		})
	}
	return res, nil
}

func (c *ControllerV1) DeleteDoc(ctx context.Context, req *v1.DeleteDocReq) (res *v1.DeleteDocRes, err error) {
	if err = c.documents.Delete(ctx, req.FileId); err != nil {
		g.Log().Errorf(ctx, "DeleteDoc: failed to delete file %d: %v", req.FileId, err)
		return nil, err
	}
	return &v1.DeleteDocRes{
		Message: fmt.Sprintf("Successfully deleted document with file_id %d from the system.", req.FileId),
	}, nil
}
